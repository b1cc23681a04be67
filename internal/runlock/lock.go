// Package runlock serializes pipeline runs against a shared store.
package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrHeld indicates another run currently holds the lock.
var ErrHeld = errors.New("another pipeline run is in progress")

// Lock is a redis-backed single-flight lease. Concurrent runs against the
// same store race on upsert replace semantics, so they must be serialized.
type Lock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

// Config holds lock settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// New connects to redis and returns an unlocked lease.
func New(cfg Config) (*Lock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Lock{
		client: client,
		key:    cfg.Key,
		ttl:    cfg.TTL,
		token:  fmt.Sprintf("%d", time.Now().UnixNano()),
	}, nil
}

// Acquire takes the lease or returns ErrHeld. The TTL bounds how long a
// crashed run can block its successors.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrHeld
	}
	return nil
}

// releaseScript deletes the key only when this run still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Release gives the lease back if this run still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (l *Lock) Close() error {
	return l.client.Close()
}
