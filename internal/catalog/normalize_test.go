package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertohilal/catalog-sync/internal/observability"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain text unchanged",
			in:   "Rotary machine with adjustable stroke",
			want: "Rotary machine with adjustable stroke",
		},
		{
			name: "tags removed",
			in:   "<p>Cartridge needles <strong>size 3RL</strong></p>",
			want: "Cartridge needles size 3RL",
		},
		{
			name: "entities unescaped",
			in:   "Grips &amp; tips &lt;new&gt;",
			want: "Grips & tips <new>",
		},
		{
			name: "attributes inside tags",
			in:   `<div class="desc" data-x="1">Power supply</div>`,
			want: "Power supply",
		},
		{
			name: "unclosed tag left alone",
			in:   "Pedal <b unterminated",
			want: "Pedal <b unterminated",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.in))
		})
	}
}

func TestNormalize_FirstVariantWins(t *testing.T) {
	raw := RawListing{
		ID:          42,
		Title:       "Wireless Pen Machine",
		Handle:      "wireless-pen-machine",
		BodyHTML:    "<p>Top seller</p>",
		Vendor:      "HabySupply",
		ProductType: "machine",
		Tags:        TagList{"rotary", "wireless"},
		Variants: []RawVariant{
			{SKU: "PEN-001", Price: "129.90", CompareAtPrice: "149.90", Available: true},
			{SKU: "PEN-002", Price: "99.00", Available: false},
		},
		Images: []RawImage{
			{Src: "https://cdn.example.com/a.jpg"},
			{Src: ""},
			{Src: "https://cdn.example.com/b.jpg"},
		},
	}

	p := Normalize(raw)

	assert.Equal(t, int64(42), p.ExternalID)
	assert.Equal(t, "PEN-001", p.SKU)
	assert.Equal(t, "129.90", p.Price)
	assert.Equal(t, "149.90", p.CompareAtPrice)
	assert.True(t, p.Available)
	assert.Equal(t, "Top seller", p.Description)
	assert.Equal(t, "machine", p.ProductType)
	assert.Equal(t, "rotary,wireless", p.Tags)
	// Empty srcs are dropped, remaining order preserved.
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"}, p.ImageURLs)
}

func TestNormalize_NoVariants(t *testing.T) {
	p := Normalize(RawListing{ID: 7, Title: "Sticker Pack"})

	assert.Equal(t, "", p.SKU)
	assert.Equal(t, "", p.Price)
	assert.False(t, p.Available)
	assert.Empty(t, p.ImageURLs)
}

func TestTagList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want TagList
	}{
		{name: "array form", in: `["ink","pigment"]`, want: TagList{"ink", "pigment"}},
		{name: "string form", in: `"ink, pigment , black"`, want: TagList{"ink", "pigment", "black"}},
		{name: "empty string", in: `""`, want: nil},
		{name: "empty array", in: `[]`, want: TagList{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TagList
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		var got TagList
		assert.Error(t, json.Unmarshal([]byte(`123`), &got))
	})
}

func TestNormalizeAll_SkipsMalformedRecords(t *testing.T) {
	records := []json.RawMessage{
		json.RawMessage(`{"id":1,"title":"Needles","variants":[{"sku":"N-1","price":"5.00"}]}`),
		json.RawMessage(`"not an object"`),
		json.RawMessage(`{"id":2,"title":"Gloves","variants":[{"sku":"G-1","price":"8.00"}]}`),
	}

	result := NormalizeAll(observability.NopLogger(), records)

	require.Len(t, result.Products, 2)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "record 1")
	assert.Equal(t, "N-1", result.Products[0].SKU)
	assert.Equal(t, "G-1", result.Products[1].SKU)
}

func TestNormalizeAll_EmptyInput(t *testing.T) {
	result := NormalizeAll(observability.NopLogger(), nil)

	assert.Empty(t, result.Products)
	assert.Zero(t, result.Skipped)
}
