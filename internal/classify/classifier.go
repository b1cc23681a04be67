// Package classify assigns categories to stored products using keyword
// matching.
package classify

import "strings"

// Category is a classification target with its keyword stems in priority
// order.
type Category struct {
	ID       int
	Keywords []string
}

// Categories is the fixed category table. Order matters twice: categories
// are tried top to bottom, and keywords within a category left to right;
// the first match wins.
var Categories = []Category{
	{ID: 1, Keywords: []string{"needle", "aguj", "cartridge", "cartridg"}},
	{ID: 2, Keywords: []string{"machine", "maquin", "rotary", "pen", "wireless", "inalambr", "termocopi"}},
	{ID: 3, Keywords: []string{"ink", "tinta", "pigment"}},
	{ID: 4, Keywords: []string{"grip", "tip", "punta"}},
	{ID: 5, Keywords: []string{"power", "fuente", "pedal", "battery"}},
	{ID: 6, Keywords: []string{"glove", "guante", "wipe", "jab", "asep", "higiene"}},
	{ID: 7, Keywords: []string{"cable", "clip", "adapter", "soporte", "holder"}},
	{ID: 8, Keywords: []string{"film", "roll", "papel", "cinta", "descart", "protector"}},
	{ID: 9, Keywords: []string{"motor", "spare", "repuesto", "reemplaz"}},
}

// Classify returns the first category whose first matching keyword occurs
// as a substring of the product's combined text, or false when nothing
// matches. Missing fields are treated as empty.
func Classify(title, description, tags, productType string) (int, bool) {
	text := strings.ToLower(title + " " + description + " " + tags + " " + productType)

	for _, cat := range Categories {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				return cat.ID, true
			}
		}
	}
	return 0, false
}
