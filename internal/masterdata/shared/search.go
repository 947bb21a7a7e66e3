package shared

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldSearch lowercases a search term and strips diacritics, so "Azúcar"
// matches rows stored as "azucar" and vice versa.
func FoldSearch(term string) string {
	folded, _, err := transform.String(accentFolder, term)
	if err != nil {
		folded = term
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
