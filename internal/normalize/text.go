package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const nbsp = "\u00a0"

// NormalizeCell trims, removes non-breaking spaces and collapses whitespace.
func NormalizeCell(s string) string {
	s = strings.ReplaceAll(s, nbsp, " ")
	return strings.Join(strings.Fields(s), " ")
}

// CleanText is the comparison form of a cell: lower case, no diacritics, single spaces.
func CleanText(s string) string {
	s = NormalizeCell(s)
	if s == "" {
		return ""
	}
	// transformers are stateful, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// CleanSet returns the cleaned, non-empty values of a row.
func CleanSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if c := CleanText(v); c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}
