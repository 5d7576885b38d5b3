package search

import (
	"strings"
	"unicode/utf8"
)

// minTermLength is the exclusive lower bound on search term length; tokens
// of two runes or fewer carry no signal against the catalog columns.
const minTermLength = 2

var accentFolding = strings.NewReplacer(
	"á", "a", "à", "a", "ä", "a", "â", "a",
	"é", "e", "è", "e", "ë", "e", "ê", "e",
	"í", "i", "ì", "i", "ï", "i", "î", "i",
	"ó", "o", "ò", "o", "ö", "o", "ô", "o",
	"ú", "u", "ù", "u", "ü", "u", "û", "u",
	"ñ", "n",
)

// Normalize prepares free text for matching against the catalog: it
// lower-cases, folds accented Latin vowels and ñ to ASCII, splits on
// whitespace, discards tokens of length <= 2 and deduplicates the rest
// preserving first occurrence. Empty or whitespace-only input yields an
// empty slice, which callers must treat as "no free-text filter".
func Normalize(text string) []string {
	folded := accentFolding.Replace(strings.ToLower(strings.TrimSpace(text)))
	if folded == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string
	for _, token := range strings.Fields(folded) {
		if utf8.RuneCountInString(token) <= minTermLength {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}
