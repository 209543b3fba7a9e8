package storage

import (
	"strings"
	"unicode"
)

// Tokenize normalizes text into the token stream the lexical index stores:
// lowercased, split on any rune that is not a letter or digit. Punctuation
// never survives, so "Dogs," and "dogs" index identically.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// joinTerms encodes a token stream for the lexical_index column
func joinTerms(terms []string) string {
	return strings.Join(terms, " ")
}

// splitTerms decodes a lexical_index column value
func splitTerms(lexical string) []string {
	if lexical == "" {
		return nil
	}
	return strings.Split(lexical, " ")
}
