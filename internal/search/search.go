// Package search parses tag search expressions such as "cat -dog or bird".
package search

import (
	"strings"
	"unicode"
)

// OrOperator is the pseudo-tag joining alternatives in an expression.
const OrOperator = "or"

// Words splits an expression into its whitespace-separated words.
func Words(expr string) []string {
	return strings.FieldsFunc(expr, unicode.IsSpace)
}

// SplitPrefix separates leading "-" negation prefixes from a word.
func SplitPrefix(word string) (prefix, tag string) {
	i := 0
	for i < len(word) && word[i] == '-' {
		i++
	}
	return word[:i], word[i:]
}

// IsOr reports whether the word is the "or" operator, in any case.
func IsOr(word string) bool {
	return strings.EqualFold(word, OrOperator)
}

// DistinctTags returns the bare tags referenced by the expressions in
// first-seen order. Prefixes are stripped, so "-cat" and "cat" collapse.
// When skipOr is set the "or" operator is left out.
func DistinctTags(exprs []string, skipOr bool) []string {
	seen := make(map[string]struct{})
	tags := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		for _, word := range Words(expr) {
			_, tag := SplitPrefix(word)
			if tag == "" {
				continue
			}
			if skipOr && IsOr(tag) {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// Contains reports whether the expression has the word verbatim.
func Contains(expr, word string) bool {
	for _, w := range Words(expr) {
		if w == word {
			return true
		}
	}
	return false
}

// Toggle adds the word to the expression or removes its first occurrence.
// Negated forms are separate words and are left alone.
func Toggle(expr, word string) string {
	words := Words(expr)
	for i, w := range words {
		if w == word {
			words = append(words[:i], words[i+1:]...)
			return strings.Join(words, " ")
		}
	}
	words = append(words, word)
	return strings.Join(words, " ")
}
