// Package listing holds the search, sort and pagination rules shared by every
// list page.
package listing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases s and strips diacritics, so "López" becomes "lopez".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Terms splits a query on whitespace after normalizing it.
func Terms(query string) []string {
	return strings.Fields(Normalize(query))
}

// Match reports whether every term of query occurs in the joined fields.
func Match(query string, fields ...string) bool {
	return matchTerms(Terms(query), fields)
}

func matchTerms(terms []string, fields []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := Normalize(strings.Join(fields, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

// Filter keeps the items whose searchable fields match query.
func Filter[T any](items []T, query string, fields func(T) []string) []T {
	terms := Terms(query)
	if len(terms) == 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if matchTerms(terms, fields(it)) {
			out = append(out, it)
		}
	}
	return out
}
