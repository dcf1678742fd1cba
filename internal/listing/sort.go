package listing

import (
	"cmp"
	"slices"
	"strings"
)

// Key extracts the value a list is sorted by. Exactly one of Number or Text is
// set. Missing values should come back as 0 or "".
type Key[T any] struct {
	Number func(T) float64
	Text   func(T) string
}

type Keys[T any] map[string]Key[T]

// NameKey compares lowercased "first last".
func NameKey[T any](first, last func(T) string) Key[T] {
	return Key[T]{Text: func(it T) string {
		return strings.ToLower(strings.TrimSpace(first(it) + " " + last(it)))
	}}
}

// Sort returns a stably sorted copy of items by q.Sort. Unknown keys leave the
// order untouched.
func Sort[T any](items []T, keys Keys[T], q Query) []T {
	out := slices.Clone(items)
	key, ok := keys[q.Sort]
	if !ok {
		return out
	}
	var compare func(a, b T) int
	switch {
	case key.Number != nil:
		compare = func(a, b T) int { return cmp.Compare(key.Number(a), key.Number(b)) }
	case key.Text != nil:
		compare = func(a, b T) int { return strings.Compare(key.Text(a), key.Text(b)) }
	default:
		return out
	}
	if q.Desc {
		asc := compare
		compare = func(a, b T) int { return asc(b, a) }
	}
	slices.SortStableFunc(out, compare)
	return out
}
