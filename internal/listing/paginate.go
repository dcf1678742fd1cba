package listing

// Page sizes per list page
const (
	PlayersPageSize  = 10
	TicketsPageSize  = 25
	RequestsPageSize = 10
	UsersPageSize    = 10
)

// SearchDebounceMillis is the keystroke pause before a search input refreshes
// its list.
const SearchDebounceMillis = 300

type Page[T any] struct {
	Items  []T
	Number int
	Count  int
	Total  int
	Size   int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Count }

// PageCount is ceil(n/size), never below 1.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate slices out page number n (1-based), clamped into range.
func Paginate[T any](items []T, n, size int) Page[T] {
	count := PageCount(len(items), size)
	if n < 1 {
		n = 1
	}
	if n > count {
		n = count
	}
	p := Page[T]{Number: n, Count: count, Total: len(items), Size: size}
	if size <= 0 {
		p.Items = items
		return p
	}
	start := (n - 1) * size
	if start >= len(items) {
		return p
	}
	end := min(start+size, len(items))
	p.Items = items[start:end]
	return p
}

// Apply runs search, sort and pagination in that order.
func Apply[T any](items []T, q Query, fields func(T) []string, keys Keys[T], size int) Page[T] {
	filtered := Filter(items, q.Search, fields)
	return Paginate(Sort(filtered, keys, q), q.Page, size)
}
