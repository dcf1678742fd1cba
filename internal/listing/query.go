package listing

import (
	"net/url"
	"strconv"
	"strings"
)

// Query is the list state carried in the URL: search text, sort key, direction
// and page number.
type Query struct {
	Search string
	Sort   string
	Desc   bool
	Page   int
}

// ParseQuery reads q, sort, dir and page. Unknown or missing values fall back to
// defaultSort ascending on page 1.
func ParseQuery(v url.Values, defaultSort string) Query {
	q := Query{
		Search: strings.TrimSpace(v.Get("q")),
		Sort:   v.Get("sort"),
		Desc:   v.Get("dir") == "desc",
		Page:   1,
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 1 {
		q.Page = p
	}
	return q
}

// Values encodes q. Page 1 is left out.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
		if q.Desc {
			v.Set("dir", "desc")
		} else {
			v.Set("dir", "asc")
		}
	}
	if q.Page > 1 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// ToggleSort selects key. The current key flips direction, a new key starts
// ascending. The page goes back to 1 either way.
func (q Query) ToggleSort(key string) Query {
	if q.Sort == key {
		q.Desc = !q.Desc
	} else {
		q.Sort = key
		q.Desc = false
	}
	q.Page = 1
	return q
}

// WithSearch replaces the search text, resetting the page when it changes.
func (q Query) WithSearch(s string) Query {
	s = strings.TrimSpace(s)
	if s != q.Search {
		q.Search = s
		q.Page = 1
	}
	return q
}

func (q Query) WithPage(n int) Query {
	if n < 1 {
		n = 1
	}
	q.Page = n
	return q
}

// Direction is "asc" or "desc", for templates.
func (q Query) Direction() string {
	if q.Desc {
		return "desc"
	}
	return "asc"
}
