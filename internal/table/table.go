// Package table filters, sorts and paginates small in-memory result sets the
// way every admin list page does.
package table

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const DefaultLimit = 20

// Query is the list state owned by a page: search term, sort key and window.
type Query struct {
	Search string
	Sort   string
	Desc   bool
	Offset int
	Limit  int
}

// ParseQuery reads q, sort, order, offset and limit from URL values.
func ParseQuery(v url.Values, defaultLimit int) Query {
	q := Query{
		Search: strings.TrimSpace(v.Get("q")),
		Sort:   v.Get("sort"),
		Desc:   strings.EqualFold(v.Get("order"), "desc"),
		Limit:  defaultLimit,
	}
	if n, err := strconv.Atoi(v.Get("offset")); err == nil {
		q.Offset = n
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil && n > 0 {
		q.Limit = n
	}
	return q
}

// Values encodes q back into URL values, omitting defaults.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Desc {
		v.Set("order", "desc")
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Limit > 0 && q.Limit != DefaultLimit {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// WithOffset returns a copy of q moved to offset.
func (q Query) WithOffset(offset int) Query {
	q.Offset = offset
	return q
}

// WithSort returns a copy of q sorted by key, flipping direction when key is
// already the active sort. The window resets to the first page.
func (q Query) WithSort(key string) Query {
	if q.Sort == key {
		q.Desc = !q.Desc
	} else {
		q.Sort = key
		q.Desc = false
	}
	q.Offset = 0
	return q
}

// Filter keeps items where any projected field contains term, ignoring case.
// An empty term keeps everything.
func Filter[T any](items []T, term string, fields func(T) []string) []T {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || fields == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, f := range fields(it) {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Compare orders two items: negative when a sorts before b.
type Compare[T any] func(a, b T) int

// Sort returns a stably sorted copy. Unknown keys leave the order unchanged.
func Sort[T any](items []T, key string, desc bool, comparators map[string]Compare[T]) []T {
	out := append([]T(nil), items...)
	cmp, ok := comparators[key]
	if key == "" || !ok {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return cmp(out[j], out[i]) < 0
		}
		return cmp(out[i], out[j]) < 0
	})
	return out
}

// Page is one window of a result set.
type Page[T any] struct {
	Items      []T
	Offset     int
	Limit      int
	Total      int
	PrevOffset int
	NextOffset int
	HasPrev    bool
	HasNext    bool
}

// From is the 1-based index of the first item shown, 0 when empty.
func (p Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Offset + 1
}

// To is the 1-based index of the last item shown, 0 when empty.
func (p Page[T]) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.Offset + len(p.Items)
}

// Paginate cuts the window [offset, offset+limit) out of items.
func Paginate[T any](items []T, offset, limit int) Page[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	total := len(items)
	p := Page[T]{Offset: offset, Limit: limit, Total: total}

	if offset < total {
		end := min(offset+limit, total)
		p.Items = items[offset:end]
	}
	if offset > 0 {
		p.HasPrev = true
		p.PrevOffset = max(offset-limit, 0)
	}
	if offset+limit < total {
		p.HasNext = true
		p.NextOffset = offset + limit
	}
	return p
}

// Spec describes how a resource is searched and sorted.
type Spec[T any] struct {
	Fields      func(T) []string
	Comparators map[string]Compare[T]
}

// SortKeys lists the sortable keys in alphabetical order.
func (s Spec[T]) SortKeys() []string {
	keys := make([]string, 0, len(s.Comparators))
	for k := range s.Comparators {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply runs filter, sort and paginate in that order.
func Apply[T any](items []T, q Query, spec Spec[T]) Page[T] {
	filtered := Filter(items, q.Search, spec.Fields)
	sorted := Sort(filtered, q.Sort, q.Desc, spec.Comparators)
	return Paginate(sorted, q.Offset, q.Limit)
}
