package table

import (
	"cmp"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	ID   int
	Name string
	City string
}

var people = []person{
	{1, "Айдар", "Алматы"},
	{2, "Bolat", "Astana"},
	{3, "Dana", "Almaty"},
	{4, "aisulu", "Shymkent"},
	{5, "Bolat", "Aktobe"},
}

var spec = Spec[person]{
	Fields: func(p person) []string { return []string{p.Name, p.City} },
	Comparators: map[string]Compare[person]{
		"id":   func(a, b person) int { return cmp.Compare(a.ID, b.ID) },
		"name": func(a, b person) int { return cmp.Compare(a.Name, b.Name) },
	},
}

func ids(ps []person) []int {
	out := make([]int, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(Filter(people, "  ", spec.Fields)))
	assert.Equal(t, []int{2, 5}, ids(Filter(people, "BOLAT", spec.Fields)))
	assert.Equal(t, []int{3}, ids(Filter(people, "almaty", spec.Fields)))
	assert.Equal(t, []int{1}, ids(Filter(people, "алма", spec.Fields)))
	assert.Empty(t, Filter(people, "nobody", spec.Fields))
}

func TestSort(t *testing.T) {
	assert.Equal(t, []int{2, 5, 3, 4, 1}, ids(Sort(people, "name", false, spec.Comparators)))
	// Stable: equal names keep their relative order in both directions.
	assert.Equal(t, []int{1, 4, 3, 2, 5}, ids(Sort(people, "name", true, spec.Comparators)))
	assert.Equal(t, []int{5, 4, 3, 2, 1}, ids(Sort(people, "id", true, spec.Comparators)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(Sort(people, "unknown", true, spec.Comparators)))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, ids(people), "input must not be reordered")
}

func TestPaginate(t *testing.T) {
	p := Paginate(people, 0, 2)
	assert.Equal(t, []int{1, 2}, ids(p.Items))
	assert.False(t, p.HasPrev)
	assert.True(t, p.HasNext)
	assert.Equal(t, 2, p.NextOffset)
	assert.Equal(t, 1, p.From())
	assert.Equal(t, 2, p.To())

	p = Paginate(people, 4, 2)
	assert.Equal(t, []int{5}, ids(p.Items))
	assert.True(t, p.HasPrev)
	assert.Equal(t, 2, p.PrevOffset)
	assert.False(t, p.HasNext)

	p = Paginate(people, 1, 2)
	assert.Equal(t, 0, p.PrevOffset, "prev offset clamps at zero")

	p = Paginate(people, 50, 2)
	assert.Empty(t, p.Items)
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 0, p.From())
	assert.Equal(t, 0, p.To())

	p = Paginate(people, -3, 0)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, DefaultLimit, p.Limit)
	assert.Len(t, p.Items, 5)
}

func TestApply(t *testing.T) {
	q := Query{Search: "bolat", Sort: "id", Desc: true, Limit: 1}
	p := Apply(people, q, spec)
	assert.Equal(t, 2, p.Total)
	assert.Equal(t, []int{5}, ids(p.Items))
	assert.True(t, p.HasNext)
}

func TestParseQueryRoundTrip(t *testing.T) {
	v, _ := url.ParseQuery("q=+dana+&sort=name&order=DESC&offset=20&limit=50")
	q := ParseQuery(v, DefaultLimit)
	assert.Equal(t, Query{Search: "dana", Sort: "name", Desc: true, Offset: 20, Limit: 50}, q)
	assert.Equal(t, "limit=50&offset=20&order=desc&q=dana&sort=name", q.Values().Encode())

	q = ParseQuery(url.Values{"offset": {"x"}, "limit": {"-1"}}, 10)
	assert.Equal(t, Query{Limit: 10}, q)
}

func TestWithSortTogglesDirection(t *testing.T) {
	q := Query{Sort: "name", Offset: 40}
	q = q.WithSort("name")
	assert.True(t, q.Desc)
	assert.Equal(t, 0, q.Offset)

	q = q.WithSort("id")
	assert.Equal(t, "id", q.Sort)
	assert.False(t, q.Desc)
}

func TestSortKeys(t *testing.T) {
	assert.Equal(t, []string{"id", "name"}, spec.SortKeys())
}
