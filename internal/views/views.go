// Package views describes how each admin resource is searched, sorted and
// laid out as a table. The CLI and the dashboard render the same columns.
package views

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/barlyqqyzmet/admin/client"
	"github.com/barlyqqyzmet/admin/internal/table"
)

// Column is one table column. SortKey is empty for unsortable columns.
type Column[T any] struct {
	Header  string
	SortKey string
	Cell    func(T) string
}

// View bundles the table spec and column layout of a resource.
type View[T any] struct {
	Name    string
	Title   string
	Spec    table.Spec[T]
	Columns []Column[T]
	// ID returns the row identifier used in action URLs.
	ID func(T) string
}

// Headers returns the column headers in order.
func (v View[T]) Headers() []string {
	out := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		out[i] = c.Header
	}
	return out
}

// Rows renders items into cell text.
func (v View[T]) Rows(items []T) [][]string {
	rows := make([][]string, len(items))
	for i, it := range items {
		row := make([]string, len(v.Columns))
		for j, c := range v.Columns {
			row[j] = c.Cell(it)
		}
		rows[i] = row
	}
	return rows
}

// Ago renders a timestamp relative to now, "-" when unset.
func Ago(t client.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t.Time)
}

// Date renders an absolute timestamp.
func Date(t client.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// Price renders an amount in tenge with thousands separators.
func Price(v float64) string {
	if v == 0 {
		return "-"
	}
	return humanize.Commaf(v) + " ₸"
}

// Truncate shortens s to n runes.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func optID(v int64) string {
	if v == 0 {
		return "-"
	}
	return id(v)
}

func or(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func byTime(a, b client.Timestamp) int {
	return a.Compare(b.Time)
}

func byFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func rating(v float64) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", v)
}
