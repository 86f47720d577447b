package commands

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/barlyqqyzmet/admin/internal/table"
	"github.com/barlyqqyzmet/admin/internal/views"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

// renderTable writes an aligned table with a rule under the header.
func renderTable(w io.Writer, headers []string, rows [][]string) {
	t := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == lgtable.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printFields writes label/value pairs, one per line.
func printFields(w io.Writer, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	for _, f := range fields {
		fmt.Fprintf(w, "  %s  %s\n", mutedStyle.Render(fmt.Sprintf("%-*s", width, f[0])), f[1])
	}
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, okStyle.Render("  "+fmt.Sprintf(format, args...)))
}

// listFlags are shared by every list command.
type listFlags struct {
	search string
	sort   string
	desc   bool
	offset int
	limit  int
}

func (f *listFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "case-insensitive search")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort key")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "skip this many rows")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "rows per page (default from config)")
}

func (f *listFlags) query(defaultLimit int) table.Query {
	q := table.Query{Search: f.search, Sort: f.sort, Desc: f.desc, Offset: f.offset, Limit: f.limit}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	return q
}

// printList filters, sorts and pages items through the view and prints them.
func printList[T any](cmd *cobra.Command, a *app, v views.View[T], items []T, f *listFlags) error {
	q := f.query(a.cfg.PageSize)
	if keys := v.Spec.SortKeys(); q.Sort != "" && !slices.Contains(keys, q.Sort) {
		return fmt.Errorf("unknown sort key %q for %s (valid: %s)", q.Sort, v.Name, strings.Join(keys, ", "))
	}
	page := table.Apply(items, q, v.Spec)

	out := cmd.OutOrStdout()
	if a.jsonOut {
		return printJSON(out, page.Items)
	}
	if len(page.Items) == 0 {
		fmt.Fprintln(out, "  Nothing found.")
		if page.Total > 0 {
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("  offset %d is past the last of %d rows", page.Offset, page.Total)))
		}
		return nil
	}
	renderTable(out, v.Headers(), v.Rows(page.Items))
	footer := fmt.Sprintf("  %d-%d of %d", page.From(), page.To(), page.Total)
	if page.HasNext {
		footer += fmt.Sprintf("  (next: --offset %d)", page.NextOffset)
	}
	fmt.Fprintln(out, mutedStyle.Render(footer))
	return nil
}

// confirm asks a yes/no question on the command's input unless yes is set.
func confirm(cmd *cobra.Command, yes bool, prompt string) bool {
	if yes {
		return true
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %s [y/N] ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

var errAborted = errors.New("aborted")
