package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/go-textdelta/deltas"
	"github.com/gomlx/go-textdelta/store"
)

// InspectCmd prints a delta table.
type InspectCmd struct {
	Deltas string   `required:"" help:"Delta table (.parquet, .db or .sqlite)." type:"existingfile"`
	Doc    []string `help:"Only print the rows of these documents."`
	Limit  int      `default:"100" help:"Maximum number of rows printed, 0 for all."`
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// Run the command.
func (c *InspectCmd) Run(kctx *kong.Context, ctx context.Context) error {
	rows, fingerprint, err := store.Read(ctx, c.Deltas, c.Doc...)
	if err != nil {
		return err
	}
	index, err := rows.Group()
	if err != nil {
		return err
	}
	w := kctx.Stdout
	if fingerprint == "" {
		fingerprint = "(none)"
	}
	_, _ = fmt.Fprintf(w, "Fingerprint: %s\n", fingerprint)
	_, _ = fmt.Fprintf(w, "Documents:   %d\n", len(index))
	_, _ = fmt.Fprintf(w, "Intervals:   %d\n", len(rows))
	_, _ = fmt.Fprintln(w, renderTable(rows, index, c.Limit))
	return nil
}

// renderTable renders the rows, with the cumulative delta (the shift of the text following each
// interval) of their document.
func renderTable(rows deltas.Table, index deltas.Index, limit int) string {
	sorted := append(deltas.Table(nil), rows...)
	sorted.Sort()
	var cumulative []int
	var lastDoc string
	var next int
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("document_id", "begin", "end", "delta", "shift").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for i, row := range sorted {
		if limit > 0 && i >= limit {
			t.Row("...", "", "", "", "")
			break
		}
		if i == 0 || row.DocID != lastDoc {
			cumulative = index[row.DocID].Absolute()
			lastDoc, next = row.DocID, 0
		}
		t.Row(row.DocID, strconv.Itoa(row.Begin), strconv.Itoa(row.End),
			fmt.Sprintf("%+d", row.Delta), fmt.Sprintf("%+d", cumulative[next]))
		next++
	}
	return t.String()
}
