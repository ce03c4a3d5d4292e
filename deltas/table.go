package deltas

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
)

// Row is one edited interval of one document: the flattened, persistable form of a
// Collection. Begin and End are pre-edit positions, Delta is per interval (not cumulative).
type Row struct {
	DocID string `json:"doc_id"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Delta int    `json:"delta"`
}

// Table is a delta table: the rows of the collections of any number of documents.
type Table []Row

// Index maps a document ID to the Collection of its rewrite.
type Index map[string]Collection

// Flatten converts the collection of one document into table rows.
func Flatten(docID string, c Collection) Table {
	rows := make(Table, c.Len())
	for i := range rows {
		rows[i] = Row{DocID: docID, Begin: c.begins[i], End: c.ends[i], Delta: c.deltas[i]}
	}
	return rows
}

// Group rebuilds one Collection per document.
//
// Rows of a document don't need to be contiguous or sorted. A document whose intervals are
// malformed fails the whole grouping with an error wrapping ErrMalformedIntervals.
func (t Table) Group() (Index, error) {
	type columns struct{ begins, ends, deltas []int }
	byDoc := make(map[string]*columns)
	for _, row := range t {
		cols := byDoc[row.DocID]
		if cols == nil {
			cols = &columns{}
			byDoc[row.DocID] = cols
		}
		cols.begins = append(cols.begins, row.Begin)
		cols.ends = append(cols.ends, row.End)
		cols.deltas = append(cols.deltas, row.Delta)
	}
	idx := make(Index, len(byDoc))
	for docID, cols := range byDoc {
		c, err := build(cols.begins, cols.ends, cols.deltas)
		if err != nil {
			return nil, errors.WithMessagef(err, "document %q", docID)
		}
		idx[docID] = c
	}
	return idx, nil
}

// Sort sorts the table in place by (DocID, Begin, End). The sort is stable.
func (t Table) Sort() {
	slices.SortStableFunc(t, func(a, b Row) int {
		if c := cmp.Compare(a.DocID, b.DocID); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Begin, b.Begin); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
}

// Documents returns the distinct document IDs of the table, in order of first appearance.
func (t Table) Documents() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, row := range t {
		if !seen[row.DocID] {
			seen[row.DocID] = true
			ids = append(ids, row.DocID)
		}
	}
	return ids
}
