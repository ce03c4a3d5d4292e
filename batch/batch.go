// Package batch remaps the positions of many records (token or entity spans, typically) at once,
// against the delta table of the rewrite of their documents.
//
// Records are grouped by a key (the document ID) and every declared position column is mapped
// through the deltas.Collection of its group with the column's own side. Records whose group has
// no edit keep their positions.
package batch

import (
	"slices"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/pkg/errors"
)

// ErrMissingColumn is returned (wrapped) when a position column is declared that the record type
// doesn't have.
var ErrMissingColumn = errors.New("missing column")

// Column declares one position column of records of type T, and the side used to snap it
// when it falls strictly inside an edited interval.
type Column[T any] struct {
	Name string
	Side deltas.Side

	// Field returns a pointer to the column's value in the record.
	Field func(record *T) *int
}

// Apply maps the position columns of records from pre-edit to post-edit coordinates.
//
// The returned slice is a copy: records is not modified.
func Apply[T any](records []T, index deltas.Index, group func(record *T) string, cols ...Column[T]) []T {
	return remap(records, index, group, cols, deltas.Collection.Apply)
}

// Reverse maps the position columns of records from post-edit back to pre-edit coordinates.
// It is the batch version of deltas.Collection.Unapply.
//
// The returned slice is a copy: records is not modified.
func Reverse[T any](records []T, index deltas.Index, group func(record *T) string, cols ...Column[T]) []T {
	return remap(records, index, group, cols, deltas.Collection.Unapply)
}

func remap[T any](records []T, index deltas.Index, group func(*T) string, cols []Column[T],
	mapFn func(deltas.Collection, int, deltas.Side) int) []T {
	out := slices.Clone(records)
	for i := range out {
		record := &out[i]
		c, found := index[group(record)]
		if !found || c.IsEmpty() {
			continue
		}
		for _, col := range cols {
			p := col.Field(record)
			*p = mapFn(c, *p, col.Side)
		}
	}
	return out
}

// ApplyTable groups the delta table by document and then calls Apply.
// It fails only if the rows of some document don't form a valid collection.
func ApplyTable[T any](records []T, table deltas.Table, group func(record *T) string, cols ...Column[T]) ([]T, error) {
	index, err := table.Group()
	if err != nil {
		return nil, err
	}
	return Apply(records, index, group, cols...), nil
}

// ReverseTable groups the delta table by document and then calls Reverse.
func ReverseTable[T any](records []T, table deltas.Table, group func(record *T) string, cols ...Column[T]) ([]T, error) {
	index, err := table.Group()
	if err != nil {
		return nil, err
	}
	return Reverse(records, index, group, cols...), nil
}
