// Package store persists delta tables, either as parquet files or in a SQLite database.
//
// Tables are stored with the fingerprint of the configuration that produced them
// (see transform.Fingerprint), so that a stale table can be detected before it is used to
// remap spans.
package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/pkg/errors"
)

// ErrUnknownFormat is returned when the format of a delta table can't be told from its file extension.
var ErrUnknownFormat = errors.New("unknown delta table format")

// Format of a stored delta table.
type Format int

const (
	Parquet Format = iota
	SQLiteDB
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case Parquet:
		return "parquet"
	case SQLiteDB:
		return "sqlite"
	}
	return "unknown"
}

// FormatOf returns the format of the delta table file, by its extension: ".parquet", or one of
// ".db", ".sqlite", ".sqlite3".
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return Parquet, nil
	case ".db", ".sqlite", ".sqlite3":
		return SQLiteDB, nil
	}
	return 0, errors.Wrapf(ErrUnknownFormat, "file %q, expected a .parquet, .db or .sqlite extension", path)
}

// Write the delta table to path, in the format given by its extension.
//
// A parquet file is replaced as a whole. In a SQLite database, only the rows of the documents in
// table and of the documents docIDs are replaced: docIDs should list every document that
// produced table, including those left without edits.
func Write(ctx context.Context, path string, table deltas.Table, fingerprint string, docIDs ...string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	if format == Parquet {
		return WriteParquet(path, table, fingerprint)
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	err = db.Save(ctx, table, fingerprint, docIDs...)
	if closeErr := db.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Read the delta table at path, in the format given by its extension. The rows of the given
// documents are returned, or all rows if no document is given.
func Read(ctx context.Context, path string, docIDs ...string) (deltas.Table, string, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, "", err
	}
	if format == Parquet {
		table, fingerprint, err := ReadParquet(path)
		if err != nil {
			return nil, "", err
		}
		return filterDocuments(table, docIDs), fingerprint, nil
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, "", err
	}
	defer db.closeAndLog()
	fingerprint, err := db.Fingerprint(ctx)
	if err != nil {
		return nil, "", err
	}
	table, err := db.Load(ctx, docIDs...)
	if err != nil {
		return nil, "", err
	}
	return table, fingerprint, nil
}

func filterDocuments(table deltas.Table, docIDs []string) deltas.Table {
	if len(docIDs) == 0 {
		return table
	}
	keep := make(map[string]bool, len(docIDs))
	for _, id := range docIDs {
		keep[id] = true
	}
	var filtered deltas.Table
	for _, row := range table {
		if keep[row.DocID] {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// record is the stored form of a deltas.Row.
type record struct {
	DocID string `parquet:"document_id,dict" db:"document_id"`
	Begin int64  `parquet:"begin" db:"begin"`
	End   int64  `parquet:"end" db:"end"`
	Delta int64  `parquet:"delta" db:"delta"`
}

func toRecords(table deltas.Table) []record {
	records := make([]record, len(table))
	for i, row := range table {
		records[i] = record{DocID: row.DocID, Begin: int64(row.Begin), End: int64(row.End), Delta: int64(row.Delta)}
	}
	return records
}

func fromRecords(records []record) deltas.Table {
	table := make(deltas.Table, len(records))
	for i, r := range records {
		table[i] = deltas.Row{DocID: r.DocID, Begin: int(r.Begin), End: int(r.End), Delta: int(r.Delta)}
	}
	return table
}
