package store

import (
	"context"
	"database/sql"
	_ "embed"
	"slices"
	"strings"

	"github.com/gomlx/go-textdelta/deltas"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	_ "modernc.org/sqlite" // Registers the "sqlite" driver.
)

//go:embed schema.sql
var schema string

const fingerprintMetadataKey = "fingerprint"

// SQLite stores delta tables in a SQLite database, keyed by document.
type SQLite struct {
	db   *sqlx.DB
	path string
}

// OpenSQLite opens (or creates) the SQLite database at path and makes sure its schema exists.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open delta database %q", path)
	}
	// SQLite doesn't support concurrent writes.
	db.SetMaxOpenConns(1)
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				klog.Errorf("error closing delta database %q: %v", path, closeErr)
			}
			return nil, errors.Wrapf(err, "failed to create schema of delta database %q", path)
		}
	}
	klog.V(2).Infof("opened delta database %q", path)
	return &SQLite{db: db, path: path}, nil
}

// Close the database.
func (s *SQLite) Close() error {
	return errors.Wrapf(s.db.Close(), "closing delta database %q", s.path)
}

func (s *SQLite) closeAndLog() {
	if err := s.Close(); err != nil {
		klog.Errorf("%v", err)
	}
}

type sqlRecord struct {
	record
	Seq int64 `db:"seq"`
}

// Save replaces the rows of the documents docIDs and of every document in table, and records
// the fingerprint of the configuration that produced it. It all happens in one transaction.
//
// A document without edits has no row in table: list it in docIDs, or its old rows are kept.
// Other documents are left untouched.
func (s *SQLite) Save(ctx context.Context, table deltas.Table, fingerprint string, docIDs ...string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			klog.Warningf("error rolling back transaction: %v", rollbackErr)
		}
	}()

	replaced := documentSet(docIDs, table.Documents())
	for _, docID := range replaced {
		if _, err := tx.ExecContext(ctx, `DELETE FROM deltas WHERE document_id = ?`, docID); err != nil {
			return errors.Wrapf(err, "failed to delete old rows of document %q", docID)
		}
	}
	insert, err := tx.PrepareNamedContext(ctx,
		`INSERT INTO deltas (document_id, seq, "begin", "end", delta) VALUES (:document_id, :seq, :begin, :end, :delta)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	defer func() { _ = insert.Close() }()
	seqs := make(map[string]int64)
	for _, r := range toRecords(table) {
		row := sqlRecord{record: r, Seq: seqs[r.DocID]}
		seqs[r.DocID]++
		if _, err := insert.ExecContext(ctx, row); err != nil {
			return errors.Wrapf(err, "failed to insert row of document %q", r.DocID)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)`,
		fingerprintMetadataKey, fingerprint); err != nil {
		return errors.Wrap(err, "failed to save fingerprint")
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	klog.V(1).Infof("saved %d delta rows, replacing %d documents, to %q", len(table), len(replaced), s.path)
	return nil
}

// documentSet returns the sorted union of the document IDs.
func documentSet(lists ...[]string) []string {
	var ids []string
	for _, list := range lists {
		ids = append(ids, list...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

// Load returns the rows of the given documents, or of all documents if none is given, ordered
// by document and then in the order they were saved.
func (s *SQLite) Load(ctx context.Context, docIDs ...string) (deltas.Table, error) {
	query := `SELECT document_id, "begin", "end", delta FROM deltas`
	var args []any
	if len(docIDs) > 0 {
		var err error
		query, args, err = sqlx.In(query+` WHERE document_id IN (?)`, docIDs)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build query")
		}
		query = s.db.Rebind(query)
	}
	query += ` ORDER BY document_id, seq`
	var records []record
	if err := s.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, errors.Wrapf(err, "failed to load delta rows from %q", s.path)
	}
	return fromRecords(records), nil
}

// Documents returns the IDs of the documents with stored rows, sorted.
func (s *SQLite) Documents(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT document_id FROM deltas ORDER BY document_id`); err != nil {
		return nil, errors.Wrapf(err, "failed to list documents of %q", s.path)
	}
	return ids, nil
}

// Fingerprint returns the fingerprint saved with the last table, or "" if nothing was saved yet.
func (s *SQLite) Fingerprint(ctx context.Context) (string, error) {
	var fingerprint string
	err := s.db.GetContext(ctx, &fingerprint, `SELECT value FROM metadata WHERE key = ?`, fingerprintMetadataKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to read fingerprint from %q", s.path)
	}
	return fingerprint, nil
}
