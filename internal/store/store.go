// Package store handles SQLite persistence of journal documents.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Document is a schemaless record. Values follow encoding/json decoding rules.
type Document map[string]any

// Record is a document together with the identifier assigned at insertion.
type Record struct {
	ID  int64
	Doc Document
}

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store wraps SQLite access for document tables.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	created map[string]bool
}

// Open opens or creates the SQLite database and applies pragmas.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps writes serialized and pragmas in effect.
	db.SetMaxOpenConns(1)
	store := &Store{db: db, created: map[string]bool{}}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA synchronous = FULL;`,
		`PRAGMA busy_timeout = 5000;`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Table returns a handle for the named table. The table is created on first use.
func (s *Store) Table(name string) *Table {
	return &Table{store: s, name: name}
}

// DropTables removes every document table.
func (s *Store) DropTables(ctx context.Context) error {
	names, err := s.tableNames(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range names {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	s.created = map[string]bool{}
	return nil
}

func (s *Store) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) ensureTable(ctx context.Context, name string) error {
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created[name] {
		return nil
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc TEXT NOT NULL
	);`, name)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}
	s.created[name] = true
	return nil
}

// Table is a handle to one document table.
type Table struct {
	store *Store
	name  string
}

// Name returns the table name.
func (t *Table) Name() string {
	return t.name
}

// Get returns the document stored at id. The boolean is false when absent.
func (t *Table) Get(ctx context.Context, id int64) (Document, bool, error) {
	if err := t.store.ensureTable(ctx, t.name); err != nil {
		return nil, false, err
	}
	var raw string
	err := t.store.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, t.name), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	doc, err := unmarshalDocument(raw)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode %s/%d: %w", t.name, id, err)
	}
	return doc, true, nil
}

// Insert stores a new document and returns its identifier.
func (t *Table) Insert(ctx context.Context, doc Document) (int64, error) {
	if err := t.store.ensureTable(ctx, t.name); err != nil {
		return 0, err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return 0, err
	}
	res, err := t.store.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO %q (doc) VALUES (?)`, t.name), string(raw))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Upsert merges the provided fields into the document at id, creating it when absent.
func (t *Table) Upsert(ctx context.Context, doc Document, id int64) (err error) {
	if err := t.store.ensureTable(ctx, t.name); err != nil {
		return err
	}
	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	merged := Document{}
	var raw string
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc FROM %q WHERE id = ?`, t.name), id).Scan(&raw)
	exists := true
	switch {
	case errors.Is(err, sql.ErrNoRows):
		exists = false
		err = nil
	case err != nil:
		return err
	default:
		merged, err = unmarshalDocument(raw)
		if err != nil {
			return fmt.Errorf("failed to decode %s/%d: %w", t.name, id, err)
		}
	}
	for k, v := range doc {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	if exists {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`UPDATE %q SET doc = ? WHERE id = ?`, t.name), string(out), id)
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %q (id, doc) VALUES (?, ?)`, t.name), id, string(out))
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Search returns documents whose top-level field equals value, in insertion order.
func (t *Table) Search(ctx context.Context, field string, value any) ([]Record, error) {
	if err := t.store.ensureTable(ctx, t.name); err != nil {
		return nil, err
	}
	if !tableNamePattern.MatchString(field) {
		return nil, fmt.Errorf("invalid field name %q", field)
	}
	query := fmt.Sprintf(`SELECT id, doc FROM %q WHERE json_extract(doc, ?) = ? ORDER BY id ASC`, t.name)
	rows, err := t.store.db.QueryContext(ctx, query, "$."+field, sqlValue(value))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []Record
	for rows.Next() {
		var rec Record
		var raw string
		if err := rows.Scan(&rec.ID, &raw); err != nil {
			return nil, err
		}
		rec.Doc, err = unmarshalDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s/%d: %w", t.name, rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// json_extract yields 1/0 for JSON booleans.
func sqlValue(value any) any {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return int64(v)
	default:
		return v
	}
}

func unmarshalDocument(raw string) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
