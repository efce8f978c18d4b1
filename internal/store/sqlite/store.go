// Package sqlite stores builder drafts in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formbuilder/pkg/session"
)

const migration = `CREATE TABLE IF NOT EXISTS drafts (
	id             TEXT PRIMARY KEY,
	schema_id      TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	version        TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	schema_json    TEXT NOT NULL,
	ui_schema_json TEXT NOT NULL,
	updated_at     TEXT NOT NULL
)`

const columns = `id, schema_id, name, version, description, schema_json, ui_schema_json, updated_at`

// Store implements session.Store on the drafts table.
type Store struct {
	db *sql.DB
}

var _ session.Store = (*Store)(nil)

// Open connects to dsn and creates the drafts table when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "file:drafts.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get implements session.Store.
func (s *Store) Get(ctx context.Context, id string) (session.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM drafts WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return session.Record{}, session.ErrNotFound
	}
	if err != nil {
		return session.Record{}, fmt.Errorf("sqlite: get %s: %w", id, err)
	}
	return record, nil
}

// Put implements session.Store. Existing drafts are replaced.
func (s *Store) Put(ctx context.Context, record session.Record) error {
	if record.ID == "" {
		return errors.New("sqlite: draft id is required")
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO drafts (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_id = excluded.schema_id,
			name = excluded.name,
			version = excluded.version,
			description = excluded.description,
			schema_json = excluded.schema_json,
			ui_schema_json = excluded.ui_schema_json,
			updated_at = excluded.updated_at`,
		record.ID,
		record.SchemaID,
		record.Name,
		record.Version,
		record.Description,
		record.Schema,
		record.UISchema,
		record.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("sqlite: put %s: %w", record.ID, err)
	}
	return nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: delete %s: %w", id, err)
	}
	if n == 0 {
		return session.ErrNotFound
	}
	return nil
}

// List implements session.Store. Drafts are ordered by id.
func (s *Store) List(ctx context.Context) ([]session.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+columns+` FROM drafts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	defer rows.Close()

	var out []session.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (session.Record, error) {
	var (
		record  session.Record
		updated string
	)
	if err := row.Scan(
		&record.ID,
		&record.SchemaID,
		&record.Name,
		&record.Version,
		&record.Description,
		&record.Schema,
		&record.UISchema,
		&updated,
	); err != nil {
		return session.Record{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return session.Record{}, fmt.Errorf("updated_at %q: %w", updated, err)
	}
	record.UpdatedAt = at
	return record, nil
}
