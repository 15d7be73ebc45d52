// Package sqliterepo is the local-persistence Repository adapter, backed
// by modernc.org/sqlite's pure-Go database/sql driver. Schema:
//
//	CREATE TABLE shortlinks (
//	  slug         TEXT PRIMARY KEY,
//	  original_url TEXT NOT NULL,
//	  created_at   TEXT NOT NULL,
//	  created_by   TEXT NOT NULL
//	);
//	CREATE TABLE counters (
//	  name  TEXT PRIMARY KEY,
//	  value INTEGER NOT NULL
//	);
//	CREATE INDEX idx_shortlinks_created_at ON shortlinks(created_at DESC);
package sqliterepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sundayezeilo/urlshortener/internal/domain"
	"github.com/sundayezeilo/urlshortener/internal/errx"
)

const schema = `
CREATE TABLE IF NOT EXISTS shortlinks (
  slug         TEXT PRIMARY KEY,
  original_url TEXT NOT NULL,
  created_at   TEXT NOT NULL,
  created_by   TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
  name  TEXT PRIMARY KEY,
  value INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shortlinks_created_at ON shortlinks(created_at DESC);
`

// Repository implements repo.Repository over a SQLite database file.
type Repository struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and applies
// the schema. The caller owns the returned *Repository's lifetime and
// should call Close on shutdown.
func Open(path string) (*Repository, error) {
	const op = "sqliterepo.Open"

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	db.SetMaxOpenConns(1) // one writer; modernc.org/sqlite serializes the rest

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errx.E(op, errx.Unavailable, err)
	}

	return &Repository{db: db}, nil
}

// Close releases the underlying database handle.
func (r *Repository) Close() error { return r.db.Close() }

// Get performs a point lookup by slug.
func (r *Repository) Get(ctx context.Context, slug domain.Slug) (*domain.ShortLink, error) {
	const op = "sqliterepo.Get"

	row := r.db.QueryRowContext(ctx,
		`SELECT slug, original_url, created_at, created_by FROM shortlinks WHERE slug = ?`,
		slug.String())

	link, err := scanShortLink(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return &link, nil
}

// Put inserts a new record, mapping a unique-constraint violation to
// Conflict.
func (r *Repository) Put(ctx context.Context, link domain.ShortLink) error {
	const op = "sqliterepo.Put"

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shortlinks (slug, original_url, created_at, created_by) VALUES (?, ?, ?, ?)`,
		link.Slug.String(), link.OriginalURL, link.CreatedAt.UTC().Format(time.RFC3339), link.CreatedBy.String())
	if err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

// List returns up to limit records ordered by created_at descending; the
// service layer still imposes the final (created_at, slug) tie-break.
func (r *Repository) List(ctx context.Context, limit int) ([]domain.ShortLink, error) {
	const op = "sqliterepo.List"

	rows, err := r.db.QueryContext(ctx,
		`SELECT slug, original_url, created_at, created_by FROM shortlinks ORDER BY created_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	defer rows.Close()

	links := make([]domain.ShortLink, 0, limit)
	for rows.Next() {
		link, err := scanShortLink(rows)
		if err != nil {
			return nil, errx.E(op, errx.Unavailable, err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.E(op, errx.Unavailable, err)
	}
	return links, nil
}

// IncrementCounter atomically increments the named counter inside a
// transaction, relying on SQLite's write lock for serialization.
func (r *Repository) IncrementCounter(ctx context.Context, name string) (uint64, error) {
	const op = "sqliterepo.IncrementCounter"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO counters (name, value) VALUES (?, 0)`, name); err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE counters SET value = value + 1 WHERE name = ?`, name); err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}

	var value uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM counters WHERE name = ?`, name).Scan(&value); err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.E(op, errx.Unavailable, err)
	}
	return value, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShortLink(row rowScanner) (domain.ShortLink, error) {
	var slugStr, originalURL, createdAtStr, createdBy string
	if err := row.Scan(&slugStr, &originalURL, &createdAtStr, &createdBy); err != nil {
		return domain.ShortLink{}, err
	}

	slug, err := domain.NewSlug(slugStr)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored slug %q failed validation: %w", slugStr, err)
	}
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored created_at %q unparsable: %w", createdAtStr, err)
	}
	email, err := domain.NewUserEmail(createdBy)
	if err != nil {
		return domain.ShortLink{}, fmt.Errorf("stored created_by %q failed validation: %w", createdBy, err)
	}

	return domain.ShortLink{
		Slug:        slug,
		OriginalURL: originalURL,
		CreatedAt:   createdAt,
		CreatedBy:   email,
	}, nil
}

func mapRepoError(op string, err error) error {
	if isUniqueViolation(err) {
		return errx.E(op, errx.Conflict, err)
	}
	return errx.E(op, errx.Unavailable, err)
}

// isUniqueViolation detects modernc.org/sqlite's UNIQUE constraint error,
// which carries no typed sentinel, only a message substring.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
