package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	msqlite "modernc.org/sqlite" // pure-Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dhruvilrpatil/urlshortner/internal/core"
)

// Store implements core.Store and rate.Counter backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite DB at path and applies migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers; ":memory:" also depends on it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying DB.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

const linkColumns = `id, code, original_url, created_at, expires_at, click_count`

// FindByURL returns the newest record for originalURL (expired included).
func (s *Store) FindByURL(ctx context.Context, originalURL string) (*core.ShortLink, error) {
	const q = `
SELECT ` + linkColumns + `
FROM links
WHERE original_url = ?
ORDER BY created_at DESC, id DESC
LIMIT 1;`
	return scanLink(s.db.QueryRowContext(ctx, q, originalURL))
}

// FindByCode returns the record for code (expired included).
func (s *Store) FindByCode(ctx context.Context, code string) (*core.ShortLink, error) {
	const q = `
SELECT ` + linkColumns + `
FROM links
WHERE code = ?
LIMIT 1;`
	return scanLink(s.db.QueryRowContext(ctx, q, code))
}

// InsertIfAbsent inserts l and fills in its ID. The UNIQUE constraint on
// code decides races; a violation is reported as (false, nil).
func (s *Store) InsertIfAbsent(ctx context.Context, l *core.ShortLink) (bool, error) {
	const q = `
INSERT INTO links(code, original_url, created_at, expires_at, click_count)
VALUES (?, ?, ?, ?, 0);`
	res, err := s.db.ExecContext(ctx, q, l.Code, l.OriginalURL, l.CreatedAt.Unix(), l.ExpiresAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	if id, err := res.LastInsertId(); err == nil {
		l.ID = id
	}
	return true, nil
}

// DeleteExpired deletes code only if it expired before now, so a concurrent
// resolver can never remove a live record.
func (s *Store) DeleteExpired(ctx context.Context, code string, now time.Time) error {
	const q = `DELETE FROM links WHERE code = ? AND expires_at < ?;`
	_, err := s.db.ExecContext(ctx, q, code, now.Unix())
	return err
}

// IncrementClicks increases the click counter for code.
// If the code doesn't exist, return ErrNotFound so the caller can log it.
func (s *Store) IncrementClicks(ctx context.Context, code string) error {
	const q = `UPDATE links SET click_count = click_count + 1 WHERE code = ?;`
	res, err := s.db.ExecContext(ctx, q, code)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanLink(row *sql.Row) (*core.ShortLink, error) {
	var (
		rec              core.ShortLink
		created, expires int64
	)
	if err := row.Scan(&rec.ID, &rec.Code, &rec.OriginalURL, &created, &expires, &rec.ClickCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	rec.CreatedAt = time.Unix(created, 0).UTC()
	rec.ExpiresAt = time.Unix(expires, 0).UTC()
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

// Compile-time check: *Store implements core.Store.
var _ core.Store = (*Store)(nil)
