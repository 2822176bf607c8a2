// Package store provides SQLite persistence for recent lists, settings,
// cached tag translations, and bookmark tags.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every method once Close has been called.
var ErrClosed = errors.New("store: closed")

// Store handles SQLite persistence.
// Thread-safety: all methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// Open creates a Store backed by the database at path, creating tables as
// needed. ":memory:" opens a private in-memory database that lives until
// Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent (
		kind TEXT NOT NULL,
		value TEXT NOT NULL,
		used INTEGER NOT NULL,
		PRIMARY KEY (kind, value)
	);
	CREATE INDEX IF NOT EXISTS idx_recent_used ON recent(kind, used DESC);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS translations (
		locale TEXT NOT NULL,
		tag TEXT NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (locale, tag)
	);

	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS bookmark_tags (
		id TEXT NOT NULL,
		tag TEXT NOT NULL,
		position INTEGER NOT NULL,
		PRIMARY KEY (id, tag)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Recent returns up to limit values of kind, most recently used first. A
// limit of zero or less returns everything.
func (s *Store) Recent(ctx context.Context, kind string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM recent WHERE kind = ? ORDER BY used DESC LIMIT ?`, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent %s: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// PushRecent moves value to the front of kind and drops anything beyond
// the newest limit entries.
func (s *Store) PushRecent(ctx context.Context, kind, value string, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(used), 0) + 1 FROM recent WHERE kind = ?`, kind).Scan(&next); err != nil {
		return fmt.Errorf("next recent slot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recent (kind, value, used) VALUES (?, ?, ?)
		ON CONFLICT(kind, value) DO UPDATE SET used = excluded.used`,
		kind, value, next); err != nil {
		return fmt.Errorf("push recent: %w", err)
	}
	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM recent WHERE kind = ? AND value NOT IN (
				SELECT value FROM recent WHERE kind = ? ORDER BY used DESC LIMIT ?
			)`, kind, kind, limit); err != nil {
			return fmt.Errorf("trim recent: %w", err)
		}
	}
	return tx.Commit()
}

// RemoveRecent deletes value from kind and reports whether it was present.
func (s *Store) RemoveRecent(ctx context.Context, kind, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM recent WHERE kind = ? AND value = ?`, kind, value)
	if err != nil {
		return false, fmt.Errorf("remove recent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Setting returns a stored setting.
func (s *Store) Setting(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return "", false, ErrClosed
	}
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, true, nil
}

// Settings returns every stored setting.
func (s *Store) Settings(ctx context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// SetSetting stores a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// Translations returns the cached labels for the tags in locale. Tags
// without a cached label are absent from the result.
func (s *Store) Translations(ctx context.Context, locale string, tags []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(tags))
	if len(tags) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(tags)+1)
	args = append(args, locale)
	for _, t := range tags {
		args = append(args, t)
	}
	query := `SELECT tag, label FROM translations WHERE locale = ? AND tag IN (` +
		placeholders(len(tags)) + `)`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query translations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag, label string
		if err := rows.Scan(&tag, &label); err != nil {
			return nil, fmt.Errorf("scan translation: %w", err)
		}
		out[tag] = label
	}
	return out, rows.Err()
}

// PutTranslations caches labels for locale.
func (s *Store) PutTranslations(ctx context.Context, locale string, labels map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if len(labels) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO translations (locale, tag, label) VALUES (?, ?, ?)
		ON CONFLICT(locale, tag) DO UPDATE SET label = excluded.label`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()
	for tag, label := range labels {
		if _, err := stmt.ExecContext(ctx, locale, tag, label); err != nil {
			return fmt.Errorf("put translation %s: %w", tag, err)
		}
	}
	return tx.Commit()
}

// BookmarkTags returns the tags stored for a bookmark in saved order, and
// whether the target is bookmarked at all.
func (s *Store) BookmarkTags(ctx context.Context, id string) ([]string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM bookmarks WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get bookmark %s: %w", id, err)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM bookmark_tags WHERE id = ? ORDER BY position`, id)
	if err != nil {
		return nil, false, fmt.Errorf("query bookmark tags: %w", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, false, fmt.Errorf("scan bookmark tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, true, rows.Err()
}

// SetBookmarkTags bookmarks id, if needed, and replaces its tags.
func (s *Store) SetBookmarkTags(ctx context.Context, id string, tags []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO bookmarks (id) VALUES (?)`, id); err != nil {
		return fmt.Errorf("bookmark %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM bookmark_tags WHERE id = ?`, id); err != nil {
		return fmt.Errorf("clear bookmark tags: %w", err)
	}
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO bookmark_tags (id, tag, position) VALUES (?, ?, ?)`,
			id, tag, i); err != nil {
			return fmt.Errorf("insert bookmark tag %s: %w", tag, err)
		}
	}
	return tx.Commit()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
