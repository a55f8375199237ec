// Package db persists finished journal entries in SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/jwulff/steno/journal/internal/journal"
)

const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		createdAt TEXT NOT NULL,
		displayDate TEXT NOT NULL,
		displayTime TEXT NOT NULL,
		moodLabel TEXT NOT NULL,
		moodColor TEXT NOT NULL,
		snippet TEXT NOT NULL,
		hasAudio INTEGER NOT NULL DEFAULT 0
	);
`

// Store is the append-only entry list. Newest entries come first.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "voice-journal", "journal.sqlite")
}

// Open opens (creating if needed) the database at path with WAL. An empty
// path means DefaultDBPath.
func Open(path string, log *zap.Logger) (*Store, error) {
	if path == "" {
		path = DefaultDBPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store, err := newStore(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func newStore(db *sql.DB, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, log: log.Named("store")}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAll returns every entry, newest first. It never fails: read errors are
// logged and an empty list is returned.
func (s *Store) LoadAll(ctx context.Context) []journal.Entry {
	entries, err := s.query(ctx)
	if err != nil {
		s.log.Error("load entries", zap.Error(err))
		return []journal.Entry{}
	}
	return entries
}

func (s *Store) query(ctx context.Context) ([]journal.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, createdAt, displayDate, displayTime, moodLabel, moodColor, snippet, hasAudio
		FROM entries
		ORDER BY seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []journal.Entry{}
	for rows.Next() {
		var e journal.Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &createdAt, &e.DisplayDate, &e.DisplayTime,
			&e.MoodLabel, &e.MoodColor, &e.Snippet, &e.HasAudio); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse createdAt of %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	return entries, nil
}

// Append stores entry ahead of all existing entries. The write is a single
// transaction, so readers see either the old list or the new one.
func (s *Store) Append(ctx context.Context, e journal.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	// createdAt keeps nanoseconds and the UTC offset. Zone names are not kept.
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entries (id, createdAt, displayDate, displayTime, moodLabel, moodColor, snippet, hasAudio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CreatedAt.Format(time.RFC3339Nano), e.DisplayDate, e.DisplayTime,
		e.MoodLabel, e.MoodColor, e.Snippet, e.HasAudio); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	s.log.Info("entry saved", zap.String("id", e.ID), zap.Int("snippet_len", len(e.Snippet)))
	return nil
}
