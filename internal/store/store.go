// Package store keeps tracked series and their last seen chapter in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

var ErrNotTracked = errors.New("series is not tracked")

// Store wraps the sql.DB connection.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: create tables: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tracked (
			series_url   TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			site         TEXT NOT NULL,
			chapter_url  TEXT NOT NULL,
			chapter_name TEXT NOT NULL DEFAULT '',
			added_at     TIMESTAMP NOT NULL,
			last_checked TIMESTAMP,
			updated_at   TIMESTAMP
		);
	`)
	return err
}

// Series is one tracked series with its baseline chapter.
type Series struct {
	URL         string
	Name        string
	Site        string
	ChapterURL  string
	ChapterName string
	AddedAt     time.Time
	LastChecked time.Time
	UpdatedAt   time.Time
}

func (s Series) LastChapter() providers.LastChapter {
	return providers.LastChapter{URL: s.URL, ChapterURL: s.ChapterURL, Name: s.Name}
}
