package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

const seriesColumns = "series_url, name, site, chapter_url, chapter_name, added_at, last_checked, updated_at"

// Track adds a series or replaces its baseline when it is already tracked.
func (s *Store) Track(ctx context.Context, ser Series) error {
	if ser.URL == "" {
		return errors.New("store: series url is required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked (series_url, name, site, chapter_url, chapter_name, added_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_url) DO UPDATE SET
			name = excluded.name,
			site = excluded.site,
			chapter_url = excluded.chapter_url,
			chapter_name = excluded.chapter_name`,
		ser.URL, ser.Name, ser.Site, ser.ChapterURL, ser.ChapterName, time.Now().UTC())

	return err
}

func (s *Store) Untrack(ctx context.Context, seriesURL string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tracked WHERE series_url = ?", seriesURL)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", seriesURL, ErrNotTracked)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, seriesURL string) (Series, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+seriesColumns+" FROM tracked WHERE series_url = ?", seriesURL)

	ser, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Series{}, fmt.Errorf("%s: %w", seriesURL, ErrNotTracked)
	}

	return ser, err
}

// List returns tracked series in the order they were added.
func (s *Store) List(ctx context.Context) ([]Series, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+seriesColumns+" FROM tracked ORDER BY added_at, rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Series
	for rows.Next() {
		ser, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ser)
	}

	return out, rows.Err()
}

// Baseline returns the last seen chapter of every tracked series.
func (s *Store) Baseline(ctx context.Context) ([]providers.LastChapter, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]providers.LastChapter, 0, len(list))
	for _, ser := range list {
		out = append(out, ser.LastChapter())
	}

	return out, nil
}

// Advance moves the baseline of a series to a newer chapter.
func (s *Store) Advance(ctx context.Context, seriesURL, chapterURL, chapterName string) error {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE tracked SET chapter_url = ?, chapter_name = ?, updated_at = ?, last_checked = ?
		WHERE series_url = ?`,
		chapterURL, chapterName, now, now, seriesURL)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", seriesURL, ErrNotTracked)
	}

	return nil
}

// MarkChecked stamps the given series with the time of the last check.
func (s *Store) MarkChecked(ctx context.Context, seriesURLs []string) error {
	if len(seriesURLs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "UPDATE tracked SET last_checked = ? WHERE series_url = ?")
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, u := range seriesURLs {
		if _, err := stmt.ExecContext(ctx, now, u); err != nil {
			return err
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSeries(sc scanner) (Series, error) {
	var (
		ser         Series
		lastChecked sql.NullTime
		updatedAt   sql.NullTime
	)

	err := sc.Scan(&ser.URL, &ser.Name, &ser.Site, &ser.ChapterURL, &ser.ChapterName,
		&ser.AddedAt, &lastChecked, &updatedAt)
	if err != nil {
		return Series{}, err
	}

	ser.LastChecked = lastChecked.Time
	ser.UpdatedAt = updatedAt.Time

	return ser, nil
}
