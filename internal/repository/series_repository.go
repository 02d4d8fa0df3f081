// Package repository contains data access logic for the series domain.  This
// file defines the Series model and its repository.  A Series is a trackable
// unit of episodic content owned by exactly one user; ownership is fixed at
// creation and every query here is scoped to the owning user so rows never
// leak across accounts.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"       // errors for sentinel definitions
	"time"
)

// Series mirrors the 'series' table.  Source and SourceID record catalog
// provenance for imported rows; both are NULL for manually created series.
// At most one row may exist per (user_id, source, source_id) when provenance
// is present — the unique key is the dedup arbiter for concurrent imports.
type Series struct {
	ID        uint64
	UserID    uint64
	Title     string
	Kind      string // "series" | "movie"
	Year      *int
	PosterURL *string
	Source    *string
	SourceID  *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SeasonSpec describes one season to materialize when a series is created:
// its number and how many episode rows to create for it.
type SeasonSpec struct {
	Number        int
	EpisodesCount int
}

// EpisodeStat is one persisted episode row flattened with its series id and
// season number.  The progress aggregator consumes these.
type EpisodeStat struct {
	SeriesID      uint64
	SeasonNumber  int
	EpisodeNumber int
	Watched       bool
}

// ErrSeriesNotFound indicates that a series was not located for the caller.
// Rows owned by other users are reported as not found as well, so ids do
// not leak across accounts.
var ErrSeriesNotFound = errors.New("series not found")

// SeriesRepo manages persistence for series.
type SeriesRepo struct {
	db *sql.DB
}

// NewSeriesRepo constructs a SeriesRepo with the given DB handle.
func NewSeriesRepo(db *sql.DB) *SeriesRepo {
	return &SeriesRepo{db: db}
}

const seriesCols = `id, user_id, title, kind, year, poster_url, source, source_id, created_at, updated_at`

func scanSeries(row interface{ Scan(...interface{}) error }, s *Series) error {
	return row.Scan(&s.ID, &s.UserID, &s.Title, &s.Kind, &s.Year, &s.PosterURL,
		&s.Source, &s.SourceID, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a series together with its seasons and their episode rows
// in a single transaction: either the whole tree commits or none of it does,
// so a failure partway through leaves no orphaned seasons or episodes.
// When the series carries provenance and the (user, source, source_id)
// unique key fires, ErrDuplicate is returned and nothing is persisted.
// On success the generated ID and timestamps are populated on s.
func (r *SeriesRepo) Create(ctx context.Context, s *Series, seasons []SeasonSpec) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	const q = `INSERT INTO series (user_id, title, kind, year, poster_url, source, source_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.UserID, s.Title, s.Kind, s.Year, s.PosterURL, s.Source, s.SourceID)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)

	for _, spec := range seasons {
		var seasonID uint64
		seasonID, err = createSeasonTx(ctx, tx, s.ID, spec.Number, spec.EpisodesCount)
		if err != nil {
			return err
		}
		if err = createEpisodesTx(ctx, tx, seasonID, spec.EpisodesCount); err != nil {
			return err
		}
	}

	// Fetch the freshly inserted row to populate DB-default timestamps.
	const sel = `SELECT ` + seriesCols + ` FROM series WHERE id = ?`
	err = scanSeries(tx.QueryRowContext(ctx, sel, s.ID), s)
	return err
}

// GetByIDAndUser retrieves a series by id while enforcing ownership.
func (r *SeriesRepo) GetByIDAndUser(ctx context.Context, id, userID uint64) (*Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series WHERE id = ? AND user_id = ?`
	var s Series
	if err := scanSeries(r.db.QueryRowContext(ctx, q, id, userID), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindBySource looks up a series by its catalog provenance for the given
// user.  Returns ErrSeriesNotFound when the title was never imported.
func (r *SeriesRepo) FindBySource(ctx context.Context, userID uint64, source string, sourceID int64) (*Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series
	           WHERE user_id = ? AND source = ? AND source_id = ? LIMIT 1`
	var s Series
	if err := scanSeries(r.db.QueryRowContext(ctx, q, userID, source, sourceID), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByUser returns all series owned by a user, newest first.  When the
// user has none it returns an empty slice and nil error.
func (r *SeriesRepo) ListByUser(ctx context.Context, userID uint64) ([]Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Series
	for rows.Next() {
		var s Series
		if err := scanSeries(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SearchByTitle returns up to limit series of the user whose title contains
// the query, case-insensitively (utf8mb4 collation handles the folding).
func (r *SeriesRepo) SearchByTitle(ctx context.Context, userID uint64, query string, limit int) ([]Series, error) {
	const q = `SELECT ` + seriesCols + ` FROM series
	           WHERE user_id = ? AND title LIKE CONCAT('%', ?, '%')
	           ORDER BY created_at DESC, id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []Series
	for rows.Next() {
		var s Series
		if err := scanSeries(rows, &s); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByIDAndUser removes a series and all of its seasons and episodes
// inside one transaction so no orphaned rows survive a partial failure.
// ErrSeriesNotFound is returned when the id does not resolve to a row owned
// by the user.
func (r *SeriesRepo) DeleteByIDAndUser(ctx context.Context, id, userID uint64) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM series WHERE id = ? AND user_id = ? LIMIT 1`, id, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSeriesNotFound
		}
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`DELETE e FROM episodes e JOIN seasons se ON se.id = e.season_id WHERE se.series_id = ?`, id); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM seasons WHERE series_id = ?`, id); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, id)
	return err
}

// CountInProgress counts series of the user that still have at least one
// unwatched episode.  Fully watched series and series with no episode rows
// at all are excluded by the EXISTS predicate.
func (r *SeriesRepo) CountInProgress(ctx context.Context, userID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM series s
	           WHERE s.user_id = ?
	             AND EXISTS (
	                 SELECT 1 FROM episodes e
	                 JOIN seasons se ON se.id = e.season_id
	                 WHERE se.series_id = s.id AND e.watched = 0)`
	var n int
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&n)
	return n, err
}

// EpisodeStatsByUser returns every persisted episode row of the user's
// series flattened with series id and season number, ordered so that rows
// of one series (and one season within it) are adjacent.  This is the input
// to the progress aggregation.
func (r *SeriesRepo) EpisodeStatsByUser(ctx context.Context, userID uint64) ([]EpisodeStat, error) {
	const q = `SELECT se.series_id, se.number, e.number, e.watched
	           FROM episodes e
	           JOIN seasons se ON se.id = e.season_id
	           JOIN series s ON s.id = se.series_id
	           WHERE s.user_id = ?
	           ORDER BY se.series_id, se.number, e.number`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []EpisodeStat
	for rows.Next() {
		var st EpisodeStat
		if err := rows.Scan(&st.SeriesID, &st.SeasonNumber, &st.EpisodeNumber, &st.Watched); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
