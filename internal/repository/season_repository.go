package repository // repository defines data access for seasons

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
)

// Season represents one season of a series.  Number is positive and unique
// within the series; EpisodesCount is the declared episode count the season
// was created (or last reset) with.
type Season struct {
	ID            uint64
	SeriesID      uint64
	Number        int
	EpisodesCount int
}

// ErrSeasonNotFound is returned when a season lookup yields no rows.
var ErrSeasonNotFound = errors.New("season not found")

// SeasonRepo provides methods to work with seasons in the database.
type SeasonRepo struct {
	db *sql.DB
}

// NewSeasonRepo constructs a SeasonRepo with the given DB handle.
func NewSeasonRepo(db *sql.DB) *SeasonRepo {
	return &SeasonRepo{db: db}
}

// createSeasonTx inserts one season row inside the caller's transaction and
// returns the generated id.  Episode materialization is a separate step so
// that series creation and season creation share the same building blocks.
func createSeasonTx(ctx context.Context, tx *sql.Tx, seriesID uint64, number, episodesCount int) (uint64, error) {
	const q = `INSERT INTO seasons (series_id, number, episodes_count) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, seriesID, number, episodesCount)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// CreateNext appends a season with the next sequential number to a series
// and materializes its episode rows, all in one transaction.  The unique
// (series_id, number) key turns a concurrent append into ErrDuplicate.
func (r *SeasonRepo) CreateNext(ctx context.Context, seriesID uint64, episodesCount int) (s *Season, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM seasons WHERE series_id = ?`, seriesID).Scan(&next)
	if err != nil {
		return nil, err
	}

	var id uint64
	id, err = createSeasonTx(ctx, tx, seriesID, next, episodesCount)
	if err != nil {
		if isDuplicateKey(err) {
			err = ErrDuplicate
		}
		return nil, err
	}
	if err = createEpisodesTx(ctx, tx, id, episodesCount); err != nil {
		return nil, err
	}
	return &Season{ID: id, SeriesID: seriesID, Number: next, EpisodesCount: episodesCount}, nil
}

// Reset deletes every episode of a season and materializes a fresh unwatched
// set from the season's declared episodes_count.  Delete and re-create run
// in one transaction so the season is never observed half-populated.
// Returns the number of episodes created.
func (r *SeasonRepo) Reset(ctx context.Context, seasonID uint64) (n int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = tx.QueryRowContext(ctx,
		`SELECT episodes_count FROM seasons WHERE id = ?`, seasonID).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrSeasonNotFound
		}
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM episodes WHERE season_id = ?`, seasonID); err != nil {
		return 0, err
	}
	err = createEpisodesTx(ctx, tx, seasonID, n)
	return n, err
}

// GetByID retrieves a single season by id.
func (r *SeasonRepo) GetByID(ctx context.Context, id uint64) (*Season, error) {
	var s Season
	err := r.db.QueryRowContext(ctx,
		`SELECT id, series_id, number, episodes_count FROM seasons WHERE id = ?`, id).
		Scan(&s.ID, &s.SeriesID, &s.Number, &s.EpisodesCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSeasonNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListBySeries retrieves all seasons of a series ordered by number.
func (r *SeasonRepo) ListBySeries(ctx context.Context, seriesID uint64) ([]Season, error) {
	const q = `SELECT id, series_id, number, episodes_count
	           FROM seasons
	           WHERE series_id = ?
	           ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, seriesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Season
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.SeriesID, &s.Number, &s.EpisodesCount); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListByUser retrieves all seasons across a user's series, ordered so that
// seasons of one series are adjacent and ascending by number.  Used by the
// list and warm-up read models to group seasons per series in one query.
func (r *SeasonRepo) ListByUser(ctx context.Context, userID uint64) ([]Season, error) {
	const q = `SELECT se.id, se.series_id, se.number, se.episodes_count
	           FROM seasons se
	           JOIN series s ON s.id = se.series_id
	           WHERE s.user_id = ?
	           ORDER BY se.series_id, se.number`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Season
	for rows.Next() {
		var s Season
		if err := rows.Scan(&s.ID, &s.SeriesID, &s.Number, &s.EpisodesCount); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
