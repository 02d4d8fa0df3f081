package repository // repository defines data access for episodes

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
)

// Episode represents one episode slot of a season.  Watched is the only
// mutable field; episodes are created in batches when their season is
// created and removed only by cascading season/series deletion.
type Episode struct {
	ID       uint64
	SeasonID uint64
	Number   int
	Watched  bool
}

// ErrEpisodeNotFound is returned when an episode lookup yields no rows.
var ErrEpisodeNotFound = errors.New("episode not found")

// EpisodeRepo provides methods to work with episodes in the database.
type EpisodeRepo struct {
	db *sql.DB
}

// NewEpisodeRepo constructs an EpisodeRepo with the given DB handle.
func NewEpisodeRepo(db *sql.DB) *EpisodeRepo {
	return &EpisodeRepo{db: db}
}

// createEpisodesTx materializes episodes 1..n for a season as unwatched rows
// in a single multi-values statement, inside the caller's transaction.
func createEpisodesTx(ctx context.Context, tx *sql.Tx, seasonID uint64, n int) error {
	if n <= 0 {
		return nil
	}
	query := `INSERT INTO episodes (season_id, number, watched) VALUES `
	args := make([]interface{}, 0, n*2)
	for i := 1; i <= n; i++ {
		if i > 1 {
			query += ","
		}
		query += "(?, ?, 0)"
		args = append(args, seasonID, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Toggle flips an episode's watched flag to its logical negation and returns
// the new state.  The joins scope the update to the owner, so an episode
// under someone else's series is indistinguishable from a missing one.  The
// UPDATE always changes a resolvable row, so zero affected rows can only
// mean the id does not resolve for this user.
func (r *EpisodeRepo) Toggle(ctx context.Context, id, userID uint64) (Episode, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE episodes e
		JOIN seasons se ON se.id = e.season_id
		JOIN series s  ON s.id = se.series_id
		SET e.watched = NOT e.watched
		WHERE e.id = ? AND s.user_id = ?`, id, userID)
	if err != nil {
		return Episode{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Episode{}, ErrEpisodeNotFound
	}
	var e Episode
	err = r.db.QueryRowContext(ctx,
		`SELECT id, season_id, number, watched FROM episodes WHERE id = ?`, id).
		Scan(&e.ID, &e.SeasonID, &e.Number, &e.Watched)
	return e, err
}

// ListBySeason retrieves all episodes of a season ordered by number.
func (r *EpisodeRepo) ListBySeason(ctx context.Context, seasonID uint64) ([]Episode, error) {
	const q = `SELECT id, season_id, number, watched
	           FROM episodes
	           WHERE season_id = ?
	           ORDER BY number`
	rows, err := r.db.QueryContext(ctx, q, seasonID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.SeasonID, &e.Number, &e.Watched); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListBySeasons retrieves the episodes of several seasons in one query,
// ordered so that episodes of one season are adjacent.  An empty id list
// yields an empty result without touching the database.
func (r *EpisodeRepo) ListBySeasons(ctx context.Context, seasonIDs []uint64) ([]Episode, error) {
	if len(seasonIDs) == 0 {
		return nil, nil
	}
	query := `SELECT id, season_id, number, watched FROM episodes WHERE season_id IN (`
	args := make([]interface{}, 0, len(seasonIDs))
	for i, id := range seasonIDs {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, id)
	}
	query += `) ORDER BY season_id, number`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Episode
	for rows.Next() {
		var e Episode
		if err := rows.Scan(&e.ID, &e.SeasonID, &e.Number, &e.Watched); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
