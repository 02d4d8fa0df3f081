package handler // handler defines http handlers

import (
    "errors"  // errors provides the sentinel used in getUserID
    "strconv" // strconv converts ids for JSON map keys

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/avelesk/teletrack/internal/progress"   // progress holds the pure aggregation types
    "github.com/avelesk/teletrack/internal/repository" // repository holds data access layer
)

// getUserID extracts the user_id stored by the session middleware and
// converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get("user_id").(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// groupEpisodeStats folds flattened episode rows into per-series season
// groups ready for progress.Summarize.  Rows must arrive ordered by series
// then season (EpisodeStatsByUser guarantees this), so a season's episodes
// are always adjacent.
func groupEpisodeStats(stats []repository.EpisodeStat) map[uint64][]progress.Season {
    bySeries := make(map[uint64][]progress.Season)
    for _, st := range stats {
        seasons := bySeries[st.SeriesID]
        if n := len(seasons); n == 0 || seasons[n-1].Number != st.SeasonNumber {
            seasons = append(seasons, progress.Season{Number: st.SeasonNumber})
        }
        i := len(seasons) - 1
        seasons[i].Episodes = append(seasons[i].Episodes, progress.Episode{
            Number:  st.EpisodeNumber,
            Watched: st.Watched,
        })
        bySeries[st.SeriesID] = seasons
    }
    return bySeries
}

// idKey renders a numeric id as the string key JSON objects require.
func idKey(id uint64) string {
    return strconv.FormatUint(id, 10)
}
