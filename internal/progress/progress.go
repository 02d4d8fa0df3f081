// Package progress computes watch-progress summaries for a series.  It is a
// pure read-side reduction over episode rows already fetched from the
// database: no I/O, no writes, no side effects.
package progress

import "math"

// Position identifies an episode by its (season number, episode number) pair.
// Pairs are unique within a series by construction.
type Position struct {
    Season  int `json:"season"`
    Episode int `json:"episode"`
}

// Episode is the minimal watch-state row the aggregator consumes.
type Episode struct {
    Number  int
    Watched bool
}

// Season groups persisted episode rows under a season number.  Totals count
// these actual rows, not the season's declared episode count, so the summary
// tolerates drift between the declaration and what was materialized.
type Season struct {
    Number   int
    Episodes []Episode
}

// Summary is the computed progress for one series.  Last is nil when no
// episode has been watched yet.
type Summary struct {
    Percent         int       `json:"percent"`
    Last            *Position `json:"last"`
    WatchedEpisodes int       `json:"watchedEpisodes"`
    TotalEpisodes   int       `json:"totalEpisodes"`
}

// Summarize reduces a series' seasons to totals, a round-half-up completion
// percentage and the greatest watched (season, episode) position.  Episode
// order within a season does not matter.
func Summarize(seasons []Season) Summary {
    var total, watched int
    var last *Position
    for _, s := range seasons {
        for _, e := range s.Episodes {
            total++
            if !e.Watched {
                continue
            }
            watched++
            if last == nil || s.Number > last.Season ||
                (s.Number == last.Season && e.Number > last.Episode) {
                last = &Position{Season: s.Number, Episode: e.Number}
            }
        }
    }
    var percent int
    if total > 0 {
        percent = int(math.Round(float64(watched) / float64(total) * 100))
    }
    return Summary{
        Percent:         percent,
        Last:            last,
        WatchedEpisodes: watched,
        TotalEpisodes:   total,
    }
}

// InProgress reports whether the series still has something to watch: at
// least one persisted episode is unwatched.  A series with no episodes is
// vacuously not in progress, and a fully watched one is done.
func (s Summary) InProgress() bool {
    return s.TotalEpisodes > 0 && s.WatchedEpisodes < s.TotalEpisodes
}
