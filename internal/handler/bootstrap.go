package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelesk/teletrack/internal/progress"
	"github.com/avelesk/teletrack/internal/repository"
)

// BootstrapHandler serves the aggregated first-paint payloads: the full
// bootstrap snapshot and the smaller preload warm-up.
type BootstrapHandler struct {
	Series   *repository.SeriesRepo
	Seasons  *repository.SeasonRepo
	Episodes *repository.EpisodeRepo
}

func NewBootstrapHandler(series *repository.SeriesRepo, seasons *repository.SeasonRepo, episodes *repository.EpisodeRepo) *BootstrapHandler {
	if series == nil || seasons == nil || episodes == nil {
		panic("nil repository passed to NewBootstrapHandler")
	}
	return &BootstrapHandler{Series: series, Seasons: seasons, Episodes: episodes}
}

// Bootstrap handles GET /v1/bootstrap: everything the client needs to render
// its first screen in one response.  Season and episode maps are keyed by
// stringified ids because JSON object keys are strings.  Episodes are
// included only for each series' first season; deeper seasons load on
// demand.
func (h *BootstrapHandler) Bootstrap(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	series, err := h.Series.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seasons, err := h.Seasons.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	stats, err := h.Series.EpisodeStatsByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	seasonsBySeries := make(map[string][]seasonItem, len(series))
	firstSeasons := make([]uint64, 0, len(series))
	seen := make(map[uint64]bool)
	for _, se := range seasons {
		key := idKey(se.SeriesID)
		seasonsBySeries[key] = append(seasonsBySeries[key], seasonItem{
			ID:            se.ID,
			Number:        se.Number,
			EpisodesCount: se.EpisodesCount,
		})
		// ListByUser orders by (series, number) so the first season of each
		// series is the first one encountered.
		if !seen[se.SeriesID] {
			seen[se.SeriesID] = true
			firstSeasons = append(firstSeasons, se.ID)
		}
	}

	episodes, err := h.Episodes.ListBySeasons(ctx, firstSeasons)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	episodesBySeason := make(map[string][]episodeItem, len(firstSeasons))
	for _, e := range episodes {
		key := idKey(e.SeasonID)
		episodesBySeason[key] = append(episodesBySeason[key], episodeItem{
			ID:      e.ID,
			Number:  e.Number,
			Watched: e.Watched,
		})
	}

	grouped := groupEpisodeStats(stats)
	items := make([]seriesListItem, 0, len(series))
	for _, s := range series {
		summary := progress.Summarize(grouped[s.ID])
		items = append(items, seriesListItem{
			ID:            s.ID,
			Title:         s.Title,
			CreatedAt:     s.CreatedAt,
			SeasonsCount:  len(seasonsBySeries[idKey(s.ID)]),
			EpisodesCount: summary.TotalEpisodes,
			Progress:      summary,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"series":           items,
		"seasonsBySeries":  seasonsBySeries,
		"episodesBySeason": episodesBySeason,
	})
}

// Preload handles GET /v1/preload?limit=: seasons and episodes for the
// user's most recent series, used to warm the client cache right after the
// list renders.  limit defaults to 3 and is clamped to 1..10.
func (h *BootstrapHandler) Preload(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit := queryInt(c, "limit", 3, 1, 10)

	start := time.Now()
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	series, err := h.Series.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if len(series) > limit {
		series = series[:limit]
	}
	wanted := make(map[uint64]bool, len(series))
	for _, s := range series {
		wanted[s.ID] = true
	}

	seasons, err := h.Seasons.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seasonsBySeries := make(map[string][]seasonItem, len(series))
	var seasonIDs []uint64
	for _, se := range seasons {
		if !wanted[se.SeriesID] {
			continue
		}
		key := idKey(se.SeriesID)
		seasonsBySeries[key] = append(seasonsBySeries[key], seasonItem{
			ID:            se.ID,
			Number:        se.Number,
			EpisodesCount: se.EpisodesCount,
		})
		seasonIDs = append(seasonIDs, se.ID)
	}

	episodes, err := h.Episodes.ListBySeasons(ctx, seasonIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	episodesBySeason := make(map[string][]episodeItem, len(seasonIDs))
	for _, e := range episodes {
		key := idKey(e.SeasonID)
		episodesBySeason[key] = append(episodesBySeason[key], episodeItem{
			ID:      e.ID,
			Number:  e.Number,
			Watched: e.Watched,
		})
	}

	c.Response().Header().Set("Server-Timing",
		fmt.Sprintf("preload;dur=%.1f", float64(time.Since(start).Microseconds())/1000.0))

	return c.JSON(http.StatusOK, echo.Map{
		"seasonsBySeries":  seasonsBySeries,
		"episodesBySeason": episodesBySeason,
	})
}
