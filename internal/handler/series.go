// Package handler defines HTTP handlers for the authenticated series
// endpoints: the progress-annotated collection listing, manual creation,
// lookup, search and cascading deletion.
package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelesk/teletrack/internal/progress"
	"github.com/avelesk/teletrack/internal/repository"
)

// SeriesHandler bundles repositories for series operations.
type SeriesHandler struct {
	Series  *repository.SeriesRepo
	Seasons *repository.SeasonRepo
}

func NewSeriesHandler(series *repository.SeriesRepo, seasons *repository.SeasonRepo) *SeriesHandler {
	if series == nil || seasons == nil {
		panic("nil repository passed to NewSeriesHandler")
	}
	return &SeriesHandler{Series: series, Seasons: seasons}
}

// ----- DTOs -----

type seasonSpecReq struct {
	Number        int `json:"number"`
	EpisodesCount int `json:"episodesCount"`
}

type createSeriesReq struct {
	Title   string          `json:"title"`
	Seasons []seasonSpecReq `json:"seasons"`
}

type seriesListItem struct {
	ID            uint64           `json:"id"`
	Title         string           `json:"title"`
	CreatedAt     time.Time        `json:"createdAt"`
	SeasonsCount  int              `json:"seasonsCount"`
	EpisodesCount int              `json:"episodesCount"`
	Progress      progress.Summary `json:"progress"`
}

type seriesDetail struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Kind      string    `json:"kind"`
	Year      *int      `json:"year"`
	PosterURL *string   `json:"posterUrl"`
	Source    *string   `json:"source"`
	SourceID  *int64    `json:"sourceId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSeriesDetail(s *repository.Series) seriesDetail {
	return seriesDetail{
		ID:        s.ID,
		Title:     s.Title,
		Kind:      s.Kind,
		Year:      s.Year,
		PosterURL: s.PosterURL,
		Source:    s.Source,
		SourceID:  s.SourceID,
		CreatedAt: s.CreatedAt,
	}
}

// List handles GET /v1/series.  Every series of the caller is returned with
// season/episode counts and a progress summary computed from the actual
// persisted episode rows.
func (h *SeriesHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
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

	seasonCount := make(map[uint64]int)
	for _, s := range seasons {
		seasonCount[s.SeriesID]++
	}
	grouped := groupEpisodeStats(stats)

	items := make([]seriesListItem, 0, len(series))
	for _, s := range series {
		summary := progress.Summarize(grouped[s.ID])
		items = append(items, seriesListItem{
			ID:            s.ID,
			Title:         s.Title,
			CreatedAt:     s.CreatedAt,
			SeasonsCount:  seasonCount[s.ID],
			EpisodesCount: summary.TotalEpisodes,
			Progress:      summary,
		})
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST /v1/series: manual creation with a validated season
// list.  The series, its seasons and their episode rows are persisted in a
// single transaction.
func (h *SeriesHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createSeriesReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	if len(req.Seasons) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seasons are required"})
	}

	specs := make([]repository.SeasonSpec, 0, len(req.Seasons))
	for _, s := range req.Seasons {
		if s.Number <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid season number"})
		}
		if s.EpisodesCount <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid episodesCount"})
		}
		if s.EpisodesCount > 200 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "episodesCount is too large"})
		}
		specs = append(specs, repository.SeasonSpec{Number: s.Number, EpisodesCount: s.EpisodesCount})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Number < specs[j].Number })
	for i := 1; i < len(specs); i++ {
		if specs[i].Number == specs[i-1].Number {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate season number"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	s := repository.Series{UserID: uid, Title: title, Kind: "series"}
	if err := h.Series.Create(ctx, &s, specs); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create series failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":        s.ID,
		"title":     s.Title,
		"createdAt": s.CreatedAt,
	})
}

// Get handles GET /v1/series/:id.
func (h *SeriesHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	s, err := h.Series.GetByIDAndUser(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toSeriesDetail(s))
}

// Poster handles GET /v1/series/:id/poster.  A missing series answers a
// null poster rather than 404 so the client can fall back to a placeholder
// without a special case.
func (h *SeriesHandler) Poster(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var poster *string
	s, err := h.Series.GetByIDAndUser(ctx, id, uid)
	switch {
	case err == nil:
		poster = s.PosterURL
	case errors.Is(err, repository.ErrSeriesNotFound):
		// poster stays null
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"posterUrl": poster})
}

// Delete handles DELETE /v1/series/:id.  The series and every season and
// episode under it are removed in one transaction; success answers 204.
func (h *SeriesHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Series.DeleteByIDAndUser(ctx, id, uid); err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Search handles GET /v1/series/search?q=.  Queries shorter than two
// characters short-circuit to an empty result without touching the
// database.  Episode counts here come from the declared season sizes, which
// is what the picker UI sorts on.
func (h *SeriesHandler) Search(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	q := strings.TrimSpace(c.QueryParam("q"))
	if len([]rune(q)) < 2 {
		return c.JSON(http.StatusOK, echo.Map{"items": []echo.Map{}})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	found, err := h.Series.SearchByTitle(ctx, uid, q, 20)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	seasons, err := h.Seasons.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	seasonCount := make(map[uint64]int)
	declaredEpisodes := make(map[uint64]int)
	for _, s := range seasons {
		seasonCount[s.SeriesID]++
		declaredEpisodes[s.SeriesID] += s.EpisodesCount
	}

	items := make([]echo.Map, 0, len(found))
	for _, s := range found {
		items = append(items, echo.Map{
			"id":            s.ID,
			"title":         s.Title,
			"year":          s.Year,
			"posterUrl":     s.PosterURL,
			"kind":          s.Kind,
			"source":        s.Source,
			"sourceId":      s.SourceID,
			"seasonsCount":  seasonCount[s.ID],
			"episodesCount": declaredEpisodes[s.ID],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// InProgressCount handles GET /v1/series/in-progress-count: the number of
// the caller's series that still have at least one unwatched episode.
func (h *SeriesHandler) InProgressCount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Series.CountInProgress(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"inProgressCount": n})
}
