package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelesk/teletrack/internal/repository"
)

// SeasonHandler serves season and episode listings plus the two mutating
// season operations: appending the next season and resetting one.
type SeasonHandler struct {
	Series   *repository.SeriesRepo
	Seasons  *repository.SeasonRepo
	Episodes *repository.EpisodeRepo
}

func NewSeasonHandler(series *repository.SeriesRepo, seasons *repository.SeasonRepo, episodes *repository.EpisodeRepo) *SeasonHandler {
	if series == nil || seasons == nil || episodes == nil {
		panic("nil repository passed to NewSeasonHandler")
	}
	return &SeasonHandler{Series: series, Seasons: seasons, Episodes: episodes}
}

type createSeasonReq struct {
	EpisodesCount int `json:"episodesCount"`
}

type seasonItem struct {
	ID            uint64 `json:"id"`
	Number        int    `json:"number"`
	EpisodesCount int    `json:"episodesCount"`
}

type episodeItem struct {
	ID      uint64 `json:"id"`
	Number  int    `json:"number"`
	Watched bool   `json:"watched"`
}

// ListSeasons handles GET /v1/series/:id/seasons.  Ownership is checked
// before listing so a foreign series id answers 404, not an empty list.
func (h *SeasonHandler) ListSeasons(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seriesID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Series.GetByIDAndUser(ctx, seriesID, uid); err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	seasons, err := h.Seasons.ListBySeries(ctx, seriesID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]seasonItem, 0, len(seasons))
	for _, s := range seasons {
		items = append(items, seasonItem{ID: s.ID, Number: s.Number, EpisodesCount: s.EpisodesCount})
	}
	return c.JSON(http.StatusOK, items)
}

// CreateSeason handles POST /v1/series/:id/seasons.  The new season always
// takes the next free number; the body only carries the episode count.
func (h *SeasonHandler) CreateSeason(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seriesID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req createSeasonReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if req.EpisodesCount < 1 || req.EpisodesCount > 500 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "episodesCount must be an integer between 1 and 500"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Series.GetByIDAndUser(ctx, seriesID, uid); err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "series not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	season, err := h.Seasons.CreateNext(ctx, seriesID, req.EpisodesCount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create season failed"})
	}
	return c.JSON(http.StatusCreated, seasonItem{
		ID:            season.ID,
		Number:        season.Number,
		EpisodesCount: season.EpisodesCount,
	})
}

// ListEpisodes handles GET /v1/seasons/:id/episodes, ordered by episode
// number.
func (h *SeasonHandler) ListEpisodes(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seasonID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.ownsSeason(ctx, seasonID, uid); err != nil {
		if errors.Is(err, repository.ErrSeasonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "season not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	eps, err := h.Episodes.ListBySeason(ctx, seasonID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	items := make([]episodeItem, 0, len(eps))
	for _, e := range eps {
		items = append(items, episodeItem{ID: e.ID, Number: e.Number, Watched: e.Watched})
	}
	return c.JSON(http.StatusOK, items)
}

// Reset handles POST /v1/seasons/:id/reset: every episode of the season is
// replaced with fresh unwatched rows inside one transaction.
func (h *SeasonHandler) Reset(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seasonID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.ownsSeason(ctx, seasonID, uid); err != nil {
		if errors.Is(err, repository.ErrSeasonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "season not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	n, err := h.Seasons.Reset(ctx, seasonID)
	if err != nil {
		if errors.Is(err, repository.ErrSeasonNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "season not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "episodesCount": n})
}

// ownsSeason verifies the season belongs to a series of the given user.
// A season that exists under someone else's series reports not-found.
func (h *SeasonHandler) ownsSeason(ctx context.Context, seasonID, userID uint64) error {
	season, err := h.Seasons.GetByID(ctx, seasonID)
	if err != nil {
		return err
	}
	if _, err := h.Series.GetByIDAndUser(ctx, season.SeriesID, userID); err != nil {
		if errors.Is(err, repository.ErrSeriesNotFound) {
			return repository.ErrSeasonNotFound
		}
		return err
	}
	return nil
}
