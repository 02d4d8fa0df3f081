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

// EpisodeHandler exposes the single episode mutation: the watched toggle.
type EpisodeHandler struct {
	Episodes *repository.EpisodeRepo
}

func NewEpisodeHandler(episodes *repository.EpisodeRepo) *EpisodeHandler {
	if episodes == nil {
		panic("nil repository passed to NewEpisodeHandler")
	}
	return &EpisodeHandler{Episodes: episodes}
}

// Toggle handles PATCH /v1/episodes/:id.  The flip is unconditional (no
// desired-state input), so two rapid taps cancel out instead of getting
// stuck.  Responds with the episode's new state.
func (h *EpisodeHandler) Toggle(c echo.Context) error {
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

	e, err := h.Episodes.Toggle(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrEpisodeNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "episode not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"id": e.ID, "watched": e.Watched})
}
