package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelesk/teletrack/internal/catalog"
	"github.com/avelesk/teletrack/internal/queue"
	"github.com/avelesk/teletrack/internal/repository"
	queuepub "github.com/avelesk/teletrack/internal/service"
)

// catalogSource tags series rows imported from the external catalog.  The
// (user, source, source id) triple is what makes imports idempotent.
const catalogSource = "poiskkino"

// CatalogHandler proxies catalog search/detail calls and performs the
// one-click import of a catalog title into the caller's collection.
type CatalogHandler struct {
	Client *catalog.Client
	Series *repository.SeriesRepo
}

func NewCatalogHandler(client *catalog.Client, series *repository.SeriesRepo) *CatalogHandler {
	if series == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Client: client, Series: series}
}

// Search handles GET /v1/catalog/search.  The upstream API key never leaves
// the server; the front end only talks to this proxy.
func (h *CatalogHandler) Search(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Client == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "catalog is not configured"})
	}

	q := strings.TrimSpace(c.QueryParam("query"))
	if q == "" {
		q = strings.TrimSpace(c.QueryParam("q"))
	}
	if len([]rune(q)) < 2 {
		return c.JSON(http.StatusOK, catalog.SearchPage{Items: []catalog.SearchItem{}, Page: 1, Limit: 10})
	}
	page := queryInt(c, "page", 1, 1, 100)
	limit := queryInt(c, "limit", 10, 1, 50)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Client.Search(ctx, q, page, limit)
	if err != nil {
		if errors.Is(err, catalog.ErrRateLimited) {
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": "catalog rate limit exceeded, retry later or add the title manually",
			})
		}
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog request failed"})
	}
	return c.JSON(http.StatusOK, res)
}

// Detail handles GET /v1/catalog/titles/:id.
func (h *CatalogHandler) Detail(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Client == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "catalog is not configured"})
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	t, err := h.Client.Details(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrRateLimited):
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": "catalog rate limit exceeded, retry later or add the title manually",
			})
		case errors.Is(err, catalog.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog request failed"})
		}
	}
	return c.JSON(http.StatusOK, t)
}

type importReq struct {
	ID int64 `json:"id"`
}

type importedSeries struct {
	ID    uint64 `json:"id"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

// Import handles POST /v1/series/import/catalog.  Importing the same title
// twice is a no-op: the existing row is answered with alreadyExists, both on
// the fast-path lookup and on the unique-key race where two requests insert
// concurrently.  Season declarations from the catalog become season rows
// with materialized unwatched episodes; a declaration without an episode
// count becomes an empty season the user fills in later.
func (h *CatalogHandler) Import(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if h.Client == nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "catalog is not configured"})
	}
	var req importReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid json"})
	}
	if req.ID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	if existing, err := h.Series.FindBySource(ctx, uid, catalogSource, req.ID); err == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"series":        importedSeries{ID: existing.ID, Title: existing.Title, Kind: existing.Kind},
			"alreadyExists": true,
		})
	} else if !errors.Is(err, repository.ErrSeriesNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	t, err := h.Client.Details(ctx, req.ID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrRateLimited):
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error": "catalog rate limit exceeded, retry later or add the title manually",
			})
		case errors.Is(err, catalog.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
		default:
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "catalog request failed"})
		}
	}

	kind := "movie"
	var specs []repository.SeasonSpec
	if t.IsSeries() {
		kind = "series"
		for _, si := range t.SeasonsInfo {
			specs = append(specs, repository.SeasonSpec{Number: si.Number, EpisodesCount: si.EpisodesCount})
		}
	}

	source := catalogSource
	sourceID := t.ID
	s := repository.Series{
		UserID:    uid,
		Title:     t.Name,
		Kind:      kind,
		Year:      t.Year,
		PosterURL: t.PosterURL,
		Source:    &source,
		SourceID:  &sourceID,
	}
	if err := h.Series.Create(ctx, &s, specs); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost the insert race: answer with the row the winner created.
			existing, ferr := h.Series.FindBySource(ctx, uid, catalogSource, req.ID)
			if ferr != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
			}
			return c.JSON(http.StatusOK, echo.Map{
				"series":        importedSeries{ID: existing.ID, Title: existing.Title, Kind: existing.Kind},
				"alreadyExists": true,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "import failed"})
	}

	episodes := 0
	for _, sp := range specs {
		episodes += sp.EpisodesCount
	}
	// Best effort: the import already committed, a broker outage only
	// costs the downstream notification.
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queuepub.PublishSeriesImported(pubCtx, queue.SeriesImportedEvent{
			UserID:     uid,
			SeriesID:   s.ID,
			Title:      s.Title,
			Kind:       s.Kind,
			Source:     catalogSource,
			SourceID:   t.ID,
			Seasons:    len(specs),
			Episodes:   episodes,
			ImportedAt: time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"series":        importedSeries{ID: s.ID, Title: s.Title, Kind: s.Kind},
		"alreadyExists": false,
	})
}

// queryInt parses an integer query parameter with a default and clamping
// bounds.
func queryInt(c echo.Context, name string, def, min, max int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
