package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/avelesk/teletrack/internal/handler"    // import the handlers that implement business logic
	"github.com/avelesk/teletrack/internal/middleware" // import middleware for session authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the Telegram login endpoint.  Login is the only
// unauthenticated operation besides the health check: it consumes signed
// launch data and issues the session cookie every protected route requires.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/telegram", a.TelegramLogin)
}

// APIHandlers bundles the handlers mounted under the protected /v1 group.
type APIHandlers struct {
	Auth      *handler.AuthHandler
	Series    *handler.SeriesHandler
	Seasons   *handler.SeasonHandler
	Episodes  *handler.EpisodeHandler
	Catalog   *handler.CatalogHandler
	Bootstrap *handler.BootstrapHandler
}

// RegisterAPI registers every authenticated endpoint under /v1.  All routes
// in the group run the session middleware first; extra middleware (such as
// the Redis response cache) is appended after it so cached entries are
// already scoped to a verified session.
func RegisterAPI(e *echo.Echo, h APIHandlers, sessionSecret string, extra ...echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.SessionAuth(sessionSecret))
	for _, m := range extra {
		g.Use(m)
	}

	// Identity
	g.GET("/me", h.Auth.Me)

	// Series collection
	g.GET("/series", h.Series.List)
	g.POST("/series", h.Series.Create)
	g.GET("/series/search", h.Series.Search)
	g.GET("/series/in-progress-count", h.Series.InProgressCount)
	g.GET("/series/:id", h.Series.Get)
	g.GET("/series/:id/poster", h.Series.Poster)
	g.DELETE("/series/:id", h.Series.Delete)

	// Seasons and episodes
	g.GET("/series/:id/seasons", h.Seasons.ListSeasons)
	g.POST("/series/:id/seasons", h.Seasons.CreateSeason)
	g.GET("/seasons/:id/episodes", h.Seasons.ListEpisodes)
	g.POST("/seasons/:id/reset", h.Seasons.Reset)
	g.PATCH("/episodes/:id", h.Episodes.Toggle)

	// Catalog proxy and import
	g.GET("/catalog/search", h.Catalog.Search)
	g.GET("/catalog/titles/:id", h.Catalog.Detail)
	g.POST("/series/import/catalog", h.Catalog.Import)

	// Aggregated first-paint payloads
	g.GET("/bootstrap", h.Bootstrap.Bootstrap)
	g.GET("/preload", h.Bootstrap.Preload)
}
