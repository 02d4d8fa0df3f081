package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/avelesk/teletrack/internal/catalog"    // External catalog client
	"github.com/avelesk/teletrack/internal/config"     // Internal config loader
	"github.com/avelesk/teletrack/internal/database"   // MySQL connection pool
	"github.com/avelesk/teletrack/internal/handler"    // HTTP handlers
	"github.com/avelesk/teletrack/internal/middleware" // Rate limiter and response cache
	"github.com/avelesk/teletrack/internal/queue"      // Background import consumer
	"github.com/avelesk/teletrack/internal/repository" // Data access layer
	"github.com/avelesk/teletrack/internal/router"     // Route registration
)

func main() {
	// Load .env if present; real deployments set variables in the
	// environment and have no file, so the error is ignored.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	seriesRepo := repository.NewSeriesRepo(db)
	seasonRepo := repository.NewSeasonRepo(db)
	episodeRepo := repository.NewEpisodeRepo(db)

	// The catalog client is only constructed when a key is configured; the
	// catalog handlers answer 500 without one while everything else works.
	var catalogClient *catalog.Client
	if cfg.CatalogAPIKey != "" {
		catalogClient = catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogAPIKey)
	} else {
		log.Println("CATALOG_API_KEY not set; catalog endpoints disabled")
	}

	e := echo.New()

	// Redis backs both the token-bucket rate limiter and the response
	// cache.  A missing Redis degrades gracefully: limiting and caching
	// are skipped, the API keeps serving.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo))
	router.RegisterAPI(e, router.APIHandlers{
		Auth:      handler.NewAuthHandler(cfg, userRepo),
		Series:    handler.NewSeriesHandler(seriesRepo, seasonRepo),
		Seasons:   handler.NewSeasonHandler(seriesRepo, seasonRepo, episodeRepo),
		Episodes:  handler.NewEpisodeHandler(episodeRepo),
		Catalog:   handler.NewCatalogHandler(catalogClient, seriesRepo),
		Bootstrap: handler.NewBootstrapHandler(seriesRepo, seasonRepo, episodeRepo),
	}, cfg.SessionSecret, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	// Consume import events in the background; the loop reconnects on
	// broker failures and never takes the API down.
	go func() {
		if err := queue.StartImportConsumer(); err != nil {
			log.Printf("import consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
