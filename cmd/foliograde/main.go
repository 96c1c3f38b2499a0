// Command foliograde starts the portfolio grading API server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raysh454/foliograde/internal/cache"
	"github.com/raysh454/foliograde/internal/config"
	"github.com/raysh454/foliograde/internal/engine"
	"github.com/raysh454/foliograde/internal/feedback"
	"github.com/raysh454/foliograde/internal/fetcher"
	"github.com/raysh454/foliograde/internal/logging"
	"github.com/raysh454/foliograde/internal/ratelimit"
	"github.com/raysh454/foliograde/internal/server"
	"github.com/raysh454/foliograde/internal/webclient"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger := logging.NewStdoutLogger("foliograde")

	webclient.RegisterDefaultBackends()

	plain, err := webclient.NewNetHTTPClient(cfg.PageLoadTimeout, logger, nil)
	if err != nil {
		log.Fatalf("creating http client: %v", err)
	}

	// The rendering backend is optional: without a usable browser the
	// grader runs on plain HTTP fetches alone.
	var renderer webclient.WebClient
	if cfg.WebClientBackend != "" && cfg.WebClientBackend != "nethttp" {
		renderer, err = webclient.NewWebClient(cfg.WebClientBackend, webclient.Options{
			Timeout:   cfg.PageLoadTimeout,
			IdleAfter: 2 * time.Second,
		}, logger)
		if err != nil {
			logger.Warn("rendering backend unavailable, using plain fetches only",
				logging.Field{Key: "backend", Value: cfg.WebClientBackend},
				logging.Field{Key: "error", Value: err.Error()})
			renderer = nil
		}
	}

	f, err := fetcher.New(renderer, plain, fetcher.Config{
		PageLoadTimeout:    cfg.PageLoadTimeout,
		RetryBackoff:       500 * time.Millisecond,
		LowConfidenceBytes: 2048,
	}, logger)
	if err != nil {
		log.Fatalf("creating fetcher: %v", err)
	}

	var store cache.Store
	if cfg.EnableCaching {
		if cfg.CachePath == "" {
			store = cache.NewMemoryStore(cache.SystemClock{})
		} else {
			sqlStore, err := cache.NewSQLiteStore(cfg.CachePath, cache.SystemClock{}, logger)
			if err != nil {
				logger.Warn("opening cache database, falling back to memory",
					logging.Field{Key: "path", Value: cfg.CachePath},
					logging.Field{Key: "error", Value: err.Error()})
				store = cache.NewMemoryStore(cache.SystemClock{})
			} else {
				store = sqlStore
			}
		}
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimitPerHour > 0 || cfg.RateLimitPerDay > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			PerHour: cfg.RateLimitPerHour,
			PerDay:  cfg.RateLimitPerDay,
		}, nil)
	}

	var providers []feedback.Provider
	if cfg.GeminiAPIKey != "" {
		providers = append(providers, feedback.NewGeminiProvider(cfg.GeminiAPIKey))
	}
	if cfg.GroqAPIKey != "" {
		providers = append(providers, feedback.NewGroqProvider(cfg.GroqAPIKey))
	}
	gen := feedback.NewGenerator(providers, cfg.AIRequestTimeout, logger)

	eng, err := engine.New(f, gen, store, limiter, engine.Config{
		AnalysisTimeout:  cfg.AnalysisTimeout,
		MaxConcurrent:    cfg.MaxConcurrentAnalyses,
		CacheTTL:         cfg.CacheTTL,
		EnableShareLinks: cfg.EnableShareLinks,
	}, nil, logger)
	if err != nil {
		log.Fatalf("creating engine: %v", err)
	}

	srv := server.NewServer(server.Config{
		ListenAddr:     cfg.ListenAddr,
		AllowedOrigins: cfg.OriginsList(),
		Logger:         logger,
	}, eng)
	httpServer := srv.HTTPServer()

	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: cfg.ListenAddr})
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	if renderer != nil {
		_ = renderer.Close()
	}
	_ = plain.Close()
	if store != nil {
		_ = store.Close()
	}
}
