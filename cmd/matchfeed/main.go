// Package main wires together the match feed service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lyfe05/matchfeed/internal/aggregate"
	"github.com/lyfe05/matchfeed/internal/api"
	"github.com/lyfe05/matchfeed/internal/cache"
	"github.com/lyfe05/matchfeed/internal/clock/system"
	"github.com/lyfe05/matchfeed/internal/config"
	collyfetcher "github.com/lyfe05/matchfeed/internal/fetcher/colly"
	"github.com/lyfe05/matchfeed/internal/logging"
	"github.com/lyfe05/matchfeed/internal/logos"
	"github.com/lyfe05/matchfeed/internal/metrics"
	"github.com/lyfe05/matchfeed/internal/refresh"
	"github.com/lyfe05/matchfeed/internal/scrape"
	"github.com/lyfe05/matchfeed/internal/store"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lister, err := scrape.NewLister(cfg.Source.BaseURL)
	if err != nil {
		logger.Fatal("invalid source base url", zap.Error(err))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.HTTP.FetchTimeout(),
	})
	limiter := rate.NewLimiter(rate.Limit(cfg.HTTP.RequestsPerSec), 1)
	resolver := scrape.NewResolver(fetcher, limiter, lister, logger.Named("scrape"))

	catalogs := logos.NewLoader(fetcher, cfg.Logos.CatalogURL, cfg.Logos.OverridesURL, logger.Named("logos"))
	aggregator := aggregate.New(aggregate.Config{
		ManifestMarker: cfg.Streams.ManifestMarker,
		Referer:        cfg.Streams.Referer,
	}, logger.Named("aggregate"))

	controller := cache.NewController(cfg.Cache.TTL())

	snapshots, err := store.NewFromConfig(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("snapshot store init failed", zap.Error(err))
	}
	defer func() {
		if closeErr := snapshots.Close(); closeErr != nil {
			logger.Warn("snapshot store close failed", zap.Error(closeErr))
		}
	}()

	refresher := refresh.New(
		refresh.Config{
			ListingURL: cfg.Source.BaseURL,
			Logos: logos.Config{
				Aliases:             cfg.Logos.Aliases,
				SuffixTokens:        cfg.Logos.SuffixTokens,
				SimilarityThreshold: cfg.Logos.SimilarityThreshold,
			},
		},
		refresh.Deps{
			Fetcher:    fetcher,
			Lister:     lister,
			Resolver:   resolver,
			Catalogs:   catalogs,
			Aggregator: aggregator,
			Cache:      controller,
			Store:      snapshots,
			Clock:      system.New(),
			Logger:     logger.Named("refresh"),
		},
	)

	if err := refresher.Preload(ctx); err != nil {
		logger.Warn("snapshot preload failed", zap.Error(err))
	}

	scheduler := refresh.NewScheduler(refresher, cfg.Cache.CheckInterval(), logger.Named("scheduler"))
	go scheduler.Start(ctx)

	apiServer := api.NewServer(controller, refresher, cfg, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
