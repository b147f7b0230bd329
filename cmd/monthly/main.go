// Command monthly serves monthly groundwater-well summaries over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/groundwater-monthly/internal/adapter/catalog"
	httpadapter "github.com/couchcryptid/groundwater-monthly/internal/adapter/http"
	"github.com/couchcryptid/groundwater-monthly/internal/adapter/store"
	"github.com/couchcryptid/groundwater-monthly/internal/config"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// Metadata enrichment is feature-flagged via CATALOG_ENABLED.
	var catalogSource pipeline.CatalogSource
	if cfg.CatalogEnabled {
		client := catalog.NewClient(cfg.CatalogTimeout, metrics, logger)
		catalogSource = catalog.NewCachedCatalog(client, metrics)
		metrics.CatalogEnabled.Set(1)
		logger.Info("metadata catalog enabled", "deep_url", cfg.DeepCatalogURL, "shallow_url", cfg.ShallowCatalogURL, "timeout", cfg.CatalogTimeout)
	} else {
		logger.Info("metadata catalog disabled")
	}

	p := pipeline.New(st, catalogSource, cfg.Variants(), logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, httpadapter.Options{
		DefaultStatistics: cfg.DefaultStatistics,
		AllowedOrigins:    cfg.CORSOrigins,
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	logger.Info("shutdown complete")
}
