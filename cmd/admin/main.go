package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalog-admin/internal/client"
	"catalog-admin/internal/config"
	handler "catalog-admin/internal/handler/http"
	"catalog-admin/internal/logger"
	middleware_http "catalog-admin/internal/middleware/http"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"
	"catalog-admin/internal/tracer"
	"catalog-admin/internal/version"
)

func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	// Initialize telemetry (OpenTelemetry + Pyroscope)
	shutdown, err := tracer.Instance(globalCtx)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", logger.Err(err))
	}
	defer shutdown()

	// Wiring
	httpClient := client.NewHTTPClient(cfg.CatalogAPIURL, cfg.CatalogAPITimeout())
	httpClient.SetDefaultHeader("User-Agent", cfg.AppName+"/"+version.Version)
	catalogRepo := repository.NewCatalogRepository(httpClient)
	store := service.NewCatalogStore(catalogRepo)
	healthService := service.NewHealthService(catalogRepo)

	router := handler.NewRouter(
		handler.NewDashboardHandler(store),
		handler.NewCatalogHandler(store),
		handler.NewHealthHandler(healthService),
	)

	// Initial load; a failure is shown on the dashboard, not fatal.
	if err := store.Load(globalCtx); err != nil {
		logger.Warn(globalCtx, "Initial catalog load failed", slog.String("catalog_api", httpClient.BaseURL()), logger.Err(err))
	}

	// HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      middleware_http.TraceMiddleware(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error(globalCtx, "Server failed", logger.Err(err))
			shutdown()
			os.Exit(1)
		}
	case <-globalCtx.Done():
		logger.Info(globalCtx, "Shutting down")
		grace := 10 * time.Second
		if !cfg.IsProduction() {
			grace = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(ctx, "Graceful shutdown failed", logger.Err(err))
		}
	}
}
