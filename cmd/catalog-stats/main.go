package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"catalog-admin/internal/client"
	"catalog-admin/internal/config"
	"catalog-admin/internal/logger"
	"catalog-admin/internal/repository"
	"catalog-admin/internal/service"
	"catalog-admin/internal/tracer"
	"catalog-admin/internal/version"
)

// catalog-stats loads the catalog once and logs the dashboard counts.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()

	logger.Info(ctx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdown, err := tracer.Instance(ctx)
	if err != nil {
		logger.Warn(ctx, "Tracing disabled", logger.Err(err))
	}

	httpClient := client.NewHTTPClient(cfg.CatalogAPIURL, cfg.CatalogAPITimeout())
	httpClient.SetDefaultHeader("User-Agent", cfg.AppName+"/"+version.Version)
	store := service.NewCatalogStore(repository.NewCatalogRepository(httpClient))

	if err := store.Load(ctx); err != nil {
		logger.Error(ctx, service.MessageLoadFailed, slog.String("catalog_api", httpClient.BaseURL()), logger.Err(err))
		shutdown()
		os.Exit(1)
	}

	view := store.State()
	logger.Info(ctx, "Catalog stats",
		slog.Int("products", view.ProductCount()),
		slog.Int("categories", view.CategoryCount()),
	)
	for _, c := range view.CategoryCounts() {
		logger.Info(ctx, "Category",
			slog.String("id", c.Category.ID),
			slog.String("name", c.Category.Name),
			slog.Int("products", c.Products),
		)
	}

	shutdown()
}
