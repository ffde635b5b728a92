package service

import (
	"context"
	"time"

	"catalog-admin/internal/logger"
	"catalog-admin/internal/model"

	"go.opentelemetry.io/otel"
)

const (
	HealthUp   = "UP"
	HealthDown = "DOWN"
)

const healthProbeTimeout = 2 * time.Second

// CategoryLister is the cheapest backend call, used as a liveness probe.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type HealthService struct {
	CatalogAPI CategoryLister
}

type HealthStatus struct {
	CatalogAPI string
}

func (h HealthStatus) Overall() string {
	if h.CatalogAPI == HealthDown {
		return HealthDown
	}
	return HealthUp
}

var HealthServiceTracer = otel.Tracer("HealthService")

func NewHealthService(api CategoryLister) *HealthService {
	return &HealthService{
		CatalogAPI: api,
	}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, span := HealthServiceTracer.Start(ctx, "HealthService.Check")
	defer span.End()
	logger.Debug(ctx, "Service")

	status := HealthStatus{CatalogAPI: HealthUp}

	// Catalog backend
	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	if _, err := s.CatalogAPI.ListCategories(probeCtx); err != nil {
		logger.Warn(ctx, "Catalog API health probe failed", logger.Err(err))
		status.CatalogAPI = HealthDown
	}

	return status
}
