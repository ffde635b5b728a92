package http

import (
	"encoding/json"
	"net/http"
	"time"

	"catalog-admin/internal/logger"
	"catalog-admin/internal/model"
	"catalog-admin/internal/service"

	"go.opentelemetry.io/otel"
)

var HttpCatalogHandlerTracer = otel.Tracer("HttpCatalogHandler")

// CatalogHandler exposes the store snapshot as JSON. It never mutates.
type CatalogHandler struct {
	store *service.CatalogStore
}

type catalogCounts struct {
	Products   int `json:"products"`
	Categories int `json:"categories"`
}

type catalogResponse struct {
	Status     string                  `json:"status"`
	Error      string                  `json:"error,omitempty"`
	Notice     *service.Notice         `json:"notice,omitempty"`
	LoadedAt   *time.Time              `json:"loadedAt,omitempty"`
	Counts     catalogCounts           `json:"counts"`
	Products   []model.Product         `json:"products"`
	Categories []service.CategoryCount `json:"categories"`
}

func NewCatalogHandler(store *service.CatalogStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpCatalogHandlerTracer.Start(r.Context(), "HttpCatalogHandler.Get")
	defer span.End()
	logger.Debug(ctx, "HttpCatalogHandler")

	view := h.store.State()
	resp := catalogResponse{
		Status: view.Status.String(),
		Counts: catalogCounts{
			Products:   view.ProductCount(),
			Categories: view.CategoryCount(),
		},
		Products:   view.Products,
		Categories: view.CategoryCounts(),
	}
	if view.Err != nil {
		resp.Error = service.MessageLoadFailed
	}
	if !view.Notice.IsZero() {
		resp.Notice = &view.Notice
	}
	if !view.LoadedAt.IsZero() {
		resp.LoadedAt = &view.LoadedAt
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
