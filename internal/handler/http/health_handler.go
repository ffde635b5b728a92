package http

import (
	"encoding/json"
	"net/http"

	"catalog-admin/internal/logger"
	"catalog-admin/internal/service"

	"go.opentelemetry.io/otel"
)

type HealthHandler struct {
	service *service.HealthService
}

var HttpHealthHandlerTracer = otel.Tracer("HttpHealthHandler")

func NewHealthHandler(service *service.HealthService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpHealthHandlerTracer.Start(r.Context(), "HttpHealthHandler.Check")
	defer span.End()
	logger.Debug(ctx, "HttpHealthHandler")

	status := h.service.Check(ctx)

	resp := map[string]interface{}{
		"status": status.Overall(),
		"data": map[string]string{
			"catalog_api": status.CatalogAPI,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Overall() == service.HealthDown {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(resp)
}
