package http

import (
	"net/http"
)

// NewRouter registers every admin route.
func NewRouter(dashboard *DashboardHandler, catalog *CatalogHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", dashboard.Index)
	mux.HandleFunc("POST /refresh", dashboard.Refresh)

	mux.HandleFunc("POST /products", dashboard.CreateProduct)
	mux.HandleFunc("GET /products/{id}/delete", dashboard.ConfirmDeleteProduct)
	mux.HandleFunc("POST /products/{id}/delete", dashboard.DeleteProduct)

	mux.HandleFunc("POST /categories", dashboard.CreateCategory)
	mux.HandleFunc("GET /categories/{id}/delete", dashboard.ConfirmDeleteCategory)
	mux.HandleFunc("POST /categories/{id}/delete", dashboard.DeleteCategory)

	mux.HandleFunc("GET /api/catalog", catalog.Get)
	mux.HandleFunc("GET /healthz", health.Check)

	return mux
}
