package repository

import (
	"context"
	"errors"
	"log/slog"

	"catalog-admin/internal/client"
	"catalog-admin/internal/logger"
	"catalog-admin/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Backend routes.
const (
	pathListProducts   = "/products/list_products"
	pathListCategories = "/products/list_categories"
	pathCreateProduct  = "/products/create_product"
	pathDeleteProduct  = "/products/delete_product"
	pathCreateCategory = "/products/create_category"
	pathDeleteCategory = "/products/delete_category"
)

// Operation names carried by RequestFailedError.
const (
	OpListProducts   = "list products"
	OpListCategories = "list categories"
	OpCreateProduct  = "create product"
	OpDeleteProduct  = "delete product"
	OpCreateCategory = "create category"
	OpDeleteCategory = "delete category"
)

// ErrRequestFailed matches every RequestFailedError.
var ErrRequestFailed = errors.New("request failed")

// RequestFailedError is the single failure signal of a catalog operation,
// whatever went wrong underneath (transport error or non-2xx status).
type RequestFailedError struct {
	Op  string
	Err error
}

func (e *RequestFailedError) Error() string {
	return e.Op + ": request failed"
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func (e *RequestFailedError) Is(target error) bool {
	return target == ErrRequestFailed
}

// CatalogRepository exposes the catalog backend. Every method is exactly one
// HTTP round trip and the repository keeps no state of its own.
type CatalogRepository struct {
	http *client.HTTPClient
}

var CatalogRepositoryTracer = otel.Tracer("CatalogRepository")

func NewCatalogRepository(httpClient *client.HTTPClient) *CatalogRepository {
	return &CatalogRepository{http: httpClient}
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    *string `json:"imageUrl"`
	Category    string  `json:"category"`
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.ListProducts")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpListProducts))

	var products []model.Product
	if err := r.http.Get(ctx, pathListProducts, &products); err != nil {
		return nil, r.fail(ctx, span, OpListProducts, err)
	}
	if products == nil {
		products = []model.Product{}
	}
	span.SetAttributes(attribute.Int("catalog.products", len(products)))
	return products, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.ListCategories")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpListCategories))

	var categories []model.Category
	if err := r.http.Get(ctx, pathListCategories, &categories); err != nil {
		return nil, r.fail(ctx, span, OpListCategories, err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	span.SetAttributes(attribute.Int("catalog.categories", len(categories)))
	return categories, nil
}

// CreateProduct sends price and stock as JSON numbers and an empty image URL as null.
func (r *CatalogRepository) CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.CreateProduct")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpCreateProduct), slog.String("name", in.Name))

	req := createProductRequest{
		Name:        in.Name,
		Description: in.Description,
		Stock:       in.Stock,
		Category:    in.CategoryID,
	}
	if in.Price != nil {
		req.Price = in.Price.InexactFloat64()
	}
	if in.ImageURL != "" {
		img := in.ImageURL
		req.ImageURL = &img
	}

	var created model.Product
	if err := r.http.Post(ctx, pathCreateProduct, req, &created); err != nil {
		return nil, r.fail(ctx, span, OpCreateProduct, err)
	}
	return &created, nil
}

func (r *CatalogRepository) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.DeleteProduct")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpDeleteProduct), slog.String("id", id))

	err := r.http.Delete(ctx, pathDeleteProduct, nil, client.RequestOptions{
		QueryParams: map[string]string{"id": id},
	})
	if err != nil {
		return r.fail(ctx, span, OpDeleteProduct, err)
	}
	return nil
}

func (r *CatalogRepository) CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error) {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.CreateCategory")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpCreateCategory), slog.String("name", in.Name))

	var created model.Category
	if err := r.http.Post(ctx, pathCreateCategory, createCategoryRequest{Name: in.Name}, &created); err != nil {
		return nil, r.fail(ctx, span, OpCreateCategory, err)
	}
	return &created, nil
}

func (r *CatalogRepository) DeleteCategory(ctx context.Context, id string) error {
	ctx, span := CatalogRepositoryTracer.Start(ctx, "CatalogRepository.DeleteCategory")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("op", OpDeleteCategory), slog.String("id", id))

	err := r.http.Delete(ctx, pathDeleteCategory, nil, client.RequestOptions{
		QueryParams: map[string]string{"id": id},
	})
	if err != nil {
		return r.fail(ctx, span, OpDeleteCategory, err)
	}
	return nil
}

func (r *CatalogRepository) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	attrs := []slog.Attr{slog.String("op", op), logger.Err(err)}
	var se *client.StatusError
	if errors.As(err, &se) {
		attrs = append(attrs, slog.Int("http.status", se.StatusCode), slog.String("http.body", string(se.Body)))
	}
	logger.Warn(ctx, "Catalog request failed", attrs...)
	return &RequestFailedError{Op: op, Err: err}
}
