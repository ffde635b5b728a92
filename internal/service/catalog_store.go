package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"catalog-admin/internal/logger"
	"catalog-admin/internal/model"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// CatalogAPI is the backend the store synchronises with.
type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateProduct(ctx context.Context, in model.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateCategory(ctx context.Context, in model.CategoryInput) (*model.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// Confirmer is asked before anything destructive is sent.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

const (
	PromptDeleteProduct  = "Are you sure you want to delete this product?"
	PromptDeleteCategory = "Are you sure you want to delete this category?"
)

const (
	MessageLoadFailed = "could not load catalog"

	NoticeProductCreated       = "product created"
	NoticeProductCreateFailed  = "error creating product"
	NoticeProductDeleted       = "product deleted"
	NoticeProductDeleteFailed  = "error deleting product"
	NoticeCategoryCreated      = "category created"
	NoticeCategoryCreateFailed = "error creating category"
	NoticeCategoryDeleted      = "category deleted"
	NoticeCategoryDeleteFailed = "error deleting category"
	NoticeDeleteNotConfirmed   = "delete cancelled"
)

var CatalogStoreTracer = otel.Tracer("CatalogStore")

// CatalogStore keeps the admin's copy of the catalog. Every successful
// mutation is followed by a full reload; the copy is never patched locally.
type CatalogStore struct {
	api      CatalogAPI
	validate *Validator
	group    singleflight.Group

	mu         sync.RWMutex
	products   []model.Product
	categories []model.Category
	settled    Status
	err        error
	notice     Notice
	loadedAt   time.Time
	inflight   int
	started    uint64
	applied    uint64
}

func NewCatalogStore(api CatalogAPI) *CatalogStore {
	return &CatalogStore{
		api:        api,
		validate:   NewValidator(),
		products:   []model.Product{},
		categories: []model.Category{},
	}
}

// State returns a copy of the current snapshot.
func (s *CatalogStore) State() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := s.settled
	if s.inflight > 0 {
		status = StatusLoading
	}
	return View{
		Products:   slices.Clone(s.products),
		Categories: slices.Clone(s.categories),
		Status:     status,
		Err:        s.err,
		Notice:     s.notice,
		LoadedAt:   s.loadedAt,
	}
}

// TakeNotice returns the pending notice and clears it. The notice is shared
// by the whole process, so with several admins open whichever page renders
// first consumes it.
func (s *CatalogStore) TakeNotice() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = Notice{}
	return n
}

// Load fetches products and categories concurrently and replaces both
// together. Concurrent Load calls share one round of requests, which is not
// cancelled when the caller that started it goes away. On failure the
// previous snapshot is kept.
func (s *CatalogStore) Load(ctx context.Context) error {
	ctx, span := CatalogStoreTracer.Start(ctx, "CatalogStore.Load")
	defer span.End()

	_, err, shared := s.group.Do("load", func() (any, error) {
		return nil, s.reload(context.WithoutCancel(ctx))
	})
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, MessageLoadFailed)
	}
	return err
}

func (s *CatalogStore) reload(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	seq := s.started
	s.inflight++
	s.mu.Unlock()

	logger.Debug(ctx, "Loading catalog", slog.Uint64("load.seq", seq))

	var (
		products   []model.Product
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.api.ListProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.api.ListCategories(gctx)
		return err
	})
	err := g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if seq < s.applied {
		logger.Debug(ctx, "Discarding stale catalog load", slog.Uint64("load.seq", seq))
		return err
	}
	s.applied = seq

	if err != nil {
		s.err = err
		s.settled = StatusError
		logger.Error(ctx, "Catalog load failed", logger.Err(err))
		return err
	}

	if products == nil {
		products = []model.Product{}
	}
	if categories == nil {
		categories = []model.Category{}
	}
	s.products = products
	s.categories = categories
	s.err = nil
	s.settled = StatusReady
	s.loadedAt = time.Now()
	logger.Info(ctx, "Catalog loaded",
		slog.Int("catalog.products", len(products)),
		slog.Int("catalog.categories", len(categories)),
	)
	return nil
}

func (s *CatalogStore) CreateProduct(ctx context.Context, in model.ProductInput) error {
	ctx, span := CatalogStoreTracer.Start(ctx, "CatalogStore.CreateProduct")
	defer span.End()

	in = in.Normalize()
	if err := s.validate.Validate(in); err != nil {
		s.reject(ctx, err)
		return err
	}

	return s.mutate(ctx, "create_product", in, NoticeProductCreated, NoticeProductCreateFailed, func(ctx context.Context) error {
		_, err := s.api.CreateProduct(ctx, in)
		return err
	})
}

func (s *CatalogStore) CreateCategory(ctx context.Context, in model.CategoryInput) error {
	ctx, span := CatalogStoreTracer.Start(ctx, "CatalogStore.CreateCategory")
	defer span.End()

	in = in.Normalize()
	if err := s.validate.Validate(in); err != nil {
		s.reject(ctx, err)
		return err
	}

	return s.mutate(ctx, "create_category", in, NoticeCategoryCreated, NoticeCategoryCreateFailed, func(ctx context.Context) error {
		_, err := s.api.CreateCategory(ctx, in)
		return err
	})
}

func (s *CatalogStore) DeleteProduct(ctx context.Context, id string, confirm Confirmer) error {
	ctx, span := CatalogStoreTracer.Start(ctx, "CatalogStore.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := s.gate(ctx, PromptDeleteProduct, id, confirm); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	return s.mutate(ctx, "delete_product", id, NoticeProductDeleted, NoticeProductDeleteFailed, func(ctx context.Context) error {
		return s.api.DeleteProduct(ctx, id)
	})
}

func (s *CatalogStore) DeleteCategory(ctx context.Context, id string, confirm Confirmer) error {
	ctx, span := CatalogStoreTracer.Start(ctx, "CatalogStore.DeleteCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", id))

	if err := s.gate(ctx, PromptDeleteCategory, id, confirm); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	return s.mutate(ctx, "delete_category", id, NoticeCategoryDeleted, NoticeCategoryDeleteFailed, func(ctx context.Context) error {
		return s.api.DeleteCategory(ctx, id)
	})
}

func (s *CatalogStore) gate(ctx context.Context, prompt, id string, confirm Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, prompt) {
		logger.Info(ctx, "Delete not confirmed", slog.String("id", id))
		s.setNotice(Notice{Message: NoticeDeleteNotConfirmed})
		return ErrNotConfirmed
	}
	if strings.TrimSpace(id) == "" {
		err := &ValidationError{Fields: []FieldError{{Field: "id", Rule: "required"}}}
		s.reject(ctx, err)
		return err
	}
	return nil
}

// mutate runs call once per distinct (op, arg) among concurrent callers, then
// reloads. A failed call leaves the snapshot untouched. A reload failure after
// a successful call is reported through the view, not the returned error.
// The call and the reload outlive ctx so an applied mutation is always read
// back.
func (s *CatalogStore) mutate(ctx context.Context, op string, arg any, okMsg, failMsg string, call func(context.Context) error) error {
	key := op
	if b, err := json.Marshal(arg); err == nil {
		key += ":" + string(b)
	}

	_, err, shared := s.group.Do(key, func() (any, error) {
		logger.Info(ctx, "Catalog mutation", slog.String("op", op))
		work := context.WithoutCancel(ctx)
		if err := call(work); err != nil {
			logger.Error(ctx, "Catalog mutation failed", slog.String("op", op), logger.Err(err))
			s.setNotice(Notice{Message: failMsg, Failed: true})
			return nil, err
		}
		s.setNotice(Notice{Message: okMsg})
		if err := s.reload(work); err != nil {
			logger.Warn(ctx, "Reload after mutation failed", slog.String("op", op), logger.Err(err))
		}
		return nil, nil
	})
	if shared {
		logger.Debug(ctx, "Joined in-flight mutation", slog.String("op", op))
	}
	return err
}

func (s *CatalogStore) reject(ctx context.Context, err error) {
	logger.Info(ctx, "Intent rejected", logger.Err(err))
	s.setNotice(Notice{Message: err.Error(), Failed: true})
}

// SetNotice replaces the pending notice, for intents rejected before they reach the store.
func (s *CatalogStore) SetNotice(n Notice) {
	s.setNotice(n)
}

func (s *CatalogStore) setNotice(n Notice) {
	s.mu.Lock()
	s.notice = n
	s.mu.Unlock()
}
