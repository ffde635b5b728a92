package http

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"catalog-admin/internal/logger"
	"catalog-admin/internal/model"
	"catalog-admin/internal/service"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TabProducts   = "products"
	TabCategories = "categories"
)

var HttpDashboardHandlerTracer = otel.Tracer("HttpDashboardHandler")

type DashboardHandler struct {
	store *service.CatalogStore
	pages map[string]*template.Template
}

type dashboardPage struct {
	Title     string
	Tab       string
	Notice    service.Notice
	LoadError string
	View      service.View
}

type confirmPage struct {
	Title   string
	Tab     string
	Notice  service.Notice
	Prompt  string
	Subject string
	Action  string
}

func NewDashboardHandler(store *service.CatalogStore) *DashboardHandler {
	funcs := template.FuncMap{
		"formatPrice": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"deletePath":  deletePath,
	}
	pages := map[string]*template.Template{}
	for _, name := range []string{"dashboard", "confirm"} {
		pages[name] = template.Must(template.New(name).Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return &DashboardHandler{store: store, pages: pages}
}

// Index renders the dashboard from the current snapshot.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.Index")
	defer span.End()

	view := h.store.State()
	page := dashboardPage{
		Title:  "Dashboard",
		Tab:    tabFrom(r.URL.Query().Get("tab")),
		Notice: h.store.TakeNotice(),
		View:   view,
	}
	if view.Err != nil {
		page.LoadError = service.MessageLoadFailed
	}
	h.render(ctx, w, "dashboard", page)
}

func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.Refresh")
	defer span.End()

	if err := h.store.Load(ctx); err != nil {
		logger.Warn(ctx, "Refresh failed", logger.Err(err))
	}
	redirect(w, r, tabFrom(r.PostFormValue("tab")))
}

func (h *DashboardHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.CreateProduct")
	defer span.End()

	in, err := productInputFrom(r)
	if err != nil {
		logger.Info(ctx, "Invalid product form", logger.Err(err))
		h.store.SetNotice(service.Notice{Message: err.Error(), Failed: true})
		redirect(w, r, TabProducts)
		return
	}
	if err := h.store.CreateProduct(ctx, in); err != nil {
		logger.Info(ctx, "Create product not applied", logger.Err(err))
	}
	redirect(w, r, TabProducts)
}

func (h *DashboardHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.CreateCategory")
	defer span.End()

	in := model.CategoryInput{Name: r.PostFormValue("name")}
	if err := h.store.CreateCategory(ctx, in); err != nil {
		logger.Info(ctx, "Create category not applied", logger.Err(err))
	}
	redirect(w, r, TabCategories)
}

func (h *DashboardHandler) ConfirmDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.ConfirmDeleteProduct")
	defer span.End()

	id := r.PathValue("id")
	subject := ""
	for _, p := range h.store.State().Products {
		if p.ID == id {
			subject = p.Name
			break
		}
	}
	h.render(ctx, w, "confirm", confirmPage{
		Title:   "Delete product",
		Tab:     TabProducts,
		Prompt:  service.PromptDeleteProduct,
		Subject: subject,
		Action:  deletePath("products", id),
	})
}

// deletePath escapes id as one path segment so ids holding "/" still match
// the {id} route.
func deletePath(collection, id string) string {
	return "/" + collection + "/" + url.PathEscape(id) + "/delete"
}

func (h *DashboardHandler) ConfirmDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.ConfirmDeleteCategory")
	defer span.End()

	id := r.PathValue("id")
	subject := ""
	for _, c := range h.store.State().Categories {
		if c.ID == id {
			subject = c.Name
			break
		}
	}
	h.render(ctx, w, "confirm", confirmPage{
		Title:   "Delete category",
		Tab:     TabCategories,
		Prompt:  service.PromptDeleteCategory,
		Subject: subject,
		Action:  deletePath("categories", id),
	})
}

func (h *DashboardHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.DeleteProduct")
	defer span.End()

	if err := h.store.DeleteProduct(ctx, r.PathValue("id"), formConfirmer(r)); err != nil {
		logDeleteOutcome(ctx, "product", err)
	}
	redirect(w, r, TabProducts)
}

func (h *DashboardHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx, span := HttpDashboardHandlerTracer.Start(r.Context(), "HttpDashboardHandler.DeleteCategory")
	defer span.End()

	if err := h.store.DeleteCategory(ctx, r.PathValue("id"), formConfirmer(r)); err != nil {
		logDeleteOutcome(ctx, "category", err)
	}
	redirect(w, r, TabCategories)
}

func (h *DashboardHandler) render(ctx context.Context, w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		logger.Error(ctx, "Template render failed", slog.String("template", name), logger.Err(err))
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// formConfirmer answers yes only for an explicit confirm=yes form field.
func formConfirmer(r *http.Request) service.Confirmer {
	return service.ConfirmFunc(func(context.Context, string) bool {
		return r.PostFormValue("confirm") == "yes"
	})
}

func logDeleteOutcome(ctx context.Context, kind string, err error) {
	if errors.Is(err, service.ErrNotConfirmed) {
		logger.Info(ctx, "Delete "+kind+" cancelled")
		return
	}
	logger.Info(ctx, "Delete "+kind+" not applied", logger.Err(err))
}

// productInputFrom reads the create-product form. An empty price stays nil so
// the store can report it as missing; an empty stock means zero.
func productInputFrom(r *http.Request) (model.ProductInput, error) {
	in := model.ProductInput{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		ImageURL:    r.PostFormValue("imageUrl"),
		CategoryID:  r.PostFormValue("categoryId"),
	}
	if raw := strings.TrimSpace(r.PostFormValue("price")); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return in, errors.New("price must be a number")
		}
		in.Price = &p
	}
	if raw := strings.TrimSpace(r.PostFormValue("stock")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return in, errors.New("stock must be a whole number")
		}
		in.Stock = n
	}
	return in, nil
}

func tabFrom(s string) string {
	if s == TabCategories {
		return TabCategories
	}
	return TabProducts
}

func redirect(w http.ResponseWriter, r *http.Request, tab string) {
	http.Redirect(w, r, "/?tab="+tab, http.StatusSeeOther)
}
