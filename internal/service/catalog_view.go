package service

import (
	"time"

	"catalog-admin/internal/model"
)

// Status of the catalog snapshot.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UncategorizedName labels products without a resolvable category.
const UncategorizedName = "Uncategorized"

// Notice is the last user-facing outcome message.
type Notice struct {
	Message string `json:"message"`
	Failed  bool   `json:"failed"`
}

func (n Notice) IsZero() bool {
	return n.Message == ""
}

// View is a read-only copy of the store state. Products and Categories always
// come from the same load.
type View struct {
	Products   []model.Product
	Categories []model.Category
	Status     Status
	Err        error
	Notice     Notice
	LoadedAt   time.Time
}

func (v View) Loading() bool {
	return v.Status == StatusLoading
}

func (v View) ProductCount() int {
	return len(v.Products)
}

func (v View) CategoryCount() int {
	return len(v.Categories)
}

// ProductsInCategory counts products referencing categoryID.
func (v View) ProductsInCategory(categoryID string) int {
	n := 0
	for _, p := range v.Products {
		if p.CategoryID() == categoryID {
			n++
		}
	}
	return n
}

// CategoryName prefers the embedded snapshot, then the loaded categories.
func (v View) CategoryName(p model.Product) string {
	if name := p.Category.Name(); name != "" {
		return name
	}
	id := p.CategoryID()
	if id == "" {
		return UncategorizedName
	}
	for _, c := range v.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return UncategorizedName
}

type CategoryCount struct {
	Category model.Category `json:"category"`
	Products int            `json:"products"`
}

// CategoryCounts lists every category with its product count, in category order.
func (v View) CategoryCounts() []CategoryCount {
	out := make([]CategoryCount, 0, len(v.Categories))
	for _, c := range v.Categories {
		out = append(out, CategoryCount{Category: c, Products: v.ProductsInCategory(c.ID)})
	}
	return out
}
