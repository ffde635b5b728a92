package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Product as returned by the catalog backend. Price may arrive as a JSON number
// or a JSON string; decimal accepts both.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	ImageURL    *string         `json:"imageUrl,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
	Category    CategoryRef     `json:"category"`
}

// UnmarshalJSON also honours a flat categoryId field, which some backend
// responses send instead of (or next to) the category relation.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var raw struct {
		plain
		CategoryID *CategoryRef `json:"categoryId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.plain)
	if p.Category.IsZero() && raw.CategoryID != nil {
		p.Category = *raw.CategoryID
	}
	return nil
}

// CategoryID is the id of the referenced category, or "".
func (p Product) CategoryID() string {
	return p.Category.ID()
}
