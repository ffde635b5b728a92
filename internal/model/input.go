package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductInput holds the values an administrator entered for a new product.
// Price is nil when nothing was entered.
type ProductInput struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock" validate:"gte=0"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,url"`
	CategoryID  string           `json:"category" validate:"required"`
}

// Normalize trims free-text fields.
func (in ProductInput) Normalize() ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	return in
}

type CategoryInput struct {
	Name string `json:"name" validate:"required"`
}

func (in CategoryInput) Normalize() CategoryInput {
	in.Name = strings.TrimSpace(in.Name)
	return in
}
