// Package products manages the veterinary supply catalogue.
package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue item. Price is the current list price;
// order lines snapshot it at creation time.
type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	CategoryID  int64           `json:"category_id"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductForm is the create/update payload.
type ProductForm struct {
	SKU         string          `json:"sku" validate:"required,max=64"`
	Name        string          `json:"name" validate:"required,max=200"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Unit        string          `json:"unit" validate:"required,max=32"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description" validate:"max=1000"`
}
