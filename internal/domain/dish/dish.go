// Package dish defines the menu catalog domain types.
package dish

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested dish does not exist.
var ErrNotFound = errors.New("dish not found")

// Dish is a menu item available for purchase.
type Dish struct {
	ID   string
	Name string
	// Price is the current selling price; OriginalPrice is the pre-promotion
	// price, zero when the dish is not discounted.
	Price         decimal.Decimal
	OriginalPrice decimal.Decimal
	CategoryID    string
	Image         string
	Description   string
}

// Repository defines read operations for the menu catalog.
type Repository interface {
	List(ctx context.Context) ([]Dish, error)
	GetByID(ctx context.Context, id string) (*Dish, error)
	GetByIDs(ctx context.Context, ids []string) ([]Dish, error)
}
