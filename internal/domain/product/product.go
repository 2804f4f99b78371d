package product

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Prices are kept
// in integer minor units (öre) to avoid floating point drift.
type Product struct {
	ID         string
	Slug       string
	Title      string
	Category   string
	PriceCents int64
	Currency   string
	Active     bool
}

// Purchasable reports whether the product can be added to a cart. Zero-priced
// rows exist for display-only items and samples.
func (p Product) Purchasable() bool {
	return p.Active && p.PriceCents > 0
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
