package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item whose stock is decremented by ingested orders.
type Product struct {
	ID            int64
	Name          string
	SKU           string
	Price         decimal.Decimal
	StockQuantity int
	UpdatedAt     time.Time
}

// Repository defines catalog reads and the stock mutations used by ingestion.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	// AdjustStock adds delta to the stock quantity. It does not touch UpdatedAt.
	AdjustStock(ctx context.Context, id int64, delta int) error
	// Touch sets the product's UpdatedAt.
	Touch(ctx context.Context, id int64, at time.Time) error
}
