package product

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-ingest/internal/clock"
)

// Adjuster applies stock deltas and stamps the product's modification time,
// which the stock primitive leaves unchanged.
type Adjuster struct {
	products Repository
	clock    clock.Clock
}

// NewAdjuster creates an Adjuster.
func NewAdjuster(products Repository, clk clock.Clock) *Adjuster {
	return &Adjuster{products: products, clock: clk}
}

// Adjust adds delta (negative for a sale) to p's stock and updates
// p.UpdatedAt. Failures are returned as-is; there are no retries.
func (a *Adjuster) Adjust(ctx context.Context, p *Product, delta int) error {
	if err := a.products.AdjustStock(ctx, p.ID, delta); err != nil {
		return errors.Wrapf(err, "adjust stock of product %d by %d", p.ID, delta)
	}
	p.StockQuantity += delta

	now := a.clock.Now()
	if err := a.products.Touch(ctx, p.ID, now); err != nil {
		return errors.Wrapf(err, "touch product %d", p.ID)
	}
	p.UpdatedAt = now
	return nil
}
