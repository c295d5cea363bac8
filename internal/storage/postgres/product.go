package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/product"
)

const (
	getProductByIDSQL = `SELECT id, name, sku, price, stock_quantity, updated_at
		FROM products WHERE id = $1`

	adjustStockSQL = `UPDATE products SET stock_quantity = stock_quantity + $2 WHERE id = $1`

	touchProductSQL = `UPDATE products SET updated_at = $2 WHERE id = $1`

	upsertProductSQL = `INSERT INTO products (id, name, sku, price, stock_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sku = EXCLUDED.sku,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			updated_at = EXCLUDED.updated_at`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// AdjustStock adds delta to the product's stock quantity.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, delta int) error {
	tag, err := r.pool.Exec(ctx, adjustStockSQL, id, delta)
	if err != nil {
		return fmt.Errorf("adjusting stock of product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Touch sets the product's modification time.
func (r *ProductRepository) Touch(ctx context.Context, id int64, at time.Time) error {
	if _, err := r.pool.Exec(ctx, touchProductSQL, id, at); err != nil {
		return fmt.Errorf("touching product %d: %w", id, err)
	}
	return nil
}

// UpsertBatch inserts or replaces products in one round trip. Used by the
// catalog tools.
func (r *ProductRepository) UpsertBatch(ctx context.Context, products []product.Product) error {
	batch := &pgx.Batch{}
	for _, p := range products {
		batch.Queue(upsertProductSQL, p.ID, p.Name, p.SKU, p.Price, p.StockQuantity, p.UpdatedAt)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d products: %w", len(products), err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.StockQuantity, &p.UpdatedAt)
	return p, err
}
