package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/order"
)

const insertActivitySQL = `INSERT INTO activity_log
	(system_keyword, comment, entity_id, entity_name, customer_id, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

var _ order.ActivityLog = (*ActivityRepository)(nil)

// ActivityRepository appends to the activity log.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns an ActivityRepository that uses the given pool.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Insert(ctx context.Context, a order.Activity) error {
	_, err := r.pool.Exec(ctx, insertActivitySQL,
		a.SystemKeyword, a.Comment, nullID(a.EntityID), a.EntityName, nullID(a.CustomerID), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting activity %q: %w", a.SystemKeyword, err)
	}
	return nil
}
