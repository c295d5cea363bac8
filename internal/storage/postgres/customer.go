package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/customer"
)

const (
	createCustomerSQL = `INSERT INTO customers (
		username, email, active, deleted, is_system_account, created_at, last_activity_at,
		ship_first_name, ship_last_name, ship_email, ship_company, ship_country_id,
		ship_city, ship_address1, ship_address2, ship_zip, ship_phone
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING id`

	assignRoleSQL = `INSERT INTO customer_role_mappings (customer_id, role_id)
		SELECT $1, id FROM customer_roles WHERE system_name = $2`

	saveAttributeSQL = `INSERT INTO generic_attributes (entity_id, key_group, key, value)
		VALUES ($1, 'Customer', $2, $3)
		ON CONFLICT (entity_id, key_group, key) DO UPDATE SET value = EXCLUDED.value`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Create inserts c with its embedded shipping address and sets c.ID.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	a := c.ShippingAddress
	err := r.pool.QueryRow(ctx, createCustomerSQL,
		c.Username, c.Email, c.Active, c.Deleted, c.IsSystemAccount, c.CreatedAt, c.LastActivityAt,
		a.FirstName, a.LastName, a.Email, a.Company, nullID(a.CountryID),
		a.City, a.Address1, a.Address2, a.ZipPostalCode, a.PhoneNumber,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.Email, err)
	}
	return nil
}

// AssignRole maps the customer to the role with the given system name. A
// missing role is an error.
func (r *CustomerRepository) AssignRole(ctx context.Context, customerID int64, roleSystemName string) error {
	tag, err := r.pool.Exec(ctx, assignRoleSQL, customerID, roleSystemName)
	if err != nil {
		return fmt.Errorf("assigning role %q to customer %d: %w", roleSystemName, customerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer role %q not found", roleSystemName)
	}
	return nil
}

// SaveAttribute upserts a customer attribute.
func (r *CustomerRepository) SaveAttribute(ctx context.Context, customerID int64, key, value string) error {
	if _, err := r.pool.Exec(ctx, saveAttributeSQL, customerID, key, value); err != nil {
		return fmt.Errorf("saving attribute %q of customer %d: %w", key, customerID, err)
	}
	return nil
}

// nullID maps the zero id to NULL for optional references.
func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
