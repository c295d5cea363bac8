package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/customer"
	"github.com/xenking/storefront-ingest/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		order_guid, store_id, customer_id, customer_language_id, custom_order_number,
		order_subtotal_incl_tax, order_subtotal_excl_tax,
		order_subtotal_discount_incl_tax, order_subtotal_discount_excl_tax,
		order_shipping_incl_tax, order_shipping_excl_tax,
		payment_method_fee_incl_tax, payment_method_fee_excl_tax,
		order_tax, order_discount, order_total, refunded_amount,
		tax_rates, currency_code, currency_rate,
		order_status_id, payment_status_id, shipping_status_id,
		payment_method_system_name, shipping_method, pickup_in_store,
		billing_first_name, billing_last_name, billing_email, billing_company, billing_country_id,
		billing_city, billing_address1, billing_address2, billing_zip, billing_phone,
		shipping_first_name, shipping_last_name, shipping_email, shipping_company, shipping_country_id,
		shipping_city, shipping_address1, shipping_address2, shipping_zip, shipping_phone,
		created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7,
		$8, $9,
		$10, $11,
		$12, $13,
		$14, $15, $16, $17,
		$18, $19, $20,
		$21, $22, $23,
		$24, $25, $26,
		$27, $28, $29, $30, $31,
		$32, $33, $34, $35, $36,
		$37, $38, $39, $40, $41,
		$42, $43, $44, $45, $46,
		$47
	) RETURNING id`

	setCustomOrderNumberSQL = `UPDATE orders SET custom_order_number = $2 WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`

	createOrderItemSQL = `INSERT INTO order_items (
		order_item_guid, order_id, product_id, quantity,
		unit_price_incl_tax, unit_price_excl_tax, price_incl_tax, price_excl_tax,
		discount_amount_incl_tax, discount_amount_excl_tax,
		attribute_description, item_weight, download_count, is_download_activated, license_download_id
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id`

	createOrderNoteSQL = `INSERT INTO order_notes (order_id, note, created_at)
		VALUES ($1, $2, $3) RETURNING id`

	shippedAmongSQL = `SELECT id FROM orders
		WHERE id = ANY($1) AND shipping_status_id > $2
		ORDER BY id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts o and sets o.ID.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := []any{
		o.GUID, o.StoreID, o.CustomerID, o.CustomerLocaleID, o.CustomOrderNumber,
		o.OrderSubtotalInclTax, o.OrderSubtotalExclTax,
		o.OrderSubTotalDiscountInclTax, o.OrderSubTotalDiscountExclTax,
		o.OrderShippingInclTax, o.OrderShippingExclTax,
		o.PaymentMethodFeeInclTax, o.PaymentMethodFeeExclTax,
		o.OrderTax, o.OrderDiscount, o.OrderTotal, o.RefundedAmount,
		o.TaxRates, o.CurrencyCode, o.CurrencyRate,
		int(o.OrderStatus), int(o.PaymentStatus), int(o.ShippingStatus),
		o.PaymentMethodSystemName, o.ShippingMethod, o.PickupInStore,
	}
	args = append(args, addressArgs(o.BillingAddress)...)
	args = append(args, addressArgs(o.ShippingAddress)...)
	args = append(args, o.CreatedAt)

	if err := r.pool.QueryRow(ctx, createOrderSQL, args...).Scan(&o.ID); err != nil {
		return fmt.Errorf("creating order %s: %w", o.GUID, err)
	}
	return nil
}

// SetCustomOrderNumber stores the display number of an order.
func (r *OrderRepository) SetCustomOrderNumber(ctx context.Context, id int64, number string) error {
	tag, err := r.pool.Exec(ctx, setCustomOrderNumberSQL, id, number)
	if err != nil {
		return fmt.Errorf("setting number of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting number of order %d: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// Delete removes the order row. Notes cascade; items do not.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.pool.Exec(ctx, deleteOrderSQL, id); err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	return nil
}

// CreateItem inserts it and sets it.ID.
func (r *OrderRepository) CreateItem(ctx context.Context, it *order.Item) error {
	err := r.pool.QueryRow(ctx, createOrderItemSQL,
		it.GUID, it.OrderID, it.ProductID, it.Quantity,
		it.UnitPriceInclTax, it.UnitPriceExclTax, it.PriceInclTax, it.PriceExclTax,
		it.DiscountAmountInclTax, it.DiscountAmountExclTax,
		it.AttributeDescription, it.ItemWeight, it.DownloadCount, it.IsDownloadActivated, it.LicenseDownloadID,
	).Scan(&it.ID)
	if err != nil {
		return fmt.Errorf("creating item of order %d for product %d: %w", it.OrderID, it.ProductID, err)
	}
	return nil
}

// CreateNote inserts n and sets n.ID.
func (r *OrderRepository) CreateNote(ctx context.Context, n *order.Note) error {
	if err := r.pool.QueryRow(ctx, createOrderNoteSQL, n.OrderID, n.Note, n.CreatedAt).Scan(&n.ID); err != nil {
		return fmt.Errorf("creating note of order %d: %w", n.OrderID, err)
	}
	return nil
}

// ShippedAmong returns the ids from the given set whose shipping status is
// past "not yet shipped".
func (r *OrderRepository) ShippedAmong(ctx context.Context, ids []int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, shippedAmongSQL, ids, int(order.ShippingStatusNotYetShipped))
	if err != nil {
		return nil, fmt.Errorf("querying shipped orders: %w", err)
	}

	shipped, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("collecting shipped orders: %w", err)
	}
	return shipped, nil
}

func addressArgs(a customer.Address) []any {
	return []any{
		a.FirstName, a.LastName, a.Email, a.Company, nullID(a.CountryID),
		a.City, a.Address1, a.Address2, a.ZipPostalCode, a.PhoneNumber,
	}
}
