package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-ingest/internal/domain/customer"
)

// Fixed values written on every ingested order.
const (
	zeroTaxRates = "0:0;"
	// ActivityPlaceOrder is the activity-log keyword for a placed order.
	ActivityPlaceOrder = "PublicStore.PlaceOrder"
)

// Order is the aggregate root of an ingested sale.
type Order struct {
	ID                int64
	GUID              uuid.UUID
	StoreID           int64
	CustomerID        int64
	CustomerLocaleID  int64
	CustomOrderNumber string

	OrderSubtotalInclTax         decimal.Decimal
	OrderSubtotalExclTax         decimal.Decimal
	OrderSubTotalDiscountInclTax decimal.Decimal
	OrderSubTotalDiscountExclTax decimal.Decimal
	OrderShippingInclTax         decimal.Decimal
	OrderShippingExclTax         decimal.Decimal
	PaymentMethodFeeInclTax      decimal.Decimal
	PaymentMethodFeeExclTax      decimal.Decimal
	OrderTax                     decimal.Decimal
	OrderDiscount                decimal.Decimal
	OrderTotal                   decimal.Decimal
	RefundedAmount               decimal.Decimal
	TaxRates                     string
	CurrencyCode                 string
	CurrencyRate                 decimal.Decimal

	OrderStatus             OrderStatus
	PaymentStatus           PaymentStatus
	ShippingStatus          ShippingStatus
	PaymentMethodSystemName string
	ShippingMethod          string
	PickupInStore           bool

	BillingAddress  customer.Address
	ShippingAddress customer.Address

	CreatedAt time.Time
}

// Item is a line of an order.
type Item struct {
	ID                    int64
	GUID                  uuid.UUID
	OrderID               int64
	ProductID             int64
	Quantity              int
	UnitPriceInclTax      decimal.Decimal
	UnitPriceExclTax      decimal.Decimal
	PriceInclTax          decimal.Decimal
	PriceExclTax          decimal.Decimal
	DiscountAmountInclTax decimal.Decimal
	DiscountAmountExclTax decimal.Decimal
	AttributeDescription  string
	ItemWeight            decimal.NullDecimal
	DownloadCount         int
	IsDownloadActivated   bool
	LicenseDownloadID     *int64
}

// Note is free text attached to an order.
type Note struct {
	ID        int64
	OrderID   int64
	Note      string
	CreatedAt time.Time
}

// Activity is an activity-log entry.
type Activity struct {
	SystemKeyword string
	Comment       string
	EntityID      int64
	EntityName    string
	CustomerID    int64
	CreatedAt     time.Time
}

// Placed is the notification published after an order is persisted.
type Placed struct {
	OrderID           int64
	OrderGUID         uuid.UUID
	CustomOrderNumber string
	StoreID           int64
	CustomerID        int64
	OrderTotal        decimal.Decimal
	CurrencyCode      string
	CreatedAt         time.Time
}

// ShippedOrder is one result row of the shipment status query.
type ShippedOrder struct {
	OrderID int64
	Shipped bool
}

// Repository persists orders and their child rows. Each method is a single
// statement; there is no transaction spanning calls.
type Repository interface {
	// Create inserts o and sets o.ID.
	Create(ctx context.Context, o *Order) error
	SetCustomOrderNumber(ctx context.Context, id int64, number string) error
	Delete(ctx context.Context, id int64) error
	// CreateItem inserts it and sets it.ID.
	CreateItem(ctx context.Context, it *Item) error
	// CreateNote inserts n and sets n.ID.
	CreateNote(ctx context.Context, n *Note) error
	// ShippedAmong returns the subset of ids whose shipping status is past
	// "not yet shipped", in a single read.
	ShippedAmong(ctx context.Context, ids []int64) ([]int64, error)
}

// ActivityLog records customer activity.
type ActivityLog interface {
	Insert(ctx context.Context, a Activity) error
}

// Publisher broadcasts order-placed notifications.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, e Placed) error
}
