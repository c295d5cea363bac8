package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/clock"
	"github.com/xenking/storefront-ingest/internal/domain/customer"
	"github.com/xenking/storefront-ingest/internal/domain/product"
	"github.com/xenking/storefront-ingest/internal/domain/store"
)

// Lookup resolves the calling store and reference data.
type Lookup interface {
	ResolveStore(ctx context.Context, token string) (*store.Store, error)
	ResolvePrimaryCurrency(ctx context.Context, s *store.Store) (*store.Currency, error)
	ResolveCountry(ctx context.Context, isoCode string) (*store.Country, error)
	ResolveLocale(ctx context.Context, name string) (*store.Locale, error)
}

// InventoryAdjuster applies signed stock deltas to a product.
type InventoryAdjuster interface {
	Adjust(ctx context.Context, p *product.Product, delta int) error
}

// ServiceDeps are the collaborators of Service. All fields are required.
type ServiceDeps struct {
	Lookup     Lookup
	Customers  customer.Repository
	Orders     Repository
	Products   product.Repository
	Inventory  InventoryAdjuster
	Activities ActivityLog
	Publisher  Publisher
	Clock      clock.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithTracerProvider sets the tracer provider used for ingestion spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("storefront-ingest/order") }
}

// WithMeterProvider sets the meter provider used for ingestion counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter("storefront-ingest/order") }
}

// WithSideEffectReporter overrides where best-effort failures are sent.
// Defaults to LogReporter.
func WithSideEffectReporter(r SideEffectReporter) Option {
	return func(s *Service) { s.reporter = r }
}

// WithNumberFormatter overrides the order number scheme. Defaults to
// MaskFormatter with DefaultNumberMask.
func WithNumberFormatter(f NumberFormatter) Option {
	return func(s *Service) { s.numbers = f }
}

// Service ingests channel orders and answers shipment queries.
type Service struct {
	lookup     Lookup
	customers  customer.Repository
	orders     Repository
	products   product.Repository
	inventory  InventoryAdjuster
	activities ActivityLog
	publisher  Publisher
	clock      clock.Clock

	numbers  NumberFormatter
	reporter SideEffectReporter
	tracer   trace.Tracer
	meter    metric.Meter

	created     metric.Int64Counter
	compensated metric.Int64Counter
	sideFailed  metric.Int64Counter
}

// NewService creates a Service.
func NewService(deps ServiceDeps, opts ...Option) *Service {
	s := &Service{
		lookup:     deps.Lookup,
		customers:  deps.Customers,
		orders:     deps.Orders,
		products:   deps.Products,
		inventory:  deps.Inventory,
		activities: deps.Activities,
		publisher:  deps.Publisher,
		clock:      deps.Clock,
		numbers:    MaskFormatter{Mask: DefaultNumberMask},
		reporter:   LogReporter{},
		tracer:     tracenoop.NewTracerProvider().Tracer("storefront-ingest/order"),
		meter:      metricnoop.NewMeterProvider().Meter("storefront-ingest/order"),
	}
	for _, o := range opts {
		o(s)
	}
	s.created = int64Counter(s.meter, "ingest.orders.created", "Orders persisted from channel submissions")
	s.compensated = int64Counter(s.meter, "ingest.orders.compensated", "Orders deleted after a failed ingestion step")
	s.sideFailed = int64Counter(s.meter, "ingest.side_effects.failed", "Best-effort ingestion steps that failed")
	return s
}

func int64Counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = metricnoop.NewMeterProvider().Meter("").Int64Counter(name)
	}
	return c
}

// authenticate resolves token to a store, mapping unknown tokens to
// ErrUnauthorized.
func (s *Service) authenticate(ctx context.Context, token string) (*store.Store, error) {
	st, err := s.lookup.ResolveStore(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrUnknownToken) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "resolve store")
	}
	return st, nil
}

// Authenticate reports whether token resolves to a store. Unknown or empty
// tokens yield ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) error {
	_, err := s.authenticate(ctx, token)
	return err
}

// StoreCurrency returns the primary currency of the store owning token.
func (s *Service) StoreCurrency(ctx context.Context, token string) (*store.Currency, error) {
	st, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	c, err := s.lookup.ResolvePrimaryCurrency(ctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "resolve primary currency")
	}
	return c, nil
}

// Ingest persists sub as an order of the store owning token and returns the
// order id.
//
// Writes happen one entity at a time: customer, order, order number, then per
// line the item and the inventory decrement. If a step fails once the order
// row exists, the order row is deleted before returning. The customer, items
// already inserted and stock already decremented are left in place. Notes,
// the activity entry and the order-placed event are best-effort.
//
// Every failure except ErrUnauthorized is an *IngestError carrying the
// submission.
func (s *Service) Ingest(ctx context.Context, token string, sub *Submission) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "order.Ingest")
	defer span.End()

	st, err := s.authenticate(ctx, token)
	if errors.Is(err, ErrUnauthorized) {
		span.SetStatus(codes.Error, "unauthorized")
		return 0, err
	}

	var o *Order
	if err == nil {
		o, err = s.persist(ctx, st, sub)
	}
	if err != nil {
		if o != nil && o.ID > 0 {
			s.compensate(ctx, o.ID)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, s.ingestError(ctx, sub, err)
	}

	span.SetAttributes(
		attribute.Int64("order.id", o.ID),
		attribute.Int64("store.id", st.ID),
		attribute.Int("order.items", len(sub.OrderItems)),
	)
	s.created.Add(ctx, 1)

	s.recordNotes(ctx, o, sub.Notes)
	s.announce(ctx, o)

	return o.ID, nil
}

// persist runs the required steps of ingestion. The returned order is non-nil
// as soon as its row exists, including on error.
func (s *Service) persist(ctx context.Context, st *store.Store, sub *Submission) (*Order, error) {
	currency, err := s.lookup.ResolvePrimaryCurrency(ctx, st)
	if err != nil {
		return nil, errors.Wrap(err, "resolve primary currency")
	}

	if err := Validate(sub); err != nil {
		return nil, err
	}

	country, err := s.lookup.ResolveCountry(ctx, sub.Address.TwoLetterCountryCode)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{
				Reason: fmt.Sprintf("country %q not recognised", sub.Address.TwoLetterCountryCode),
				Err:    err,
			}
		}
		return nil, errors.Wrap(err, "resolve country")
	}

	locale, err := s.lookup.ResolveLocale(ctx, store.SupportedLocale)
	if err != nil {
		return nil, errors.Wrap(err, "resolve locale")
	}

	g, err := Assemble(sub, Refs{Store: st, Currency: currency, Country: country, Locale: locale}, s.clock.Now())
	if err != nil {
		return nil, err
	}

	c := &g.Customer
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "insert customer")
	}
	if err := s.customers.AssignRole(ctx, c.ID, customer.GuestsRoleName); err != nil {
		return nil, errors.Wrap(err, "assign guest role")
	}
	s.saveCustomerName(ctx, c.ID, sub.Address)

	o := &g.Order
	o.CustomerID = c.ID
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	number := s.numbers.Format(o)
	if err := s.orders.SetCustomOrderNumber(ctx, o.ID, number); err != nil {
		return o, errors.Wrap(err, "assign order number")
	}
	o.CustomOrderNumber = number

	for i, line := range sub.OrderItems {
		p, err := s.products.GetByID(ctx, line.ExternalProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return o, &ProductNotFoundError{ProductID: line.ExternalProductID}
			}
			return o, errors.Wrapf(err, "get product %d", line.ExternalProductID)
		}

		it := &g.Items[i]
		it.OrderID = o.ID
		it.ProductID = p.ID
		if err := s.orders.CreateItem(ctx, it); err != nil {
			return o, errors.Wrapf(err, "insert order item for product %d", p.ID)
		}
		if err := s.inventory.Adjust(ctx, p, -line.Quantity); err != nil {
			return o, err
		}
	}

	return o, nil
}

// compensate deletes the order row of a failed ingestion. It runs even if
// ctx was cancelled.
func (s *Service) compensate(ctx context.Context, orderID int64) {
	lg := zctx.From(ctx)
	if err := s.orders.Delete(context.WithoutCancel(ctx), orderID); err != nil {
		lg.Error("Compensation failed, order left in place",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return
	}
	s.compensated.Add(ctx, 1)
	lg.Warn("Order deleted after failed ingestion", zap.Int64("order_id", orderID))
}

func (s *Service) ingestError(ctx context.Context, sub *Submission, err error) error {
	raw, merr := json.Marshal(sub)
	if merr != nil {
		raw = nil
	}
	zctx.From(ctx).Error("Ingest order failed",
		zap.Error(err),
		zap.Stringer("kind", KindOf(err)),
		zap.ByteString("submission", raw),
	)
	return &IngestError{Err: err, Submission: raw}
}

func (s *Service) report(ctx context.Context, effect string, err error) {
	s.sideFailed.Add(ctx, 1, metric.WithAttributes(attribute.String("effect", effect)))
	s.reporter.Report(ctx, effect, err)
}

func (s *Service) saveCustomerName(ctx context.Context, customerID int64, addr *SubmissionAddress) {
	for _, attr := range []struct{ key, value string }{
		{customer.AttributeFirstName, addr.FirstName},
		{customer.AttributeLastName, addr.LastName},
	} {
		if attr.value == "" {
			continue
		}
		if err := s.customers.SaveAttribute(ctx, customerID, attr.key, attr.value); err != nil {
			s.report(ctx, EffectCustomerAttribute, errors.Wrapf(err, "save %s", attr.key))
		}
	}
}

// recordNotes stores each note independently; a failed note does not skip the
// rest.
func (s *Service) recordNotes(ctx context.Context, o *Order, notes []string) {
	for _, text := range notes {
		n := &Note{OrderID: o.ID, Note: text, CreatedAt: s.clock.Now()}
		if err := s.orders.CreateNote(ctx, n); err != nil {
			s.report(ctx, EffectOrderNote, errors.Wrapf(err, "insert note for order %d", o.ID))
		}
	}
}

func (s *Service) announce(ctx context.Context, o *Order) {
	now := s.clock.Now()
	err := s.activities.Insert(ctx, Activity{
		SystemKeyword: ActivityPlaceOrder,
		Comment:       fmt.Sprintf("Placed a new order (ID = %d)", o.ID),
		EntityID:      o.ID,
		EntityName:    "Order",
		CustomerID:    o.CustomerID,
		CreatedAt:     now,
	})
	if err != nil {
		s.report(ctx, EffectActivityLog, errors.Wrap(err, "insert activity"))
	}

	err = s.publisher.PublishOrderPlaced(ctx, Placed{
		OrderID:           o.ID,
		OrderGUID:         o.GUID,
		CustomOrderNumber: o.CustomOrderNumber,
		StoreID:           o.StoreID,
		CustomerID:        o.CustomerID,
		OrderTotal:        o.OrderTotal,
		CurrencyCode:      o.CurrencyCode,
		CreatedAt:         o.CreatedAt,
	})
	if err != nil {
		s.report(ctx, EffectOrderPlacedEvent, errors.Wrap(err, "publish order placed"))
	}
}
