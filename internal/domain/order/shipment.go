package order

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// QueryShipped reports which of ids belong to shipped orders. Only shipped
// orders appear in the result; an absent id is "not confirmed shipped", which
// covers both unknown orders and orders not yet shipped.
func (s *Service) QueryShipped(ctx context.Context, token string, ids []int64) ([]ShippedOrder, error) {
	ctx, span := s.tracer.Start(ctx, "order.QueryShipped")
	defer span.End()

	if _, err := s.authenticate(ctx, token); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(ids) == 0 {
		return nil, &ValidationError{Reason: "expected at least one order id"}
	}

	shipped, err := s.orders.ShippedAmong(ctx, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.Wrap(err, "query shipped orders")
	}
	span.SetAttributes(
		attribute.Int("orders.requested", len(ids)),
		attribute.Int("orders.shipped", len(shipped)),
	)

	out := make([]ShippedOrder, len(shipped))
	for i, id := range shipped {
		out[i] = ShippedOrder{OrderID: id, Shipped: true}
	}
	return out, nil
}
