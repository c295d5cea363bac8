// Package events broadcasts order-placed notifications to downstream
// consumers.
package events

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/domain/order"
)

// DefaultChannel is the pub/sub channel order-placed events go to.
const DefaultChannel = "orders.placed"

// publisher is the subset of *redis.Client used here.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

var _ order.Publisher = (*RedisPublisher)(nil)

// RedisPublisher publishes order-placed events on a Redis channel.
type RedisPublisher struct {
	client  publisher
	channel string
}

// NewRedisPublisher creates a RedisPublisher. An empty channel selects
// DefaultChannel.
func NewRedisPublisher(client publisher, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// PublishOrderPlaced encodes e and publishes it. Zero subscribers is not an
// error.
func (p *RedisPublisher) PublishOrderPlaced(ctx context.Context, e order.Placed) error {
	payload := EncodePlaced(e)
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish order %d to %q", e.OrderID, p.channel)
	}
	return nil
}

// EncodePlaced renders e as the JSON event payload.
func EncodePlaced(e order.Placed) []byte {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("order_id", func(enc *jx.Encoder) { enc.Int64(e.OrderID) })
		enc.Field("order_guid", func(enc *jx.Encoder) { enc.Str(e.OrderGUID.String()) })
		enc.Field("custom_order_number", func(enc *jx.Encoder) { enc.Str(e.CustomOrderNumber) })
		enc.Field("store_id", func(enc *jx.Encoder) { enc.Int64(e.StoreID) })
		enc.Field("customer_id", func(enc *jx.Encoder) { enc.Int64(e.CustomerID) })
		enc.Field("order_total", func(enc *jx.Encoder) { enc.Str(e.OrderTotal.String()) })
		enc.Field("currency_code", func(enc *jx.Encoder) { enc.Str(e.CurrencyCode) })
		enc.Field("created_at", func(enc *jx.Encoder) { enc.Str(e.CreatedAt.UTC().Format(time.RFC3339)) })
	})
	return enc.Bytes()
}

var _ order.Publisher = LogPublisher{}

// LogPublisher writes order-placed events to the context logger. It stands
// in when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) PublishOrderPlaced(ctx context.Context, e order.Placed) error {
	zctx.From(ctx).Info("Order placed",
		zap.Int64("order_id", e.OrderID),
		zap.String("custom_order_number", e.CustomOrderNumber),
		zap.Int64("store_id", e.StoreID),
		zap.String("order_total", e.OrderTotal.String()),
		zap.String("currency_code", e.CurrencyCode),
	)
	return nil
}
