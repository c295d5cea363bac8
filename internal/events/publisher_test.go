package events

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront-ingest/internal/domain/order"
)

type fakeRedis struct {
	channel string
	message any
	err     error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message = message
	return redis.NewIntResult(1, f.err)
}

func testEvent() order.Placed {
	return order.Placed{
		OrderID:           42,
		OrderGUID:         uuid.MustParse("3f1c0e2a-8d4b-4c55-9a3e-1b2c3d4e5f60"),
		CustomOrderNumber: "42",
		StoreID:           7,
		CustomerID:        9,
		OrderTotal:        decimal.RequireFromString("25.50"),
		CurrencyCode:      "USD",
		CreatedAt:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "")

	require.NoError(t, p.PublishOrderPlaced(context.Background(), testEvent()))
	assert.Equal(t, DefaultChannel, client.channel)

	payload, ok := client.message.([]byte)
	require.True(t, ok)

	fields := map[string]string{}
	d := jx.DecodeBytes(payload)
	require.NoError(t, d.Obj(func(d *jx.Decoder, key string) error {
		raw, err := d.Raw()
		if err != nil {
			return err
		}
		fields[key] = raw.String()
		return nil
	}))

	assert.Equal(t, "42", fields["order_id"])
	assert.Equal(t, `"3f1c0e2a-8d4b-4c55-9a3e-1b2c3d4e5f60"`, fields["order_guid"])
	assert.Equal(t, `"25.5"`, fields["order_total"])
	assert.Equal(t, `"USD"`, fields["currency_code"])
	assert.Equal(t, `"2026-03-14T09:30:00Z"`, fields["created_at"])
}

func TestRedisPublisher_CustomChannel(t *testing.T) {
	client := &fakeRedis{}
	p := NewRedisPublisher(client, "storefront.orders")

	require.NoError(t, p.PublishOrderPlaced(context.Background(), testEvent()))
	assert.Equal(t, "storefront.orders", client.channel)
}

func TestRedisPublisher_Error(t *testing.T) {
	client := &fakeRedis{err: errors.New("connection refused")}
	p := NewRedisPublisher(client, "")

	err := p.PublishOrderPlaced(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order 42")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLogPublisher(t *testing.T) {
	assert.NoError(t, LogPublisher{}.PublishOrderPlaced(context.Background(), testEvent()))
}
