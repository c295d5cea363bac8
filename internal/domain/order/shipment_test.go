package order

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryShipped(t *testing.T) {
	f := newFixture()
	f.orders.orders = map[int64]*Order{
		1: {ID: 1, ShippingStatus: ShippingStatusNotYetShipped},
		2: {ID: 2, ShippingStatus: ShippingStatusShipped},
		3: {ID: 3, ShippingStatus: ShippingStatusNotRequired},
	}

	result, err := f.svc.QueryShipped(context.Background(), testToken, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []ShippedOrder{{OrderID: 2, Shipped: true}}, result)
}

func TestQueryShipped_PastNotYetShipped(t *testing.T) {
	f := newFixture()
	f.orders.orders = map[int64]*Order{
		1: {ID: 1, ShippingStatus: ShippingStatusPartiallyShipped},
		2: {ID: 2, ShippingStatus: ShippingStatusDelivered},
	}

	result, err := f.svc.QueryShipped(context.Background(), testToken, []int64{1, 2, 99})
	require.NoError(t, err)
	assert.Equal(t, []ShippedOrder{
		{OrderID: 1, Shipped: true},
		{OrderID: 2, Shipped: true},
	}, result)
}

func TestQueryShipped_FreshOrderIsAbsent(t *testing.T) {
	f := newFixture(newTestProduct(1, 10))

	id, err := f.svc.Ingest(context.Background(), testToken, newTestSubmission(line(1, 1)))
	require.NoError(t, err)

	result, err := f.svc.QueryShipped(context.Background(), testToken, []int64{id})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestQueryShipped_Errors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.QueryShipped(context.Background(), "nope", []int64{1})
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("empty ids", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.QueryShipped(context.Background(), testToken, nil)
		require.ErrorIs(t, err, ErrInvalid)
		assert.Equal(t, KindInvalid, KindOf(err))
	})

	t.Run("storage failure", func(t *testing.T) {
		f := newFixture()
		f.orders.queryErr = errors.New("db down")
		_, err := f.svc.QueryShipped(context.Background(), testToken, []int64{1})
		require.Error(t, err)
		assert.Equal(t, KindInternal, KindOf(err))
	})
}
