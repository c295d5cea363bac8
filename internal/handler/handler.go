// Package handler adapts the order service to the storefront channel's JSON
// endpoints.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront-ingest/internal/domain/order"
	"github.com/xenking/storefront-ingest/internal/domain/store"
)

// TokenHeader carries the caller's store token.
const TokenHeader = "Store-Token"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// OrderService is implemented by *order.Service.
type OrderService interface {
	Authenticate(ctx context.Context, token string) error
	StoreCurrency(ctx context.Context, token string) (*store.Currency, error)
	Ingest(ctx context.Context, token string, sub *order.Submission) (int64, error)
	QueryShipped(ctx context.Context, token string, ids []int64) ([]order.ShippedOrder, error)
}

var _ OrderService = (*order.Service)(nil)

// Handler serves the channel endpoints.
type Handler struct {
	orders OrderService
}

// NewHandler creates a Handler over orders.
func NewHandler(orders OrderService) *Handler {
	return &Handler{orders: orders}
}

// Mount registers the channel endpoints on r under
// /api/polycommerce/orders.
func (h *Handler) Mount(r chi.Router) {
	r.Route("/api/polycommerce/orders", func(r chi.Router) {
		r.Get("/get_store_currency", h.StoreCurrency)
		r.Post("/add", h.AddOrder)
		r.Post("/check_for_shipped_orders", h.CheckForShippedOrders)
	})
}

func token(r *http.Request) string {
	return r.Header.Get(TokenHeader)
}
