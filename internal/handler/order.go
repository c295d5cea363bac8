package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/domain/order"
)

// StoreCurrency answers {"CurrencyCode": ...} for the caller's store.
func (h *Handler) StoreCurrency(w http.ResponseWriter, r *http.Request) {
	c, err := h.orders.StoreCurrency(r.Context(), token(r))
	if err != nil {
		if order.KindOf(err) == order.KindUnauthorized {
			writeUnauthorized(w)
			return
		}
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("CurrencyCode", func(e *jx.Encoder) { e.Str(c.Code) })
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}

// AddOrder ingests one submission and answers {"OrderId": ...}. Every failure
// other than an unknown token is a 400 echoing the submission. The token is
// checked before the body is read.
func (h *Handler) AddOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Authenticate(r.Context(), token(r)); err != nil {
		if order.KindOf(err) == order.KindUnauthorized {
			writeUnauthorized(w)
			return
		}
		writeRejected(w, err, nil)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeRejected(w, errors.Wrap(err, "read body"), nil)
		return
	}

	var sub *order.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		var echo []byte
		if json.Valid(body) {
			echo = body
		}
		writeRejected(w, errors.Wrap(err, "decode submission"), echo)
		return
	}

	id, err := h.orders.Ingest(r.Context(), token(r), sub)
	if err != nil {
		if order.KindOf(err) == order.KindUnauthorized {
			writeUnauthorized(w)
			return
		}
		var ie *order.IngestError
		var echo []byte
		if errors.As(err, &ie) {
			echo = ie.Submission
		}
		writeRejected(w, err, echo)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("OrderId", func(e *jx.Encoder) { e.Int64(id) })
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}

// CheckForShippedOrders answers the subset of {"OrderIds": [...]} that has
// shipped, each as {"OrderId": id, "Shipped": true}. The token is checked
// before the body is read.
func (h *Handler) CheckForShippedOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.Authenticate(r.Context(), token(r)); err != nil {
		if order.KindOf(err) == order.KindUnauthorized {
			writeUnauthorized(w)
			return
		}
		zctx.From(r.Context()).Error("Store lookup failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, errors.Wrap(err, "read body").Error())
		return
	}
	ids, err := decodeOrderIDs(body)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	shipped, err := h.orders.QueryShipped(r.Context(), token(r), ids)
	if err != nil {
		switch order.KindOf(err) {
		case order.KindUnauthorized:
			writeUnauthorized(w)
		case order.KindInvalid:
			writeMessage(w, http.StatusBadRequest, err.Error())
		default:
			zctx.From(r.Context()).Error("Shipment query failed", zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, s := range shipped {
			e.Obj(func(e *jx.Encoder) {
				e.Field("OrderId", func(e *jx.Encoder) { e.Int64(s.OrderID) })
				e.Field("Shipped", func(e *jx.Encoder) { e.Bool(s.Shipped) })
			})
		}
	})
	writeJSON(w, http.StatusOK, e.Bytes())
}

// decodeOrderIDs reads {"OrderIds": [int, ...]}. The key matches
// case-insensitively; an empty body or null list yields no ids.
func decodeOrderIDs(body []byte) ([]int64, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, nil
	}

	var ids []int64
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if !strings.EqualFold(key, "OrderIds") {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return d.Arr(func(d *jx.Decoder) error {
			id, err := d.Int64()
			if err != nil {
				return err
			}
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode order ids")
	}
	return ids, nil
}
