package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-ingest/internal/domain/customer"
	"github.com/xenking/storefront-ingest/internal/domain/store"
)

// Refs are the resolved references an order is assembled against.
type Refs struct {
	Store    *store.Store
	Currency *store.Currency
	Country  *store.Country
	Locale   *store.Locale
}

// Graph is the set of entities built from one submission, ready to persist.
// Items[i] corresponds to Submission.OrderItems[i].
type Graph struct {
	Customer customer.Customer
	Order    Order
	Items    []Item
}

// Validate checks the structural rules of sub in order, returning the first
// violation.
func Validate(sub *Submission) error {
	switch {
	case sub == nil:
		return &ValidationError{Reason: "submission is required"}
	case sub.Address == nil:
		return &ValidationError{Reason: "address is required"}
	case len(sub.OrderItems) == 0:
		return &ValidationError{Reason: "at least one order item is required"}
	case !sub.PaymentStatusID.Valid():
		return &ValidationError{Reason: fmt.Sprintf("payment status %d not recognised", sub.PaymentStatusID)}
	case !sub.OrderStatusID.Valid():
		return &ValidationError{Reason: fmt.Sprintf("order status %d not recognised", sub.OrderStatusID)}
	}
	return nil
}

// Assemble validates sub and maps it onto a customer, an order and its items.
// Money is copied verbatim; tax and discount fields are zero. The order's
// custom number and all ids are left unset.
func Assemble(sub *Submission, refs Refs, now time.Time) (*Graph, error) {
	if err := Validate(sub); err != nil {
		return nil, err
	}
	if refs.Country == nil {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("country %q not recognised", sub.Address.TwoLetterCountryCode),
		}
	}

	addr := customer.Address{
		FirstName:     sub.Address.FirstName,
		LastName:      sub.Address.LastName,
		Email:         sub.Email,
		Company:       sub.Address.Company,
		CountryID:     refs.Country.ID,
		City:          sub.Address.City,
		Address1:      sub.Address.Address1,
		Address2:      sub.Address.Address2,
		ZipPostalCode: sub.Address.ZipPostalCode,
		PhoneNumber:   sub.Address.PhoneNumber,
	}

	g := &Graph{
		Customer: customer.Customer{
			Username:        sub.Email,
			Email:           sub.Email,
			Active:          true,
			Deleted:         false,
			IsSystemAccount: false,
			CreatedAt:       now,
			LastActivityAt:  now,
			ShippingAddress: addr,
		},
		Order: Order{
			GUID:             uuid.New(),
			StoreID:          refs.Store.ID,
			CustomerLocaleID: refs.Locale.ID,

			OrderSubtotalInclTax:         sub.OrderSubtotalInclTax,
			OrderSubtotalExclTax:         sub.OrderSubtotalExclTax,
			OrderSubTotalDiscountInclTax: decimal.Zero,
			OrderSubTotalDiscountExclTax: decimal.Zero,
			OrderShippingInclTax:         sub.OrderShippingTotalInclTax,
			OrderShippingExclTax:         sub.OrderShippingTotalExclTax,
			PaymentMethodFeeInclTax:      decimal.Zero,
			PaymentMethodFeeExclTax:      decimal.Zero,
			OrderTax:                     decimal.Zero,
			OrderDiscount:                decimal.Zero,
			OrderTotal:                   sub.OrderTotal,
			RefundedAmount:               decimal.Zero,
			TaxRates:                     zeroTaxRates,
			CurrencyCode:                 refs.Currency.Code,
			CurrencyRate:                 decimal.NewFromInt(1),

			OrderStatus:             sub.OrderStatusID,
			PaymentStatus:           sub.PaymentStatusID,
			ShippingStatus:          ShippingStatusNotYetShipped,
			PaymentMethodSystemName: sub.PaymentMethodName,
			ShippingMethod:          sub.ShippingMethod,

			// Two value copies: billing and shipping never share state.
			BillingAddress:  addr,
			ShippingAddress: addr,

			CreatedAt: now,
		},
		Items: make([]Item, len(sub.OrderItems)),
	}

	for i, line := range sub.OrderItems {
		g.Items[i] = Item{
			GUID:                  uuid.New(),
			ProductID:             line.ExternalProductID,
			Quantity:              line.Quantity,
			UnitPriceInclTax:      line.UnitPriceInclTax,
			UnitPriceExclTax:      line.UnitPriceExclTax,
			PriceInclTax:          line.PriceInclTax,
			PriceExclTax:          line.PriceExclTax,
			DiscountAmountInclTax: decimal.Zero,
			DiscountAmountExclTax: decimal.Zero,
			ItemWeight:            line.ItemWeight,
		}
	}

	return g, nil
}
