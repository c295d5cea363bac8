package order

import "github.com/shopspring/decimal"

// Submission is an order sent by the external storefront channel. Monetary
// values are pre-computed by the channel, including tax and discounts.
type Submission struct {
	Email             string             `json:"Email"`
	PaymentMethodName string             `json:"PaymentMethodName"`
	ShippingMethod    string             `json:"ShippingMethod"`
	PaymentStatusID   PaymentStatus      `json:"PaymentStatusId"`
	OrderStatusID     OrderStatus        `json:"OrderStatusId"`
	Address           *SubmissionAddress `json:"Address"`
	OrderItems        []SubmissionItem   `json:"OrderItems"`
	Notes             []string           `json:"Notes"`

	OrderSubtotalInclTax      decimal.Decimal `json:"OrderSubtotalInclTax"`
	OrderSubtotalExclTax      decimal.Decimal `json:"OrderSubtotalExclTax"`
	OrderShippingTotalInclTax decimal.Decimal `json:"OrderShippingTotalInclTax"`
	OrderShippingTotalExclTax decimal.Decimal `json:"OrderShippingTotalExclTax"`
	OrderTotal                decimal.Decimal `json:"OrderTotal"`
}

// SubmissionAddress is the buyer address of a Submission.
type SubmissionAddress struct {
	FirstName            string `json:"FirstName"`
	LastName             string `json:"LastName"`
	Address1             string `json:"Address1"`
	Address2             string `json:"Address2"`
	City                 string `json:"City"`
	PhoneNumber          string `json:"PhoneNumber"`
	Company              string `json:"Company"`
	ZipPostalCode        string `json:"ZipPostalCode"`
	TwoLetterCountryCode string `json:"TwoLetterCountryCode"`
}

// SubmissionItem is one order line of a Submission.
type SubmissionItem struct {
	ExternalProductID int64               `json:"ExternalProductId"`
	Quantity          int                 `json:"Quantity"`
	UnitPriceInclTax  decimal.Decimal     `json:"UnitPriceInclTax"`
	UnitPriceExclTax  decimal.Decimal     `json:"UnitPriceExclTax"`
	PriceInclTax      decimal.Decimal     `json:"PriceInclTax"`
	PriceExclTax      decimal.Decimal     `json:"PriceExclTax"`
	ItemWeight        decimal.NullDecimal `json:"ItemWeight"`
}
