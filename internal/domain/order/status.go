package order

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

const (
	OrderStatusPending    OrderStatus = 10
	OrderStatusProcessing OrderStatus = 20
	OrderStatusComplete   OrderStatus = 30
	OrderStatusCancelled  OrderStatus = 40
)

// PaymentStatus is the payment state of an order.
type PaymentStatus int

const (
	PaymentStatusPending           PaymentStatus = 10
	PaymentStatusAuthorized        PaymentStatus = 20
	PaymentStatusPaid              PaymentStatus = 30
	PaymentStatusPartiallyRefunded PaymentStatus = 35
	PaymentStatusRefunded          PaymentStatus = 40
	PaymentStatusVoided            PaymentStatus = 50
)

// ShippingStatus is the fulfilment state of an order.
type ShippingStatus int

const (
	ShippingStatusNotRequired      ShippingStatus = 10
	ShippingStatusNotYetShipped    ShippingStatus = 20
	ShippingStatusPartiallyShipped ShippingStatus = 25
	ShippingStatusShipped          ShippingStatus = 30
	ShippingStatusDelivered        ShippingStatus = 40
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusComplete:   {},
	OrderStatusCancelled:  {},
}

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:           {},
	PaymentStatusAuthorized:        {},
	PaymentStatusPaid:              {},
	PaymentStatusPartiallyRefunded: {},
	PaymentStatusRefunded:          {},
	PaymentStatusVoided:            {},
}

// Valid reports whether s is a member of the closed order status set.
func (s OrderStatus) Valid() bool {
	_, ok := validOrderStatuses[s]
	return ok
}

// Valid reports whether s is a member of the closed payment status set.
func (s PaymentStatus) Valid() bool {
	_, ok := validPaymentStatuses[s]
	return ok
}

// IsShipped reports whether s is strictly past "not yet shipped".
func (s ShippingStatus) IsShipped() bool {
	return s > ShippingStatusNotYetShipped
}
