// Package customer holds the guest customer created for every ingested order.
package customer

import (
	"context"
	"time"
)

// GuestsRoleName is the system name of the role assigned to channel customers.
const GuestsRoleName = "Guests"

// Attribute keys saved alongside a customer.
const (
	AttributeFirstName = "FirstName"
	AttributeLastName  = "LastName"
)

// Address is a postal address. It holds no references, so assigning an
// Address copies it.
type Address struct {
	FirstName     string
	LastName      string
	Email         string
	Company       string
	CountryID     int64
	City          string
	Address1      string
	Address2      string
	ZipPostalCode string
	PhoneNumber   string
}

// Customer is a storefront account. Username and Email carry the same value.
type Customer struct {
	ID              int64
	Username        string
	Email           string
	Active          bool
	Deleted         bool
	IsSystemAccount bool
	CreatedAt       time.Time
	LastActivityAt  time.Time
	ShippingAddress Address
}

// Repository persists customers and their auxiliary rows.
type Repository interface {
	// Create inserts c and sets c.ID.
	Create(ctx context.Context, c *Customer) error
	// AssignRole maps the customer to the role with the given system name.
	AssignRole(ctx context.Context, customerID int64, roleSystemName string) error
	// SaveAttribute stores a key/value attribute for the customer.
	SaveAttribute(ctx context.Context, customerID int64, key, value string) error
}
