// Package store resolves the calling storefront and the reference data
// (currency, country, language) an ingested order is built against.
package store

import (
	"context"

	"github.com/go-faster/errors"
)

// SupportedLocale is the only customer language orders are created with.
const SupportedLocale = "English"

var (
	// ErrNotFound is returned by repositories when a lookup has no match.
	ErrNotFound = errors.New("not found")
	// ErrUnknownToken is returned when a store token does not resolve to a store.
	ErrUnknownToken = errors.New("unknown store token")
)

// Store is a storefront registered with the channel integration.
type Store struct {
	ID                int64
	Name              string
	TokenHash         string
	PrimaryCurrencyID int64
}

// Currency is a reference currency row.
type Currency struct {
	ID   int64
	Code string
	Name string
}

// Country is a reference country row.
type Country struct {
	ID               int64
	Name             string
	TwoLetterISOCode string
}

// Locale is a customer language.
type Locale struct {
	ID   int64
	Name string
}

// Repository provides read access to stores and reference data.
type Repository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Store, error)
	CurrencyByID(ctx context.Context, id int64) (*Currency, error)
	CountryByISOCode(ctx context.Context, code string) (*Country, error)
	LanguageByName(ctx context.Context, name string) (*Locale, error)
}
