package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/store"
)

const (
	getStoreByTokenHashSQL = `SELECT id, name, token_hash, primary_currency_id
		FROM stores WHERE token_hash = $1 AND active = TRUE`

	getCurrencyByIDSQL = `SELECT id, code, name FROM currencies WHERE id = $1`

	getCountryByISOCodeSQL = `SELECT id, name, two_letter_iso_code
		FROM countries WHERE two_letter_iso_code = $1`

	getLanguageByNameSQL = `SELECT id, name FROM languages WHERE name = $1`
)

var _ store.Repository = (*StoreRepository)(nil)

// StoreRepository serves store identity and reference data.
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository returns a StoreRepository that uses the given pool.
func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// FindByTokenHash looks up an active store by its token hash.
func (r *StoreRepository) FindByTokenHash(ctx context.Context, hash string) (*store.Store, error) {
	var s store.Store
	err := r.pool.QueryRow(ctx, getStoreByTokenHashSQL, hash).Scan(
		&s.ID, &s.Name, &s.TokenHash, &s.PrimaryCurrencyID,
	)
	if err != nil {
		return nil, notFound(err, "finding store by token hash")
	}
	return &s, nil
}

// CurrencyByID returns the currency with the given id.
func (r *StoreRepository) CurrencyByID(ctx context.Context, id int64) (*store.Currency, error) {
	var c store.Currency
	if err := r.pool.QueryRow(ctx, getCurrencyByIDSQL, id).Scan(&c.ID, &c.Code, &c.Name); err != nil {
		return nil, notFound(err, fmt.Sprintf("getting currency %d", id))
	}
	return &c, nil
}

// CountryByISOCode returns the country with the given two-letter code.
func (r *StoreRepository) CountryByISOCode(ctx context.Context, code string) (*store.Country, error) {
	var c store.Country
	err := r.pool.QueryRow(ctx, getCountryByISOCodeSQL, code).Scan(&c.ID, &c.Name, &c.TwoLetterISOCode)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("getting country %q", code))
	}
	return &c, nil
}

// LanguageByName returns the language with the given name.
func (r *StoreRepository) LanguageByName(ctx context.Context, name string) (*store.Locale, error) {
	var l store.Locale
	if err := r.pool.QueryRow(ctx, getLanguageByNameSQL, name).Scan(&l.ID, &l.Name); err != nil {
		return nil, notFound(err, fmt.Sprintf("getting language %q", name))
	}
	return &l, nil
}

// notFound maps pgx.ErrNoRows to store.ErrNotFound and wraps anything else.
func notFound(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
