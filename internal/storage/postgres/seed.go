package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront-ingest/internal/domain/store"
)

const (
	upsertCurrencySQL = `INSERT INTO currencies (code, name) VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`

	upsertCountrySQL = `INSERT INTO countries (name, two_letter_iso_code) VALUES ($1, $2)
		ON CONFLICT (two_letter_iso_code) DO UPDATE SET name = EXCLUDED.name`

	upsertLanguageSQL = `INSERT INTO languages (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`

	upsertRoleSQL = `INSERT INTO customer_roles (name, system_name) VALUES ($1, $2)
		ON CONFLICT (system_name) DO UPDATE SET name = EXCLUDED.name`

	upsertStoreSQL = `INSERT INTO stores (name, token_hash, primary_currency_id) VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET
			name = EXCLUDED.name,
			primary_currency_id = EXCLUDED.primary_currency_id,
			active = TRUE
		RETURNING id`
)

// Seeder writes reference data. All writes are idempotent upserts.
type Seeder struct {
	pool *pgxpool.Pool
}

// NewSeeder returns a Seeder that uses the given pool.
func NewSeeder(pool *pgxpool.Pool) *Seeder {
	return &Seeder{pool: pool}
}

// Currency upserts c by code and returns its id.
func (s *Seeder) Currency(ctx context.Context, c store.Currency) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, upsertCurrencySQL, c.Code, c.Name).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting currency %q: %w", c.Code, err)
	}
	return id, nil
}

func (s *Seeder) Country(ctx context.Context, c store.Country) error {
	if _, err := s.pool.Exec(ctx, upsertCountrySQL, c.Name, c.TwoLetterISOCode); err != nil {
		return fmt.Errorf("upserting country %q: %w", c.TwoLetterISOCode, err)
	}
	return nil
}

func (s *Seeder) Language(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, upsertLanguageSQL, name); err != nil {
		return fmt.Errorf("upserting language %q: %w", name, err)
	}
	return nil
}

func (s *Seeder) Role(ctx context.Context, name, systemName string) error {
	if _, err := s.pool.Exec(ctx, upsertRoleSQL, name, systemName); err != nil {
		return fmt.Errorf("upserting role %q: %w", systemName, err)
	}
	return nil
}

// Store upserts an active store keyed by its token hash and returns its id.
func (s *Seeder) Store(ctx context.Context, name, tokenHash string, currencyID int64) (int64, error) {
	var id int64
	if err := s.pool.QueryRow(ctx, upsertStoreSQL, name, tokenHash, currencyID).Scan(&id); err != nil {
		return 0, fmt.Errorf("upserting store %q: %w", name, err)
	}
	return id, nil
}
