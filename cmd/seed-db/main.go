package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/domain/customer"
	"github.com/xenking/storefront-ingest/internal/domain/product"
	"github.com/xenking/storefront-ingest/internal/domain/store"
	"github.com/xenking/storefront-ingest/internal/storage/postgres"
)

type productJSON struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	SKU   string          `json:"sku"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

var countries = []store.Country{
	{Name: "United States", TwoLetterISOCode: "US"},
	{Name: "Canada", TwoLetterISOCode: "CA"},
	{Name: "United Kingdom", TwoLetterISOCode: "GB"},
	{Name: "Australia", TwoLetterISOCode: "AU"},
	{Name: "New Zealand", TwoLetterISOCode: "NZ"},
	{Name: "Germany", TwoLetterISOCode: "DE"},
}

type options struct {
	databaseURL  string
	productsFile string
	storeName    string
	storeToken   string
	pepper       string
}

func main() {
	var opts options
	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.productsFile, "products-file", "db/seed/products.json", "path to products JSON file (.gz accepted)")
	flag.StringVar(&opts.storeName, "store-name", "Storefront Channel", "name of the seeded store")
	flag.StringVar(&opts.storeToken, "store-token", "", "store token to seed (or INGEST_SEED_STORE_TOKEN env)")
	flag.StringVar(&opts.pepper, "store-token-pepper", "", "HMAC pepper for store tokens (or INGEST_STORE_TOKEN_PEPPER env)")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	opts.databaseURL = orEnv(opts.databaseURL, "DATABASE_URL")
	opts.storeToken = orEnv(opts.storeToken, "INGEST_SEED_STORE_TOKEN")
	opts.pepper = orEnv(opts.pepper, "INGEST_STORE_TOKEN_PEPPER")
	if opts.databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}
	if opts.storeToken == "" {
		lg.Fatal("store token is required: set --store-token or INGEST_SEED_STORE_TOKEN")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, opts); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func orEnv(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func run(ctx context.Context, lg *zap.Logger, opts options) error {
	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seed := postgres.NewSeeder(pool)
	currencyID, err := seed.Currency(ctx, store.Currency{Code: "USD", Name: "US Dollar"})
	if err != nil {
		return err
	}
	for _, c := range countries {
		if err := seed.Country(ctx, c); err != nil {
			return err
		}
	}
	if err := seed.Language(ctx, store.SupportedLocale); err != nil {
		return err
	}
	if err := seed.Role(ctx, "Guests", customer.GuestsRoleName); err != nil {
		return err
	}
	lg.Info("Reference data seeded", zap.Int("countries", len(countries)))

	storeID, err := seed.Store(ctx, opts.storeName, store.HashToken([]byte(opts.pepper), opts.storeToken), currencyID)
	if err != nil {
		return err
	}
	lg.Info("Store seeded", zap.Int64("store_id", storeID), zap.String("name", opts.storeName))

	products, err := readProducts(opts.productsFile)
	if err != nil {
		return errors.Wrap(err, "read products")
	}
	if err := postgres.NewProductRepository(pool).UpsertBatch(ctx, products); err != nil {
		return err
	}
	lg.Info("Products seeded", zap.Int("count", len(products)), zap.String("path", opts.productsFile))
	return nil
}

func readProducts(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	var rows []productJSON
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	now := time.Now().UTC()
	products := make([]product.Product, len(rows))
	for i, p := range rows {
		products[i] = product.Product{
			ID:            p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			Price:         p.Price,
			StockQuantity: p.Stock,
			UpdatedAt:     now,
		}
	}
	return products, nil
}
