// Command catalog-import bulk-loads products from gzip JSON-lines shards.
//
// Each shard line is {"id", "name", "sku", "price", "stock"}. Shards are read
// concurrently twice: the first pass feeds a bloom filter to find ids that
// may repeat, the second upserts every other product in batches and counts
// the suspects exactly. Ids that really repeat are skipped and reported.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/storage/postgres"
)

func main() {
	var (
		dataDir     string
		databaseURL string
		batchSize   int
		capacity    uint
	)
	flag.StringVar(&dataDir, "data-dir", "data", "directory containing catalogN.jsonl.gz shards")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.IntVar(&batchSize, "batch-size", 1000, "products per upsert batch")
	flag.UintVar(&capacity, "expected-products", 1_000_000, "bloom filter capacity estimate")
	flag.Parse()

	lg, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		lg.Fatal("database URL is required: set --database-url or DATABASE_URL")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, dataDir, databaseURL, batchSize, capacity); err != nil {
		lg.Fatal("Catalog import failed", zap.Error(err))
	}
	lg.Info("Catalog import completed")
}

func run(ctx context.Context, lg *zap.Logger, dataDir, databaseURL string, batchSize int, capacity uint) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "catalog*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list shards")
	}
	if len(files) == 0 {
		return errors.Errorf("no catalog*.jsonl.gz shards in %s", dataDir)
	}
	sort.Strings(files)

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	imp := &importer{
		lg:        lg,
		sink:      postgres.NewProductRepository(pool),
		batchSize: batchSize,
		capacity:  capacity,
		now:       time.Now().UTC(),
	}
	res, err := imp.Import(ctx, files)
	if err != nil {
		return err
	}
	lg.Info("Import summary",
		zap.Int("shards", len(files)),
		zap.Int64("imported", res.Imported),
		zap.Int("duplicates", len(res.Duplicates)),
	)
	for _, id := range res.Duplicates {
		lg.Warn("Duplicate product id skipped", zap.Int64("product_id", id))
	}
	return nil
}
