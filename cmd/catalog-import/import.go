package main

import (
	"bufio"
	"context"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-ingest/internal/domain/product"
)

const (
	bloomFPR     = 0.001
	maxLineBytes = 1 << 20
)

// sink is implemented by *postgres.ProductRepository.
type sink interface {
	UpsertBatch(ctx context.Context, products []product.Product) error
}

type result struct {
	Imported   int64
	Duplicates []int64
}

type importer struct {
	lg        *zap.Logger
	sink      sink
	batchSize int
	capacity  uint
	now       time.Time
}

// Import runs both passes over files.
func (imp *importer) Import(ctx context.Context, files []string) (*result, error) {
	imp.lg.Info("Pass 1: scanning ids", zap.Int("shards", len(files)))
	suspects, err := imp.suspects(ctx, files)
	if err != nil {
		return nil, errors.Wrap(err, "scan ids")
	}
	imp.lg.Info("Pass 1 complete", zap.Int("suspects", len(suspects)))

	imp.lg.Info("Pass 2: importing")
	return imp.load(ctx, files, suspects)
}

// suspects returns ids the shared bloom filter had already seen. False
// positives are possible; misses are not.
func (imp *importer) suspects(ctx context.Context, files []string) (map[int64]struct{}, error) {
	var (
		mu       sync.Mutex
		filter   = bloom.NewWithEstimates(imp.capacity, bloomFPR)
		suspects = make(map[int64]struct{})
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			return streamShard(ctx, path, func(p product.Product) error {
				key := idKey(p.ID)
				mu.Lock()
				if filter.TestAndAdd(key) {
					suspects[p.ID] = struct{}{}
				}
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return suspects, nil
}

// load upserts every non-suspect product and resolves suspects exactly: a
// suspect seen once is a bloom false positive and is imported after the pass.
func (imp *importer) load(ctx context.Context, files []string, suspects map[int64]struct{}) (*result, error) {
	var (
		imported atomic.Int64
		mu       sync.Mutex
		held     = make(map[int64][]product.Product)
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			batch := make([]product.Product, 0, imp.batchSize)
			flush := func() error {
				if len(batch) == 0 {
					return nil
				}
				if err := imp.sink.UpsertBatch(ctx, batch); err != nil {
					return errors.Wrapf(err, "upsert batch from %s", path)
				}
				imported.Add(int64(len(batch)))
				batch = batch[:0]
				return nil
			}

			err := streamShard(ctx, path, func(p product.Product) error {
				p.UpdatedAt = imp.now
				if _, ok := suspects[p.ID]; ok {
					mu.Lock()
					held[p.ID] = append(held[p.ID], p)
					mu.Unlock()
					return nil
				}
				batch = append(batch, p)
				if len(batch) >= imp.batchSize {
					return flush()
				}
				return nil
			})
			if err != nil {
				return err
			}
			return flush()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &result{}
	var unique []product.Product
	for id, ps := range held {
		if len(ps) > 1 {
			res.Duplicates = append(res.Duplicates, id)
			continue
		}
		unique = append(unique, ps[0])
	}
	sort.Slice(res.Duplicates, func(i, j int) bool { return res.Duplicates[i] < res.Duplicates[j] })

	if len(unique) > 0 {
		if err := imp.sink.UpsertBatch(ctx, unique); err != nil {
			return nil, errors.Wrap(err, "upsert bloom false positives")
		}
		imported.Add(int64(len(unique)))
	}
	res.Imported = imported.Load()
	return res, nil
}

func idKey(id int64) []byte {
	var b [8]byte
	for i := range b {
		b[i] = byte(id >> (8 * i))
	}
	return b[:]
}

// streamShard decodes each line of a gzip JSON-lines shard and calls fn.
func streamShard(ctx context.Context, path string, fn func(product.Product) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		p, err := decodeProduct(scanner.Bytes())
		if err != nil {
			return errors.Wrapf(err, "%s:%d", path, line)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}
	return nil
}

// decodeProduct parses one catalog line. price may be a JSON number or a
// string holding one.
func decodeProduct(b []byte) (product.Product, error) {
	var (
		p     product.Product
		hasID bool
	)
	err := jx.DecodeBytes(b).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = d.Int64()
			hasID = err == nil
		case "name":
			p.Name, err = d.Str()
		case "sku":
			p.SKU, err = d.Str()
		case "stock":
			p.StockQuantity, err = d.Int()
		case "price":
			p.Price, err = decodeDecimal(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return product.Product{}, errors.Wrap(err, "decode product")
	}
	if !hasID {
		return product.Product{}, errors.New("product id is required")
	}
	return p, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = s
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		raw = n.String()
	}
	return decimal.NewFromString(raw)
}
