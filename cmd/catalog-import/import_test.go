package main

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront-ingest/internal/domain/product"
)

type memSink struct {
	mu       sync.Mutex
	products map[int64]product.Product
	batches  int
	err      error
}

func (s *memSink) UpsertBatch(_ context.Context, ps []product.Product) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.products == nil {
		s.products = make(map[int64]product.Product)
	}
	for _, p := range ps {
		s.products[p.ID] = p
	}
	s.batches++
	return nil
}

func (s *memSink) ids() []int64 {
	var ids []int64
	for id := range s.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func writeShard(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}

func newTestImporter(s sink) *importer {
	return &importer{
		lg:        zap.NewNop(),
		sink:      s,
		batchSize: 2,
		capacity:  1000,
		now:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
}

func TestImport_SkipsDuplicates(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeShard(t, dir, "catalog1.jsonl.gz",
			`{"id":1,"name":"A","sku":"A-1","price":"1.50","stock":3}`,
			`{"id":2,"name":"B","price":2}`,
			``,
			`{"id":3,"name":"C","price":3.25,"extra":{"nested":[1,2]}}`,
		),
		writeShard(t, dir, "catalog2.jsonl.gz",
			`{"id":4,"name":"D","price":"4"}`,
			`{"id":2,"name":"B again","price":"2"}`,
			`{"id":5,"name":"E","price":"5"}`,
		),
	}

	s := &memSink{}
	res, err := newTestImporter(s).Import(context.Background(), files)
	require.NoError(t, err)

	assert.Equal(t, []int64{2}, res.Duplicates)
	assert.Equal(t, int64(4), res.Imported)
	assert.Equal(t, []int64{1, 3, 4, 5}, s.ids())

	a := s.products[1]
	assert.Equal(t, "A-1", a.SKU)
	assert.Equal(t, 3, a.StockQuantity)
	assert.Equal(t, "1.5", a.Price.String())
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), a.UpdatedAt)
	assert.Equal(t, "3.25", s.products[3].Price.String())
}

func TestImport_DuplicateWithinShard(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeShard(t, dir, "catalog1.jsonl.gz",
		`{"id":9,"name":"X","price":"1"}`,
		`{"id":9,"name":"Y","price":"1"}`,
	)}

	s := &memSink{}
	res, err := newTestImporter(s).Import(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, res.Duplicates)
	assert.Zero(t, res.Imported)
	assert.Empty(t, s.ids())
}

func TestImport_SinkError(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeShard(t, dir, "catalog1.jsonl.gz", `{"id":1,"price":"1"}`)}

	_, err := newTestImporter(&memSink{err: errors.New("db down")}).Import(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestImport_BadLine(t *testing.T) {
	dir := t.TempDir()
	files := []string{writeShard(t, dir, "catalog1.jsonl.gz",
		`{"id":1,"price":"1"}`,
		`{"id":"oops"}`,
	)}

	_, err := newTestImporter(&memSink{}).Import(context.Background(), files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog1.jsonl.gz:2")
}

func TestDecodeProduct(t *testing.T) {
	p, err := decodeProduct([]byte(`{"id":7,"name":"Tart","sku":"T","price":"4.25","stock":2}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Tart", p.Name)
	assert.Equal(t, "4.25", p.Price.String())

	p, err = decodeProduct([]byte(`{"id":8,"price":10.5}`))
	require.NoError(t, err)
	assert.Equal(t, "10.5", p.Price.String())

	_, err = decodeProduct([]byte(`{"name":"no id"}`))
	assert.EqualError(t, err, "product id is required")

	_, err = decodeProduct([]byte(`{"id":1,"price":"abc"}`))
	assert.Error(t, err)
}

func TestIDKey(t *testing.T) {
	assert.NotEqual(t, idKey(1), idKey(256))
	assert.Len(t, idKey(-1), 8)
}
