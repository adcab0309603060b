package kv

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/sequence"
	"github.com/simonvc/ledgersync/internal/syncer"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCounters(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", 41))
	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(41), v)

	assert.ErrorIs(t, s.Set(ctx, "a", 3), ErrCounterRegressed)
}

func TestGeneratorOnBadger(t *testing.T) {
	s := openTest(t)
	g := sequence.NewGenerator(s)
	ctx := context.Background()
	day := ledger.MustDate("2025-04-01")

	d1, err := g.DisplayNumber(ctx, "GJ", day)
	require.NoError(t, err)
	d2, err := g.DisplayNumber(ctx, "GJ", day)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)

	tail, err := g.UniqueTail(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, d1+"/1", tail)
}

func TestSyncKeys(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	ok, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, "k"))
	require.NoError(t, s.Record(ctx, "k"))
	ok, err = s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.SyncKeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

type countingMovements struct{ n int }

func (c *countingMovements) CreateMovement(context.Context, syncer.Movement) (string, error) {
	c.n++
	return "mv", nil
}

func (c *countingMovements) PostMovement(context.Context, string, string) error { return nil }

func TestEngineOnBadger(t *testing.T) {
	s := openTest(t)
	row := ledger.Row{
		Date:    ledger.MustDate("2025-02-03"),
		Account: "1200",
		Debit:   decimal.NewFromInt(50),
		Credit:  decimal.Zero,
		Memo:    "INV: sku=WIDGET; qty=5; fromWh=MAIN; toWh=B",
	}
	mv := &countingMovements{}
	e := syncer.New(mv, nil, s)
	e.Scan(context.Background(), []ledger.Row{row})
	e.Scan(context.Background(), []ledger.Row{row})
	assert.Equal(t, 1, mv.n)
}

func TestOpenPersistent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = 0

	s, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), "persisted"))
	require.NoError(t, s.Close())

	s, err = Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.Has(context.Background(), "persisted")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
