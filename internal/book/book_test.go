package book

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/merge"
	"github.com/simonvc/ledgersync/internal/report"
	"github.com/simonvc/ledgersync/internal/store"
	"github.com/simonvc/ledgersync/internal/syncer"
)

type recordingMovements struct {
	mu      sync.Mutex
	created []syncer.Movement
}

func (r *recordingMovements) CreateMovement(_ context.Context, m syncer.Movement) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, m)
	return "mv", nil
}

func (r *recordingMovements) PostMovement(context.Context, string, string) error { return nil }

func (r *recordingMovements) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.created)
}

type noDocuments struct{}

func (noDocuments) DocumentByReference(context.Context, string) (*syncer.Document, error) {
	return nil, nil
}

var fixedNow = time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "book.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newService(t *testing.T, st *store.Store, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	svc, err := New(context.Background(), st, st, opts...)
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func keys(rows []ledger.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = merge.Key(r)
	}
	return out
}

func postQuick(t *testing.T, svc *Service, q ledger.QuickEntry) *ledger.JournalEntry {
	t.Helper()
	ctx := context.Background()
	e, err := svc.QuickEntry(ctx, q)
	require.NoError(t, err)
	_, err = svc.ApproveEntry(ctx, e.ID)
	require.NoError(t, err)
	posted, err := svc.PostEntry(ctx, e.ID)
	require.NoError(t, err)
	return posted
}

func TestPostedEntryFeedsReports(t *testing.T) {
	svc := newService(t, openStore(t))

	e := postQuick(t, svc, ledger.QuickEntry{
		Date:          ledger.MustDate("2025-01-10"),
		DebitAccount:  "1000 - Cash on Hand",
		CreditAccount: "Sales Revenue",
		Amount:        dec("1000"),
		Memo:          "Cash sale",
		Reference:     "INV-0001",
	})
	assert.Equal(t, ledger.StatusPosted, e.Status)
	require.NotNil(t, e.PostedAt)
	assert.Equal(t, fixedNow, *e.PostedAt)

	rows := svc.Rows()
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.True(t, r.Locked)
		assert.Equal(t, e.ID, r.OriginEntryID)
	}
	assert.Equal(t, "4000", rows[1].Account)

	w := report.PeriodWindow(ledger.MustDate("2025-01-01"), ledger.MustDate("2025-01-31"))
	tb, err := svc.TrialBalance(w)
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalPeriodDebit.Equal(dec("1000")))

	pnl, err := svc.ProfitAndLoss(w)
	require.NoError(t, err)
	assert.True(t, pnl.NetIncome.Equal(dec("1000")))

	bs, err := svc.BalanceSheet(report.AsOfWindow(ledger.MustDate("2025-01-31")), report.WithUnclosedEarnings())
	require.NoError(t, err)
	assert.True(t, bs.Balanced)
}

func TestCreateEntryNumbering(t *testing.T) {
	svc := newService(t, openStore(t), WithNumbering("je", "gj"))
	ctx := context.Background()

	q := ledger.QuickEntry{
		Date:          ledger.MustDate("2025-01-10"),
		DebitAccount:  "5000",
		CreditAccount: "1010",
		Amount:        dec("25"),
	}
	first, err := svc.QuickEntry(ctx, q)
	require.NoError(t, err)
	second, err := svc.QuickEntry(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, "JE-20250110-0001", first.Number)
	assert.Equal(t, "JE-20250110-0002", second.Number)
	assert.Equal(t, "GJ-20250110-0001/1", first.DisplayNumber)
	assert.Equal(t, "GJ-20250110-0001/2", second.DisplayNumber)
	assert.Equal(t, "USD", first.Currency)
	assert.Equal(t, ledger.StatusDraft, first.Status)

	n, err := svc.NextNumber(ctx, "inv", ledger.MustDate("2025-01-10"))
	require.NoError(t, err)
	assert.Equal(t, "INV-20250110-0001", n)
}

func TestCreateEntryRejectsUnbalanced(t *testing.T) {
	st := openStore(t)
	svc := newService(t, st)
	ctx := context.Background()

	err := svc.CreateEntry(ctx, &ledger.JournalEntry{
		Date: ledger.MustDate("2025-01-10"),
		Lines: []ledger.Line{
			{Account: "1000", Debit: dec("100")},
			{Account: "4000", Credit: dec("99.99")},
		},
	})
	require.ErrorIs(t, err, ledger.ErrUnbalancedEntry)
	assert.True(t, ledger.IsValidationError(err))

	entries, err := svc.ListEntries(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateEntryNormalizesLines(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	e := &ledger.JournalEntry{
		Date: ledger.MustDate("2025-01-10"),
		Lines: []ledger.Line{
			{Account: "Cash on Hand", Debit: dec("-40")},
			{},
			{Account: "4000", Debit: dec("40")},
		},
	}
	require.NoError(t, svc.CreateEntry(ctx, e))
	require.Len(t, e.Lines, 2)
	assert.Equal(t, "1000", e.Lines[0].Account)
	assert.True(t, e.Lines[0].Credit.Equal(dec("40")))
	assert.True(t, e.Lines[0].Debit.IsZero())

	got, err := svc.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}

func TestPostRequiresApproval(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	e, err := svc.QuickEntry(ctx, ledger.QuickEntry{
		Date: ledger.MustDate("2025-01-10"), DebitAccount: "1000", CreditAccount: "3000", Amount: dec("500"),
	})
	require.NoError(t, err)

	_, err = svc.PostEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	assert.Empty(t, svc.Rows())

	_, err = svc.ApproveEntry(ctx, "missing")
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestDeleteEntryRemovesRows(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	e := postQuick(t, svc, ledger.QuickEntry{
		Date: ledger.MustDate("2025-01-10"), DebitAccount: "1000", CreditAccount: "3000", Amount: dec("500"),
	})
	require.Len(t, svc.Rows(), 2)

	require.NoError(t, svc.DeleteEntry(ctx, e.ID))
	assert.Empty(t, svc.Rows())

	_, err := svc.GetEntry(ctx, e.ID)
	assert.ErrorIs(t, err, ledger.ErrEntryNotFound)
}

func TestReloadDeduplicatesAcrossOrigins(t *testing.T) {
	st := openStore(t)
	svc := newService(t, st)
	ctx := context.Background()

	e := postQuick(t, svc, ledger.QuickEntry{
		Date: ledger.MustDate("2025-01-10"), DebitAccount: "1000", CreditAccount: "3000", Amount: dec("500"),
	})

	// The cached copy of a posted row is the same row.
	cached := e.Rows()[:1]
	added, err := svc.AddRows(ctx, ledger.OriginLocalCache, cached)
	require.NoError(t, err)
	assert.Zero(t, added)

	manual := []ledger.Row{
		{Date: ledger.MustDate("2025-01-12"), Account: "Cash on Hand", Debit: dec("20"), Memo: "draft"},
		{Date: ledger.MustDate("2025-01-12"), Account: "5000", Credit: dec("20"), Memo: "draft", Locked: true},
	}
	added, err = svc.AddRows(ctx, ledger.OriginManual, manual)
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Len(t, svc.Rows(), 4)

	reopened := newService(t, st)
	assert.Len(t, reopened.Rows(), 4)
	assert.ElementsMatch(t, keys(svc.Rows()), keys(reopened.Rows()))
}

func TestAddRowsRejectsInvalid(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	_, err := svc.AddRows(ctx, ledger.OriginManual, []ledger.Row{
		{Date: ledger.MustDate("2025-01-12"), Account: "1000", Debit: dec("20"), Credit: dec("20")},
	})
	assert.Error(t, err)
	assert.Empty(t, svc.Rows())
}

func TestRemoveRow(t *testing.T) {
	svc := newService(t, openStore(t))
	ctx := context.Background()

	postQuick(t, svc, ledger.QuickEntry{
		Date: ledger.MustDate("2025-01-10"), DebitAccount: "1000", CreditAccount: "3000", Amount: dec("500"),
	})
	_, err := svc.AddRows(ctx, ledger.OriginManual, []ledger.Row{
		{Date: ledger.MustDate("2025-01-12"), Account: "1000", Debit: dec("20")},
	})
	require.NoError(t, err)

	var manualKey, lockedKey string
	for _, r := range svc.Rows() {
		switch {
		case r.Origin == ledger.OriginManual:
			manualKey = merge.Key(r)
		case r.Locked:
			lockedKey = merge.Key(r)
		}
	}
	require.NotEmpty(t, manualKey)
	require.NotEmpty(t, lockedKey)

	assert.ErrorIs(t, svc.RemoveRow(ctx, lockedKey), ledger.ErrRowLocked)
	require.NoError(t, svc.RemoveRow(ctx, manualKey))
	assert.Len(t, svc.Rows(), 2)
	assert.ErrorIs(t, svc.RemoveRow(ctx, manualKey), ledger.ErrRowNotFound)
}

func TestPostingTriggersSync(t *testing.T) {
	st := openStore(t)
	movements := &recordingMovements{}
	engine := syncer.New(movements, noDocuments{}, st)
	svc := newService(t, st, WithEngine(engine))
	ctx := context.Background()

	e := &ledger.JournalEntry{
		Date:      ledger.MustDate("2025-02-03"),
		Reference: "GRN-0042",
		Lines: []ledger.Line{
			{Account: "1200", Debit: dec("50"), Memo: `INV{sku: "WIDGET", qty: 5, dir: "in", wh: "MAIN"}`},
			{Account: "2000", Credit: dec("50"), Memo: "Supplier"},
		},
	}
	require.NoError(t, svc.CreateEntry(ctx, e))
	_, err := svc.ApproveEntry(ctx, e.ID)
	require.NoError(t, err)
	_, err = svc.PostEntry(ctx, e.ID)
	require.NoError(t, err)

	svc.Wait()
	assert.Equal(t, 1, movements.count())
	assert.Equal(t, "WIDGET", movements.created[0].Item)

	rep := svc.Scan(ctx)
	assert.Zero(t, rep.Applied)
	assert.Equal(t, 1, movements.count())

	n, err := st.SyncKeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestScanWithoutEngine(t *testing.T) {
	svc := newService(t, openStore(t))
	rep := svc.Scan(context.Background())
	assert.Zero(t, rep.Applied)
	assert.Zero(t, rep.Rows)
}

func TestSuggest(t *testing.T) {
	svc := newService(t, openStore(t))

	s, err := svc.Suggest("Cash on Hand", ledger.SideDebit)
	require.NoError(t, err)
	assert.Equal(t, "1000", s.Account)
	assert.Equal(t, ledger.SideCredit, s.Opposite)

	_, err = svc.Suggest("nope", ledger.SideDebit)
	assert.Error(t, err)
}

func TestRepositoryErrorsSurface(t *testing.T) {
	svc := newService(t, openStore(t))
	svc.repo = failingRepo{Repository: svc.repo}

	_, err := svc.AddRows(context.Background(), ledger.OriginManual, []ledger.Row{
		{Date: ledger.MustDate("2025-01-12"), Account: "1000", Debit: dec("20")},
	})
	assert.ErrorIs(t, err, errDisk)
	assert.Empty(t, svc.Rows())
}

var errDisk = errors.New("disk full")

type failingRepo struct {
	Repository
}

func (failingRepo) InsertRows(context.Context, []ledger.Row) (int, error) {
	return 0, errDisk
}
