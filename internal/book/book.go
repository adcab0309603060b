// Package book ties the ledger components into one service: it owns the
// merged row set, persists entries and rows, and rescans for downstream
// effects whenever the row set changes.
package book

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/simonvc/ledgersync/internal/advisor"
	"github.com/simonvc/ledgersync/internal/ledger"
	"github.com/simonvc/ledgersync/internal/merge"
	"github.com/simonvc/ledgersync/internal/report"
	"github.com/simonvc/ledgersync/internal/sequence"
	"github.com/simonvc/ledgersync/internal/store"
	"github.com/simonvc/ledgersync/internal/syncer"
)

// Repository is the persistence the service needs. *store.Store satisfies it.
type Repository interface {
	Chart(ctx context.Context) (*ledger.Chart, error)
	CreateEntry(ctx context.Context, e *ledger.JournalEntry) error
	GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error)
	ListEntries(ctx context.Context, filter store.EntryFilter) ([]ledger.JournalEntry, error)
	UpdateStatus(ctx context.Context, e *ledger.JournalEntry) error
	DeleteEntry(ctx context.Context, id string) error
	PostedRows(ctx context.Context) ([]ledger.Row, error)
	InsertRows(ctx context.Context, rows []ledger.Row) (int, error)
	ListRows(ctx context.Context, filter store.RowFilter) ([]ledger.Row, error)
	DeleteRow(ctx context.Context, key string) error
}

type Service struct {
	repo      Repository
	chart     *ledger.Chart
	validator *ledger.Validator
	advisor   *advisor.Advisor
	seq       *sequence.Generator
	engine    *syncer.Engine
	rows      *merge.Store
	logger    *zap.Logger

	baseCurrency string
	entryPrefix  string
	displayScope string
	now          func() time.Time

	mu         sync.Mutex
	baseCtx    context.Context
	stopAll    context.CancelFunc
	cancelScan context.CancelFunc
	scans      sync.WaitGroup
	lastScan   syncer.Report
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEngine enables downstream propagation. Without it the row set is
// never scanned.
func WithEngine(e *syncer.Engine) Option {
	return func(s *Service) { s.engine = e }
}

func WithBaseCurrency(code string) Option {
	return func(s *Service) { s.baseCurrency = code }
}

// WithNumbering sets the prefix for entry numbers and the scope for display
// numbers.
func WithNumbering(entryPrefix, displayScope string) Option {
	return func(s *Service) {
		s.entryPrefix = entryPrefix
		s.displayScope = displayScope
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New loads the chart and the current row set from repo.
func New(ctx context.Context, repo Repository, counters sequence.Store, opts ...Option) (*Service, error) {
	s := &Service{
		repo:         repo,
		seq:          sequence.NewGenerator(counters),
		logger:       zap.NewNop(),
		baseCurrency: "USD",
		entryPrefix:  "JE",
		displayScope: "GJ",
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseCtx, s.stopAll = context.WithCancel(context.Background())
	s.rows = merge.New(merge.WithLogger(s.logger.Named("merge")))

	if err := s.ReloadChart(ctx); err != nil {
		return nil, err
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ReloadChart rebuilds the chart, validator and advisor from the repository.
func (s *Service) ReloadChart(ctx context.Context) error {
	chart, err := s.repo.Chart(ctx)
	if err != nil {
		return fmt.Errorf("load chart: %w", err)
	}
	s.mu.Lock()
	s.chart = chart
	s.validator = ledger.NewValidator(chart, s.baseCurrency)
	s.advisor = advisor.New(chart)
	s.mu.Unlock()
	return nil
}

// Reload rebuilds the row set: posted entries first, then the local cache
// overlay, then manual rows.
func (s *Service) Reload(ctx context.Context) error {
	posted, err := s.repo.PostedRows(ctx)
	if err != nil {
		return fmt.Errorf("load posted rows: %w", err)
	}
	overlay, err := s.repo.ListRows(ctx, store.RowFilter{Origin: ledger.OriginLocalCache})
	if err != nil {
		return fmt.Errorf("load overlay: %w", err)
	}
	manual, err := s.repo.ListRows(ctx, store.RowFilter{Origin: ledger.OriginManual})
	if err != nil {
		return fmt.Errorf("load manual rows: %w", err)
	}

	s.rows.Reset()
	n := s.rows.Merge(posted, overlay, manual)
	s.logger.Info("row set loaded", zap.Int("rows", n), zap.Int("conflicts", s.rows.Conflicts()))
	s.changed()
	return nil
}

func (s *Service) Chart() *ledger.Chart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chart
}

func (s *Service) Rows() []ledger.Row {
	return s.rows.Rows()
}

func (s *Service) RowVersion() uint64 {
	return s.rows.Version()
}

func (s *Service) Validate(c ledger.Candidate) ledger.Result {
	s.mu.Lock()
	v := s.validator
	s.mu.Unlock()
	if c.Currency == "" {
		c.Currency = s.baseCurrency
	}
	return v.Validate(c)
}

// CreateEntry validates and stores a draft. Lines are replaced by their
// normalized form and the entry is numbered.
func (s *Service) CreateEntry(ctx context.Context, e *ledger.JournalEntry) error {
	if e.Currency == "" {
		e.Currency = s.baseCurrency
	}
	e.Currency = strings.ToUpper(e.Currency)
	if e.Date.IsZero() {
		e.Date = s.now()
	}
	e.Date = ledger.Day(e.Date)

	res := s.Validate(e.Candidate())
	if !res.OK {
		return res.Err
	}
	e.Lines = res.EntryLines()
	e.Status = ledger.StatusDraft
	e.PostedAt = nil

	if e.Number == "" {
		num, err := s.seq.DocNumber(ctx, s.entryPrefix, e.Date)
		if err != nil {
			return fmt.Errorf("number entry: %w", err)
		}
		e.Number = num
	}
	if e.DisplayNumber == "" {
		display, err := s.seq.DisplayNumber(ctx, s.displayScope, e.Date)
		if err != nil {
			return fmt.Errorf("display number: %w", err)
		}
		if e.DisplayNumber, err = s.seq.UniqueTail(ctx, display); err != nil {
			return fmt.Errorf("display number: %w", err)
		}
	}

	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return err
	}
	s.logger.Info("entry drafted", zap.String("id", e.ID), zap.String("number", e.Number))
	return nil
}

func (s *Service) QuickEntry(ctx context.Context, q ledger.QuickEntry) (*ledger.JournalEntry, error) {
	e := q.Entry()
	if err := s.CreateEntry(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) GetEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

func (s *Service) ListEntries(ctx context.Context, filter store.EntryFilter) ([]ledger.JournalEntry, error) {
	return s.repo.ListEntries(ctx, filter)
}

func (s *Service) ApproveEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.Approve(); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// PostEntry revalidates an approved entry, posts it and merges its locked
// rows into the row set.
func (s *Service) PostEntry(ctx context.Context, id string) (*ledger.JournalEntry, error) {
	e, err := s.repo.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if res := s.Validate(e.Candidate()); !res.OK {
		return nil, res.Err
	}
	if err := e.Post(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, e); err != nil {
		return nil, err
	}

	added := s.rows.Merge(e.Rows())
	s.logger.Info("entry posted", zap.String("id", e.ID), zap.String("number", e.Number), zap.Int("rows", added))
	s.changed()
	return e, nil
}

// DeleteEntry removes an entry and every row it produced.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	if n := s.rows.RemoveEntry(id); n > 0 {
		s.logger.Info("entry rows removed", zap.String("id", id), zap.Int("rows", n))
		s.changed()
	}
	return nil
}

// AddRows stores and merges ad-hoc rows with the given origin. Manual rows
// are never locked.
func (s *Service) AddRows(ctx context.Context, origin ledger.Origin, rows []ledger.Row) (int, error) {
	chart := s.Chart()
	prepared := make([]ledger.Row, len(rows))
	for i, r := range rows {
		r.Origin = origin
		r.Date = ledger.Day(r.Date)
		if origin == ledger.OriginManual {
			r.Locked = false
		}
		if code, ok := chart.Resolve(r.Account); ok {
			r.Account = code
		}
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		if _, err := chart.Category(r.Account); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		prepared[i] = r
	}

	if _, err := s.repo.InsertRows(ctx, prepared); err != nil {
		return 0, err
	}
	added := s.rows.Merge(prepared)
	if added > 0 {
		s.changed()
	}
	return added, nil
}

// RemoveRow deletes an unlocked manual row.
func (s *Service) RemoveRow(ctx context.Context, key string) error {
	r, ok := s.rows.Get(key)
	if !ok {
		return ledger.ErrRowNotFound
	}
	if r.Locked || r.Origin != ledger.OriginManual {
		return ledger.ErrRowLocked
	}
	if err := s.repo.DeleteRow(ctx, key); err != nil {
		return err
	}
	if err := s.rows.Remove(key); err != nil {
		return err
	}
	s.changed()
	return nil
}

func (s *Service) TrialBalance(w report.Window) (*report.TrialBalance, error) {
	return report.NewTrialBalance(s.Rows(), w, s.Chart())
}

func (s *Service) BalanceSheet(w report.Window, opts ...report.BalanceSheetOption) (*report.BalanceSheet, error) {
	return report.NewBalanceSheet(s.Rows(), w, s.Chart(), opts...)
}

func (s *Service) ProfitAndLoss(w report.Window) (*report.ProfitAndLoss, error) {
	return report.NewProfitAndLoss(s.Rows(), w, s.Chart())
}

func (s *Service) Aggregate(account string, w report.Window) ([]report.Balance, error) {
	return report.Aggregate(s.Rows(), account, w)
}

func (s *Service) Suggest(account string, side ledger.Side) (advisor.Suggestion, error) {
	s.mu.Lock()
	a, chart := s.advisor, s.chart
	s.mu.Unlock()
	if code, ok := chart.Resolve(account); ok {
		account = code
	}
	return a.Suggest(account, side)
}

// NextNumber issues a document number outside of entry creation.
func (s *Service) NextNumber(ctx context.Context, prefix string, date time.Time) (string, error) {
	if date.IsZero() {
		date = s.now()
	}
	return s.seq.DocNumber(ctx, prefix, date)
}
