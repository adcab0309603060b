// Package syncer propagates ledger postings into the inventory module. A scan
// walks the current row set, derives the stock movements each row implies and
// applies each one at most once, gated by a content-derived key.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/simonvc/ledgersync/internal/directive"
	"github.com/simonvc/ledgersync/internal/ledger"
)

// ReferencePattern maps a document naming convention to the direction its
// lines move stock.
type ReferencePattern struct {
	Pattern   *regexp.Regexp
	Kind      string
	Direction directive.Direction
}

// DefaultReferencePatterns recognizes sales documents (stock out) and
// purchase documents (stock in).
var DefaultReferencePatterns = []ReferencePattern{
	{Pattern: regexp.MustCompile(`^(INV|SI|SO)-`), Kind: "sales", Direction: directive.DirectionOut},
	{Pattern: regexp.MustCompile(`^(BILL|PI|PO|GRN)-`), Kind: "purchase", Direction: directive.DirectionIn},
}

// DefaultInventoryAccounts are the account codes whose postings imply stock.
var DefaultInventoryAccounts = []string{"1200"}

type Engine struct {
	movements MovementService
	resolver  DocumentResolver
	keys      KeyStore

	logger            *zap.Logger
	autoPost          bool
	postedBy          string
	defaultWarehouse  string
	inventoryAccounts map[string]bool
	patterns          []ReferencePattern

	flight singleflight.Group
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithAutoPost finalizes each movement right after it is created.
func WithAutoPost(who string) Option {
	return func(e *Engine) {
		e.autoPost = true
		e.postedBy = who
	}
}

func WithInventoryAccounts(codes ...string) Option {
	return func(e *Engine) {
		e.inventoryAccounts = make(map[string]bool, len(codes))
		for _, c := range codes {
			e.inventoryAccounts[c] = true
		}
	}
}

func WithReferencePatterns(patterns ...ReferencePattern) Option {
	return func(e *Engine) { e.patterns = patterns }
}

// WithDefaultWarehouse fills in the warehouse for directives that only give
// a direction.
func WithDefaultWarehouse(wh string) Option {
	return func(e *Engine) { e.defaultWarehouse = wh }
}

// New builds an engine. resolver may be nil, which disables the document
// path.
func New(movements MovementService, resolver DocumentResolver, keys KeyStore, opts ...Option) *Engine {
	e := &Engine{
		movements: movements,
		resolver:  resolver,
		keys:      keys,
		logger:    zap.NewNop(),
		patterns:  DefaultReferencePatterns,
	}
	WithInventoryAccounts(DefaultInventoryAccounts...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Report summarizes one scan.
type Report struct {
	Rows      int  `json:"rows"`
	Applied   int  `json:"applied"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Cancelled bool `json:"cancelled"`
}

type outcome string

const (
	outcomeApplied   outcome = "applied"
	outcomeSkipped   outcome = "skipped"
	outcomeFailed    outcome = "failed"
	outcomeCancelled outcome = "cancelled"
)

const (
	pathDirective = "directive"
	pathDocument  = "document"
)

// Scan applies every pending effect implied by rows. Failures are logged
// and left unrecorded so the next scan retries them. Once ctx is done no
// further downstream calls are made; calls already issued are not undone.
func (e *Engine) Scan(ctx context.Context, rows []ledger.Row) Report {
	start := time.Now()
	defer func() { scanDuration.Observe(time.Since(start).Seconds()) }()

	rep := Report{Rows: len(rows)}
	docs := make(map[string]*Document)

	for _, r := range rows {
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}

		directives := directive.Extract(r.Memo)
		if len(directives) == 0 {
			directives = directive.Extract(r.Reference)
		}
		if len(directives) > 0 {
			for _, d := range directives {
				e.tally(&rep, pathDirective, e.apply(ctx, e.directiveMovement(r, d)))
				if rep.Cancelled {
					break
				}
			}
			continue
		}

		for _, o := range e.scanDocument(ctx, r, docs) {
			e.tally(&rep, pathDocument, o)
		}
	}

	e.logger.Debug("sync scan finished",
		zap.Int("rows", rep.Rows),
		zap.Int("applied", rep.Applied),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Bool("cancelled", rep.Cancelled),
	)
	return rep
}

func (e *Engine) tally(rep *Report, path string, o outcome) {
	effectsTotal.WithLabelValues(path, string(o)).Inc()
	switch o {
	case outcomeApplied:
		rep.Applied++
	case outcomeSkipped:
		rep.Skipped++
	case outcomeFailed:
		rep.Failed++
	case outcomeCancelled:
		rep.Cancelled = true
	}
}

// DirectiveKey identifies the effect of one directive on one row.
func DirectiveKey(r ledger.Row, d directive.Directive, from, to string) string {
	return strings.Join([]string{
		r.Date.Format(ledger.DateLayout),
		r.DocumentRef(),
		r.Account,
		r.Debit.String(),
		r.Credit.String(),
		fmt.Sprint(d.Line),
		d.Item,
		d.Quantity.String(),
		d.UnitCost.String(),
		from,
		to,
	}, "|")
}

// DocumentLineKey identifies the effect of one document line. It ignores the
// row, so every leg referencing the same document shares the key.
func DocumentLineKey(ref string, line int, l DocumentLine) string {
	return strings.Join([]string{"doc", ref, fmt.Sprint(line), l.Item, l.Quantity.String()}, "|")
}

func (e *Engine) directiveMovement(r ledger.Row, d directive.Directive) Movement {
	dir, from, to := d.Route(r.Side())
	if dir == directive.DirectionIn && to == "" {
		to = e.defaultWarehouse
	}
	if dir == directive.DirectionOut && from == "" {
		from = e.defaultWarehouse
	}
	memo := d.Memo
	if memo == "" {
		memo = r.Memo
	}
	return Movement{
		Key:        DirectiveKey(r, d, from, to),
		Date:       r.Date,
		Item:       d.Item,
		Quantity:   d.Quantity,
		UnitCost:   d.UnitCost,
		UOM:        d.UOM,
		Direction:  dir,
		From:       from,
		To:         to,
		Reference:  r.DocumentRef(),
		Memo:       memo,
		PreparedBy: d.PreparedBy,
		ApprovedBy: d.ApprovedBy,
	}
}

// candidate reports whether a row without a directive should resolve a
// document, and the direction implied by its naming convention.
func (e *Engine) candidate(r ledger.Row) (directive.Direction, bool) {
	ref := r.DocumentRef()
	if e.resolver == nil || ref == "" {
		return "", false
	}
	for _, p := range e.patterns {
		if p.Pattern.MatchString(ref) {
			return p.Direction, true
		}
	}
	if e.inventoryAccounts[r.Account] {
		if r.Side() == ledger.SideDebit {
			return directive.DirectionIn, true
		}
		return directive.DirectionOut, true
	}
	return "", false
}

func (e *Engine) scanDocument(ctx context.Context, r ledger.Row, cache map[string]*Document) []outcome {
	dir, ok := e.candidate(r)
	if !ok {
		return nil
	}
	ref := r.DocumentRef()

	doc, seen := cache[ref]
	if !seen {
		var err error
		doc, err = e.resolve(ctx, ref)
		if ctx.Err() != nil {
			return []outcome{outcomeCancelled}
		}
		if err != nil {
			e.logger.Warn("resolve document failed", zap.String("reference", ref), zap.Error(err))
			return []outcome{outcomeFailed}
		}
		cache[ref] = doc
	}
	if doc == nil {
		return nil
	}
	if doc.Direction != "" {
		dir = doc.Direction
	}

	out := make([]outcome, 0, len(doc.Lines))
	for i, l := range doc.Lines {
		if !l.Quantity.IsPositive() || l.Item == "" {
			continue
		}
		wh := l.Warehouse
		if wh == "" {
			wh = doc.Warehouse
		}
		if wh == "" {
			wh = e.defaultWarehouse
		}
		m := Movement{
			Key:       DocumentLineKey(ref, i, l),
			Date:      r.Date,
			Item:      l.Item,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
			UOM:       l.UOM,
			Direction: dir,
			Reference: ref,
			Memo:      r.Memo,
		}
		if dir == directive.DirectionOut {
			m.From = wh
		} else {
			m.To = wh
		}
		o := e.apply(ctx, m)
		out = append(out, o)
		if o == outcomeCancelled {
			break
		}
	}
	return out
}

// resolve looks up a document, sharing the call with overlapping scans. A
// shared call cancelled under another scan's context is retried under ctx.
func (e *Engine) resolve(ctx context.Context, ref string) (*Document, error) {
	key := "doc:" + ref
	for {
		v, err, shared := e.flight.Do(key, func() (any, error) {
			return e.resolver.DocumentByReference(ctx, ref)
		})
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if shared && errors.Is(err, context.Canceled) {
			e.flight.Forget(key)
			continue
		}
		doc, _ := v.(*Document)
		return doc, err
	}
}

// apply creates m unless its key is already recorded. Overlapping callers
// in this process share one in-flight call per key. Only ctx stops the
// caller: a shared call that ended because a superseded scan was cancelled
// is run again.
func (e *Engine) apply(ctx context.Context, m Movement) outcome {
	for {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		v, _, _ := e.flight.Do(m.Key, func() (any, error) {
			return e.applyOnce(ctx, m), nil
		})
		o := v.(outcome)
		if o != outcomeCancelled || ctx.Err() != nil {
			return o
		}
		e.flight.Forget(m.Key)
	}
}

func (e *Engine) applyOnce(ctx context.Context, m Movement) outcome {
	log := e.logger.With(zap.String("key", m.Key), zap.String("item", m.Item))

	done, err := e.keys.Has(ctx, m.Key)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		log.Warn("read sync key failed", zap.Error(err))
		return outcomeFailed
	}
	if done {
		return outcomeSkipped
	}
	if ctx.Err() != nil {
		return outcomeCancelled
	}

	id, err := e.movements.CreateMovement(ctx, m)
	if err != nil {
		if ctx.Err() != nil {
			return outcomeCancelled
		}
		log.Warn("create movement failed, will retry on next scan", zap.Error(err))
		return outcomeFailed
	}

	// Creation is confirmed; the key must be recorded even if the scan has
	// been superseded meanwhile.
	if err := e.keys.Record(context.WithoutCancel(ctx), m.Key); err != nil {
		log.Error("record sync key failed after movement was created",
			zap.String("movement", id), zap.Error(err))
		return outcomeFailed
	}
	log.Info("movement created",
		zap.String("movement", id),
		zap.String("direction", string(m.Direction)),
		zap.String("quantity", m.Quantity.String()),
	)

	if !e.autoPost || ctx.Err() != nil {
		return outcomeApplied
	}
	if err := e.movements.PostMovement(ctx, id, e.postedBy); err != nil {
		postFailures.Inc()
		log.Warn("post movement failed", zap.String("movement", id), zap.Error(err))
	}
	return outcomeApplied
}
