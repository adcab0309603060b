// Package merge reconciles ledger rows arriving from several origins into one
// duplicate-free sequence.
//
// Two rows are the same logical row when their natural key matches:
// (originEntryId or entryNumber, reference, date, account, debit, credit).
// Memo text is not part of the key, so two rows that differ only in memo
// collapse into one. On a key collision the configured Resolver decides which
// content survives; the default keeps the first-seen row.
package merge

import (
	"strings"
	"sync"

	"github.com/simonvc/ledgersync/internal/ledger"
	"go.uber.org/zap"
)

// Key returns the natural key of a row. Amounts are canonicalized so that
// 1000 and 1000.00 produce the same key.
func Key(r ledger.Row) string {
	owner := r.OriginEntryID
	if owner == "" {
		owner = r.EntryNumber
	}
	return strings.Join([]string{
		owner,
		r.Reference,
		r.Date.Format(ledger.DateLayout),
		r.Account,
		r.Debit.String(),
		r.Credit.String(),
	}, "|")
}

// Resolver picks the surviving row when an incoming row collides with an
// existing one. It must return one of its two arguments, or a row with the
// same key.
type Resolver func(existing, incoming ledger.Row) ledger.Row

// FirstSeen keeps the existing row.
func FirstSeen(existing, _ ledger.Row) ledger.Row { return existing }

// Store holds the merged row set. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	rows      []ledger.Row
	index     map[string]int
	version   uint64
	conflicts int
	resolver  Resolver
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithResolver replaces the first-seen conflict policy.
func WithResolver(r Resolver) Option {
	return func(s *Store) { s.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		index:    make(map[string]int),
		resolver: FirstSeen,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge folds the given sources into the store in order and returns how many
// new rows were added. Merging the same source again adds nothing.
func (s *Store) Merge(sources ...[]ledger.Row) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, changed := 0, false
	for _, src := range sources {
		for _, r := range src {
			k := Key(r)
			i, ok := s.index[k]
			if !ok {
				s.index[k] = len(s.rows)
				s.rows = append(s.rows, r)
				added++
				changed = true
				continue
			}

			existing := s.rows[i]
			if sameContent(existing, r) {
				continue
			}
			s.conflicts++
			winner := existing
			if !existing.Locked {
				winner = s.resolver(existing, r)
			}
			if Key(winner) != k {
				s.logger.Warn("merge resolver changed row key, keeping existing row", zap.String("key", k))
				continue
			}
			s.logger.Debug("merge conflict",
				zap.String("key", k),
				zap.String("existing_origin", string(existing.Origin)),
				zap.String("incoming_origin", string(r.Origin)),
			)
			if !sameContent(existing, winner) {
				s.rows[i] = winner
				changed = true
			}
		}
	}
	if changed {
		s.version++
	}
	return added
}

// Rows returns a snapshot of the merged rows in first-seen order.
func (s *Store) Rows() []ledger.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ledger.Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Get returns the row stored under key.
func (s *Store) Get(key string) (ledger.Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[key]
	if !ok {
		return ledger.Row{}, false
	}
	return s.rows[i], true
}

// Len returns the number of merged rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Version increases every time the row set changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Conflicts returns how many key collisions with differing content were seen.
func (s *Store) Conflicts() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conflicts
}

// Remove deletes an unlocked manual row.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[key]
	if !ok {
		return ledger.ErrRowNotFound
	}
	r := s.rows[i]
	if r.Locked || r.Origin != ledger.OriginManual {
		return ledger.ErrRowLocked
	}
	s.removeAt([]int{i})
	return nil
}

// RemoveEntry deletes every row produced by the given journal entry, locked or
// not, and returns how many were removed.
func (s *Store) RemoveEntry(originEntryID string) int {
	if originEntryID == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var idx []int
	for i, r := range s.rows {
		if r.OriginEntryID == originEntryID {
			idx = append(idx, i)
		}
	}
	s.removeAt(idx)
	return len(idx)
}

// Reset drops every row.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.index = make(map[string]int)
	s.version++
}

// removeAt drops rows at the given ascending indexes and rebuilds the index.
func (s *Store) removeAt(idx []int) {
	if len(idx) == 0 {
		return
	}
	drop := make(map[int]bool, len(idx))
	for _, i := range idx {
		drop[i] = true
	}
	kept := s.rows[:0]
	for i, r := range s.rows {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	s.index = make(map[string]int, len(kept))
	for i, r := range kept {
		s.index[Key(r)] = i
	}
	s.version++
}

func sameContent(a, b ledger.Row) bool {
	return a.Memo == b.Memo && a.Locked == b.Locked && a.Origin == b.Origin && a.EntryNumber == b.EntryNumber
}

// Rows merges sources in a fresh store and returns the result.
func Rows(sources ...[]ledger.Row) []ledger.Row {
	s := New()
	s.Merge(sources...)
	return s.Rows()
}
