// Package sequence issues human-legible document numbers from persistent
// monotonic counters.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Store persists counters by key. Implementations must be safe for
// concurrent use; Generator serializes its own read-modify-write cycles.
type Store interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64) error
}

const dayLayout = "20060102"

// Generator hands out numbers of the form PREFIX-YYYYMMDD-0001.
type Generator struct {
	mu    sync.Mutex
	store Store
}

func NewGenerator(store Store) *Generator {
	return &Generator{store: store}
}

func counterKey(prefix string, date time.Time) string {
	return "seq:" + prefix + ":" + date.UTC().Format(dayLayout)
}

func displayKey(scope string, date time.Time) string {
	return "display:" + scope + ":" + date.UTC().Format(dayLayout)
}

func tailKey(display string) string {
	return "tail:" + display
}

// Next increments and returns the counter for prefix on date. Counters reset
// per day.
func (g *Generator) Next(ctx context.Context, prefix string, date time.Time) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next(ctx, counterKey(normalizePrefix(prefix), date))
}

func (g *Generator) next(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	n, _, err := g.store.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", key, err)
	}
	n++
	if err := g.store.Set(ctx, key, n); err != nil {
		return 0, fmt.Errorf("write counter %s: %w", key, err)
	}
	return n, nil
}

// DocNumber returns the next document number for prefix on date.
func (g *Generator) DocNumber(ctx context.Context, prefix string, date time.Time) (string, error) {
	prefix = normalizePrefix(prefix)
	n, err := g.Next(ctx, prefix, date)
	if err != nil {
		return "", err
	}
	return Format(prefix, date, n), nil
}

// DisplayNumber returns the display number for scope on date. The first call
// for a (scope, day) pair draws from the scope's counter; later calls return
// the same number.
func (g *Generator) DisplayNumber(ctx context.Context, scope string, date time.Time) (string, error) {
	scope = normalizePrefix(scope)
	g.mu.Lock()
	defer g.mu.Unlock()

	key := displayKey(scope, date)
	n, ok, err := g.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read display number %s: %w", key, err)
	}
	if !ok {
		n, err = g.next(ctx, counterKey(scope, date))
		if err != nil {
			return "", err
		}
		if err := g.store.Set(ctx, key, n); err != nil {
			return "", fmt.Errorf("write display number %s: %w", key, err)
		}
	}
	return Format(scope, date, n), nil
}

// UniqueTail appends a per-display counter: JE-20250110-0001/3.
func (g *Generator) UniqueTail(ctx context.Context, display string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, err := g.next(ctx, tailKey(display))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d", display, n), nil
}

// Format renders a number without touching any counter.
func Format(prefix string, date time.Time, n int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, date.UTC().Format(dayLayout), n)
}

func normalizePrefix(p string) string {
	p = strings.ToUpper(strings.TrimSpace(p))
	if p == "" {
		return "DOC"
	}
	return p
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int64)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
