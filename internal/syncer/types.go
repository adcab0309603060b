package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/simonvc/ledgersync/internal/directive"
)

// Movement is a stock movement submitted to the inventory module.
type Movement struct {
	ID         string              `json:"id,omitempty"`
	Key        string              `json:"key"`
	Date       time.Time           `json:"date"`
	Item       string              `json:"item"`
	Quantity   decimal.Decimal     `json:"quantity"`
	UnitCost   decimal.Decimal     `json:"unitCost"`
	UOM        string              `json:"uom,omitempty"`
	Direction  directive.Direction `json:"direction"`
	From       string              `json:"fromWarehouse,omitempty"`
	To         string              `json:"toWarehouse,omitempty"`
	Reference  string              `json:"reference,omitempty"`
	Memo       string              `json:"memo,omitempty"`
	PreparedBy string              `json:"preparedBy,omitempty"`
	ApprovedBy string              `json:"approvedBy,omitempty"`
}

// MovementService creates movements downstream. CreateMovement returns the
// id assigned by the service.
type MovementService interface {
	CreateMovement(ctx context.Context, m Movement) (string, error)
	PostMovement(ctx context.Context, id, who string) error
}

// Document is a downstream document (invoice, bill, receipt) whose lines
// imply stock movements.
type Document struct {
	Reference string              `json:"reference"`
	Kind      string              `json:"kind,omitempty"`
	Direction directive.Direction `json:"direction,omitempty"`
	Warehouse string              `json:"warehouse,omitempty"`
	Lines     []DocumentLine      `json:"lines"`
}

type DocumentLine struct {
	Item      string          `json:"item"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unitCost"`
	UOM       string          `json:"uom,omitempty"`
	Warehouse string          `json:"warehouse,omitempty"`
}

// DocumentResolver fetches a document by its reference. A missing document
// is (nil, nil).
type DocumentResolver interface {
	DocumentByReference(ctx context.Context, ref string) (*Document, error)
}

// KeyStore records idempotency keys of applied effects. Keys are never
// removed; recording an existing key is a no-op.
type KeyStore interface {
	Has(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string) error
}

// MemoryKeyStore is an in-process KeyStore.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]struct{})}
}

func (m *MemoryKeyStore) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *MemoryKeyStore) Record(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
	return nil
}

func (m *MemoryKeyStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.keys)
}
