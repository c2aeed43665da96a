// Package ledger provides batch item recorders that keep the latest status
// of every item of every batch.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	agent "github.com/armatrix/cursor-agent-sdk-go"
)

// Store is an ItemRecorder that can be queried afterwards.
type Store interface {
	agent.ItemRecorder
	Items(ctx context.Context, batchID string) ([]agent.BatchItem, error)
	Batches(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-memory ledger backed by a sync.RWMutex-protected map.
type MemoryStore struct {
	mu      sync.RWMutex
	batches map[string]map[int]agent.BatchItem
	order   []string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]map[int]agent.BatchItem),
	}
}

// Record stores the latest state of item.
func (m *MemoryStore) Record(_ context.Context, item agent.BatchItem) error {
	if item.BatchID == "" {
		return fmt.Errorf("batch id is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.batches[item.BatchID]
	if !ok {
		items = make(map[int]agent.BatchItem)
		m.batches[item.BatchID] = items
		m.order = append(m.order, item.BatchID)
	}
	items[item.Index] = item
	return nil
}

// Items returns the items of a batch ordered by index.
// Returns an error if the batch is not found.
func (m *MemoryStore) Items(_ context.Context, batchID string) ([]agent.BatchItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.batches[batchID]
	if !ok {
		return nil, fmt.Errorf("batch not found: %s", batchID)
	}
	result := make([]agent.BatchItem, 0, len(items))
	for _, it := range items {
		result = append(result, it)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result, nil
}

// Batches returns batch ids in the order they were first recorded.
func (m *MemoryStore) Batches(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}
