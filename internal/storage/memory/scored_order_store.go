package memory

import (
	"context"
	"sort"
	"sync"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
)

// ScoredOrderStore is an in-memory implementation of storage.ScoredOrderStore.
type ScoredOrderStore struct {
	mu   sync.RWMutex
	data map[string]*domain.OrderRecord // keyed by order_id
}

// NewScoredOrderStore creates a new in-memory scored order store.
func NewScoredOrderStore() *ScoredOrderStore {
	return &ScoredOrderStore{
		data: make(map[string]*domain.OrderRecord),
	}
}

// Compile-time interface check.
var _ storage.ScoredOrderStore = (*ScoredOrderStore)(nil)

// InsertBulk adds multiple scored orders. Fails entire batch on any duplicate.
func (s *ScoredOrderStore) InsertBulk(_ context.Context, orders []*domain.OrderRecord) error {
	if len(orders) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(orders))

	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[o.OrderID] = struct{}{}
	}

	for _, o := range orders {
		orderCopy := *o
		s.data[o.OrderID] = &orderCopy
	}

	return nil
}

// GetAll retrieves all scored orders, ordered by order_id ASC.
func (s *ScoredOrderStore) GetAll(_ context.Context) ([]*domain.OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OrderRecord, 0, len(s.data))
	for _, o := range s.data {
		orderCopy := *o
		result = append(result, &orderCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})
	return result, nil
}

// GetByAnomalyType retrieves scored orders with the given classification,
// ordered by order_id ASC.
func (s *ScoredOrderStore) GetByAnomalyType(_ context.Context, t domain.AnomalyType) ([]*domain.OrderRecord, error) {
	if !t.IsValid() {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.OrderRecord
	for _, o := range s.data {
		if o.AnomalyType == t {
			orderCopy := *o
			result = append(result, &orderCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].OrderID < result[j].OrderID
	})
	return result, nil
}
