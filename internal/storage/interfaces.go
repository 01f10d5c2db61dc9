package storage

import (
	"context"

	"retail-anomaly-lab/internal/domain"
)

// DatasetStore is the explicitly-scoped handle to the raw order tables.
// Callers acquire one, pass it into the pipeline, and close it when the
// run completes or fails. The pipeline never holds a global connection.
type DatasetStore interface {
	// Load reads all tables in one pass. Returns an error wrapping
	// ErrMissingInput (naming the table) if a required table is absent
	// or unreadable. Optional tables (products, sellers) are nil when
	// the backing source lacks them.
	Load(ctx context.Context) (*domain.Dataset, error)

	// Close releases the underlying handle. Safe to call after a failed Load.
	Close() error
}

// ScoredOrderStore persists the enriched order table for downstream
// consumers. Implementations treat records as immutable once written.
type ScoredOrderStore interface {
	// InsertBulk adds multiple scored orders. Returns ErrDuplicateKey if
	// any order_id already exists; the batch fails as a whole.
	InsertBulk(ctx context.Context, orders []*domain.OrderRecord) error

	// GetAll retrieves all scored orders, ordered by order_id ASC.
	GetAll(ctx context.Context) ([]*domain.OrderRecord, error)

	// GetByAnomalyType retrieves scored orders with the given combined
	// classification, ordered by order_id ASC.
	GetByAnomalyType(ctx context.Context, t domain.AnomalyType) ([]*domain.OrderRecord, error)
}
