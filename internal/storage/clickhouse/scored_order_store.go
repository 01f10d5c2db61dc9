package clickhouse

import (
	"context"
	"fmt"
	"time"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
)

// ScoredOrderStore implements storage.ScoredOrderStore using ClickHouse.
// Downstream analytical consumers read the scored_orders table directly.
type ScoredOrderStore struct {
	conn *Conn
}

// NewScoredOrderStore creates a new ScoredOrderStore.
func NewScoredOrderStore(conn *Conn) *ScoredOrderStore {
	return &ScoredOrderStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoredOrderStore = (*ScoredOrderStore)(nil)

const scoredOrderColumns = `
	order_id, customer_id, purchased_at, hour_of_day, day_of_week,
	total_items, total_amount, payment_installments, customer_state,
	is_anomaly_ml, anomaly_score, amount_zscore, is_anomaly_iqr, anomaly_type
`

// InsertBulk adds multiple scored orders. Fails entire batch on duplicate.
func (s *ScoredOrderStore) InsertBulk(ctx context.Context, orders []*domain.OrderRecord) error {
	if len(orders) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		if o == nil || o.OrderID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[o.OrderID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[o.OrderID] = struct{}{}
	}

	// Check for duplicates against existing DB rows.
	// MergeTree does not enforce uniqueness at insert time.
	existing, err := s.existingIDs(ctx, orders)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if len(existing) > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO scored_orders ("+scoredOrderColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, o := range orders {
		// Pass nil directly for the Nullable state column
		err = batch.Append(
			o.OrderID, o.CustomerID, o.PurchasedAt,
			uint8(o.HourOfDay), uint8(o.DayOfWeek),
			uint32(o.ItemCount), o.TotalAmount, uint32(o.Installments),
			o.CustomerState,
			o.MLAnomaly, o.AnomalyScore, o.AmountZScore, o.IQRAnomaly,
			string(o.AnomalyType),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all scored orders, ordered by order_id ASC.
func (s *ScoredOrderStore) GetAll(ctx context.Context) ([]*domain.OrderRecord, error) {
	query := "SELECT " + scoredOrderColumns + " FROM scored_orders ORDER BY order_id ASC"

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query scored orders: %w", err)
	}
	defer rows.Close()

	return scanScoredOrders(rows)
}

// GetByAnomalyType retrieves scored orders with the given classification,
// ordered by order_id ASC.
func (s *ScoredOrderStore) GetByAnomalyType(ctx context.Context, t domain.AnomalyType) ([]*domain.OrderRecord, error) {
	if !t.IsValid() {
		return nil, storage.ErrInvalidInput
	}

	query := "SELECT " + scoredOrderColumns + ` FROM scored_orders
		WHERE anomaly_type = ? ORDER BY order_id ASC`

	rows, err := s.conn.Query(ctx, query, string(t))
	if err != nil {
		return nil, fmt.Errorf("query scored orders by type: %w", err)
	}
	defer rows.Close()

	return scanScoredOrders(rows)
}

// existingIDs returns order ids from the batch that are already stored.
func (s *ScoredOrderStore) existingIDs(ctx context.Context, orders []*domain.OrderRecord) ([]string, error) {
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.OrderID
	}

	rows, err := s.conn.Query(ctx,
		"SELECT order_id FROM scored_orders WHERE order_id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var existing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing = append(existing, id)
	}
	return existing, rows.Err()
}

// rowScanner abstracts driver.Rows for scanning.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanScoredOrders(rows rowScanner) ([]*domain.OrderRecord, error) {
	var result []*domain.OrderRecord
	for rows.Next() {
		var (
			o           domain.OrderRecord
			purchasedAt time.Time
			hour, dow   uint8
			items, inst uint32
			state       *string
			anomalyType string
		)
		err := rows.Scan(
			&o.OrderID, &o.CustomerID, &purchasedAt, &hour, &dow,
			&items, &o.TotalAmount, &inst, &state,
			&o.MLAnomaly, &o.AnomalyScore, &o.AmountZScore, &o.IQRAnomaly,
			&anomalyType,
		)
		if err != nil {
			return nil, fmt.Errorf("scan scored order: %w", err)
		}
		o.PurchasedAt = purchasedAt
		o.HourOfDay = int(hour)
		o.DayOfWeek = int(dow)
		o.ItemCount = int(items)
		o.Installments = int(inst)
		o.CustomerState = state
		o.AnomalyType = domain.AnomalyType(anomalyType)
		result = append(result, &o)
	}
	return result, rows.Err()
}
