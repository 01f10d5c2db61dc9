package postgres

import (
	"context"
	"fmt"
	"time"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
)

// DatasetStore implements storage.DatasetStore over the raw order
// tables in PostgreSQL (see migrations/postgres for the schema).
type DatasetStore struct {
	pool *Pool
}

// NewDatasetStore creates a new DatasetStore.
func NewDatasetStore(pool *Pool) *DatasetStore {
	return &DatasetStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DatasetStore = (*DatasetStore)(nil)

// Load reads all raw tables. A missing required table yields an error
// wrapping storage.ErrMissingInput with the table name.
func (s *DatasetStore) Load(ctx context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}

	if err := s.loadOrders(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadItems(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadPayments(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadCustomers(ctx, ds); err != nil {
		return nil, err
	}
	// Optional tables: a missing table is not an error here.
	if err := s.loadProducts(ctx, ds); err != nil {
		return nil, err
	}
	if err := s.loadSellers(ctx, ds); err != nil {
		return nil, err
	}

	return ds, nil
}

// Close closes the underlying pool.
func (s *DatasetStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *DatasetStore) loadOrders(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT order_id, customer_id, order_status, order_purchase_timestamp
		FROM orders
		ORDER BY order_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return tableErr("orders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.OrderRow
		var ts *time.Time
		if err := rows.Scan(&r.OrderID, &r.CustomerID, &r.Status, &ts); err != nil {
			return fmt.Errorf("scan order: %w", err)
		}
		if ts != nil {
			r.PurchasedAt = *ts
		}
		ds.Orders = append(ds.Orders, r)
	}
	return rows.Err()
}

func (s *DatasetStore) loadItems(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT order_id, product_id, seller_id, price, freight_value
		FROM order_items
		ORDER BY order_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return tableErr("order_items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.OrderItemRow
		if err := rows.Scan(&r.OrderID, &r.ProductID, &r.SellerID, &r.Price, &r.Freight); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		ds.Items = append(ds.Items, r)
	}
	return rows.Err()
}

func (s *DatasetStore) loadPayments(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT order_id, payment_sequential, payment_type, payment_installments, payment_value
		FROM order_payments
		ORDER BY order_id ASC, payment_sequential ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return tableErr("order_payments", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.PaymentRow
		if err := rows.Scan(&r.OrderID, &r.Sequential, &r.Type, &r.Installments, &r.Value); err != nil {
			return fmt.Errorf("scan payment: %w", err)
		}
		ds.Payments = append(ds.Payments, r)
	}
	return rows.Err()
}

func (s *DatasetStore) loadCustomers(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT customer_id, customer_city, customer_state
		FROM customers
		ORDER BY customer_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return tableErr("customers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.CustomerRow
		if err := rows.Scan(&r.CustomerID, &r.City, &r.State); err != nil {
			return fmt.Errorf("scan customer: %w", err)
		}
		ds.Customers = append(ds.Customers, r)
	}
	return rows.Err()
}

func (s *DatasetStore) loadProducts(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT product_id, COALESCE(product_category_name, '')
		FROM products
		ORDER BY product_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		if isUndefinedTableError(err) {
			return nil
		}
		return fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.ProductRow
		if err := rows.Scan(&r.ProductID, &r.CategoryName); err != nil {
			return fmt.Errorf("scan product: %w", err)
		}
		ds.Products = append(ds.Products, r)
	}
	return rows.Err()
}

func (s *DatasetStore) loadSellers(ctx context.Context, ds *domain.Dataset) error {
	query := `
		SELECT seller_id, seller_city, seller_state
		FROM sellers
		ORDER BY seller_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		if isUndefinedTableError(err) {
			return nil
		}
		return fmt.Errorf("query sellers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r domain.SellerRow
		if err := rows.Scan(&r.SellerID, &r.City, &r.State); err != nil {
			return fmt.Errorf("scan seller: %w", err)
		}
		ds.Sellers = append(ds.Sellers, r)
	}
	return rows.Err()
}

// tableErr maps a missing required table to storage.ErrMissingInput,
// keeping other query failures intact.
func tableErr(table string, err error) error {
	if isUndefinedTableError(err) {
		return fmt.Errorf("%w: %s", storage.ErrMissingInput, table)
	}
	return fmt.Errorf("query %s: %w", table, err)
}
