package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
)

// Loader bulk-loads a raw dataset into PostgreSQL. Used by cmd/ingest
// to mirror a CSV directory into relational storage.
type Loader struct {
	pool *Pool
}

// NewLoader creates a new Loader.
func NewLoader(pool *Pool) *Loader {
	return &Loader{pool: pool}
}

// LoadDataset inserts all tables of the dataset via COPY. Existing rows
// with conflicting primary keys fail the load with ErrDuplicateKey.
func (l *Loader) LoadDataset(ctx context.Context, ds *domain.Dataset) error {
	if ds == nil {
		return storage.ErrInvalidInput
	}

	if err := l.copyOrders(ctx, ds.Orders); err != nil {
		return err
	}
	if err := l.copyItems(ctx, ds.Items); err != nil {
		return err
	}
	if err := l.copyPayments(ctx, ds.Payments); err != nil {
		return err
	}
	if err := l.copyCustomers(ctx, ds.Customers); err != nil {
		return err
	}
	if err := l.copyProducts(ctx, ds.Products); err != nil {
		return err
	}
	return l.copySellers(ctx, ds.Sellers)
}

func (l *Loader) copyOrders(ctx context.Context, rows []domain.OrderRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.OrderID, r.CustomerID, r.Status, r.PurchasedAt}
	}
	return l.copy(ctx, "orders",
		[]string{"order_id", "customer_id", "order_status", "order_purchase_timestamp"}, src)
}

func (l *Loader) copyItems(ctx context.Context, rows []domain.OrderItemRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.OrderID, r.ProductID, r.SellerID, r.Price, r.Freight}
	}
	return l.copy(ctx, "order_items",
		[]string{"order_id", "product_id", "seller_id", "price", "freight_value"}, src)
}

func (l *Loader) copyPayments(ctx context.Context, rows []domain.PaymentRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.OrderID, r.Sequential, r.Type, r.Installments, r.Value}
	}
	return l.copy(ctx, "order_payments",
		[]string{"order_id", "payment_sequential", "payment_type", "payment_installments", "payment_value"}, src)
}

func (l *Loader) copyCustomers(ctx context.Context, rows []domain.CustomerRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.CustomerID, r.City, r.State}
	}
	return l.copy(ctx, "customers",
		[]string{"customer_id", "customer_city", "customer_state"}, src)
}

func (l *Loader) copyProducts(ctx context.Context, rows []domain.ProductRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.ProductID, r.CategoryName}
	}
	return l.copy(ctx, "products",
		[]string{"product_id", "product_category_name"}, src)
}

func (l *Loader) copySellers(ctx context.Context, rows []domain.SellerRow) error {
	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = []any{r.SellerID, r.City, r.State}
	}
	return l.copy(ctx, "sellers",
		[]string{"seller_id", "seller_city", "seller_state"}, src)
}

func (l *Loader) copy(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	_, err := l.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy into %s: %w", table, err)
	}
	return nil
}
