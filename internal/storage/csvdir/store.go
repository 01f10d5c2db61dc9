// Package csvdir implements storage.DatasetStore over a directory of
// Olist-style CSV exports, one file per table.
package csvdir

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
)

// Required dataset file names.
const (
	OrdersFile    = "olist_orders_dataset.csv"
	ItemsFile     = "olist_order_items_dataset.csv"
	PaymentsFile  = "olist_order_payments_dataset.csv"
	CustomersFile = "olist_customers_dataset.csv"
)

// Optional dataset file names.
const (
	ProductsFile = "olist_products_dataset.csv"
	SellersFile  = "olist_sellers_dataset.csv"
)

// DatasetFiles lists all known dataset files, required first.
var DatasetFiles = []string{
	OrdersFile,
	ItemsFile,
	PaymentsFile,
	CustomersFile,
	ProductsFile,
	SellersFile,
}

// timestampLayout matches the Olist export format.
const timestampLayout = "2006-01-02 15:04:05"

// Store reads the raw tables from a single directory.
type Store struct {
	dir string
}

// New creates a Store for the given directory. The directory itself is
// not checked until Load; use CheckDataFiles for an upfront status map.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Compile-time interface check.
var _ storage.DatasetStore = (*Store)(nil)

// CheckDataFiles reports which dataset files exist under dir.
// Keyed by file name, in DatasetFiles order.
func CheckDataFiles(dir string) map[string]bool {
	status := make(map[string]bool, len(DatasetFiles))
	for _, name := range DatasetFiles {
		_, err := os.Stat(filepath.Join(dir, name))
		status[name] = err == nil
	}
	return status
}

// Load reads all tables. A required file that is absent or unreadable
// yields an error wrapping storage.ErrMissingInput with the file name.
func (s *Store) Load(ctx context.Context) (*domain.Dataset, error) {
	ds := &domain.Dataset{}

	if err := s.readTable(ctx, OrdersFile, true, func(row *rowReader) error {
		ts, err := row.timestamp("order_purchase_timestamp")
		if err != nil {
			return err
		}
		ds.Orders = append(ds.Orders, domain.OrderRow{
			OrderID:     row.field("order_id"),
			CustomerID:  row.field("customer_id"),
			Status:      row.field("order_status"),
			PurchasedAt: ts,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readTable(ctx, ItemsFile, true, func(row *rowReader) error {
		price, err := row.float("price")
		if err != nil {
			return err
		}
		freight, err := row.float("freight_value")
		if err != nil {
			return err
		}
		ds.Items = append(ds.Items, domain.OrderItemRow{
			OrderID:   row.field("order_id"),
			ProductID: row.field("product_id"),
			SellerID:  row.field("seller_id"),
			Price:     price,
			Freight:   freight,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readTable(ctx, PaymentsFile, true, func(row *rowReader) error {
		seq, err := row.int("payment_sequential")
		if err != nil {
			return err
		}
		installments, err := row.int("payment_installments")
		if err != nil {
			return err
		}
		value, err := row.float("payment_value")
		if err != nil {
			return err
		}
		ds.Payments = append(ds.Payments, domain.PaymentRow{
			OrderID:      row.field("order_id"),
			Sequential:   seq,
			Type:         row.field("payment_type"),
			Installments: installments,
			Value:        value,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readTable(ctx, CustomersFile, true, func(row *rowReader) error {
		ds.Customers = append(ds.Customers, domain.CustomerRow{
			CustomerID: row.field("customer_id"),
			City:       row.field("customer_city"),
			State:      row.field("customer_state"),
		})
		return nil
	}); err != nil {
		return nil, err
	}

	// Optional tables: skipped silently when the file is missing.
	if err := s.readTable(ctx, ProductsFile, false, func(row *rowReader) error {
		ds.Products = append(ds.Products, domain.ProductRow{
			ProductID:    row.field("product_id"),
			CategoryName: row.field("product_category_name"),
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.readTable(ctx, SellersFile, false, func(row *rowReader) error {
		ds.Sellers = append(ds.Sellers, domain.SellerRow{
			SellerID: row.field("seller_id"),
			City:     row.field("seller_city"),
			State:    row.field("seller_state"),
		})
		return nil
	}); err != nil {
		return nil, err
	}

	return ds, nil
}

// Close is a no-op; the store holds no open handles between loads.
func (s *Store) Close() error {
	return nil
}

// readTable streams one CSV file through fn, one call per data row.
func (s *Store) readTable(ctx context.Context, name string, required bool, fn func(*rowReader) error) error {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		if !required && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: %s", storage.ErrMissingInput, name)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: %s", storage.ErrMissingInput, name)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[h] = i
	}

	row := &rowReader{file: name, cols: cols}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		row.record = record
		if err := fn(row); err != nil {
			return err
		}
	}
}

// rowReader resolves fields of the current CSV record by column name.
type rowReader struct {
	file   string
	cols   map[string]int
	record []string
}

func (r *rowReader) field(name string) string {
	idx, ok := r.cols[name]
	if !ok || idx >= len(r.record) {
		return ""
	}
	return r.record[idx]
}

func (r *rowReader) float(name string) (float64, error) {
	raw := r.field(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse %s=%q: %w", r.file, name, raw, err)
	}
	return v, nil
}

func (r *rowReader) int(name string) (int, error) {
	raw := r.field(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: parse %s=%q: %w", r.file, name, raw, err)
	}
	return v, nil
}

func (r *rowReader) timestamp(name string) (time.Time, error) {
	raw := r.field(name)
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: parse %s=%q: %w", r.file, name, raw, err)
	}
	return ts, nil
}
