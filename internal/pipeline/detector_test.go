package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"retail-anomaly-lab/internal/domain"
	"retail-anomaly-lab/internal/storage"
	"retail-anomaly-lab/internal/storage/memory"
)

// fakeDatasetStore serves a fixed dataset, or a fixed error.
type fakeDatasetStore struct {
	ds  *domain.Dataset
	err error
}

func (f *fakeDatasetStore) Load(context.Context) (*domain.Dataset, error) {
	return f.ds, f.err
}

func (f *fakeDatasetStore) Close() error { return nil }

// syntheticDataset builds normal delivered orders plus injected orders
// whose amount is roughly 100x the typical order. Injected order ids
// carry the "inj-" prefix.
func syntheticDataset(normal, injected int, seed int64) *domain.Dataset {
	rng := rand.New(rand.NewSource(seed))
	base := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)

	ds := &domain.Dataset{}
	states := []string{"SP", "RJ", "MG", "RS", "BA"}

	add := func(orderID string, amount float64) {
		customerID := "cust-" + orderID
		purchased := base.Add(time.Duration(rng.Intn(180*24)) * time.Hour)
		ds.Orders = append(ds.Orders, domain.OrderRow{
			OrderID:     orderID,
			CustomerID:  customerID,
			Status:      domain.OrderStatusDelivered,
			PurchasedAt: purchased,
		})
		ds.Items = append(ds.Items, domain.OrderItemRow{
			OrderID:   orderID,
			ProductID: fmt.Sprintf("prod-%d", rng.Intn(40)),
			SellerID:  fmt.Sprintf("sel-%d", rng.Intn(10)),
			Price:     amount * 0.9,
			Freight:   amount * 0.1,
		})
		ds.Payments = append(ds.Payments, domain.PaymentRow{
			OrderID:      orderID,
			Sequential:   1,
			Type:         "credit_card",
			Installments: 1 + rng.Intn(4),
			Value:        amount,
		})
		ds.Customers = append(ds.Customers, domain.CustomerRow{
			CustomerID: customerID,
			State:      states[rng.Intn(len(states))],
		})
	}

	for i := 0; i < normal; i++ {
		add(fmt.Sprintf("ord-%04d", i), 100+rng.NormFloat64()*20)
	}
	for i := 0; i < injected; i++ {
		add(fmt.Sprintf("inj-%04d", i), 10000+rng.NormFloat64()*100)
	}
	return ds
}

func TestDetector_EndToEnd(t *testing.T) {
	const normal, injected = 950, 50
	store := &fakeDatasetStore{ds: syntheticDataset(normal, injected, 17)}

	d := NewDetector(DefaultConfig())
	if err := d.Run(context.Background(), store); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	records, err := d.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != normal+injected {
		t.Fatalf("scored %d orders, want %d", len(records), normal+injected)
	}

	// ML flag rate must land near the configured contamination.
	mlCount := 0
	for _, r := range records {
		if r.MLAnomaly {
			mlCount++
		}
	}
	rate := float64(mlCount) / float64(len(records))
	if rate < 0.03 || rate > 0.07 {
		t.Errorf("ml flag rate = %v, want within 2pp of 0.05", rate)
	}

	// Every injected order is an extreme amount outlier: the IQR fence
	// must catch all of them, and combined with the model flag they
	// classify as high confidence.
	for _, r := range records {
		if len(r.OrderID) >= 4 && r.OrderID[:4] == "inj-" {
			if !r.IQRAnomaly {
				t.Errorf("injected order %s not IQR-flagged", r.OrderID)
			}
			if r.AnomalyType != domain.AnomalyHighConfidence && r.AnomalyType != domain.AnomalyStatistical {
				t.Errorf("injected order %s classified %q", r.OrderID, r.AnomalyType)
			}
		}
	}

	// The injected orders must occupy the top positions by score.
	byScore := make([]domain.OrderRecord, len(records))
	copy(byScore, records)
	sort.Slice(byScore, func(i, j int) bool {
		return byScore[i].AnomalyScore > byScore[j].AnomalyScore
	})
	for i := 0; i < injected; i++ {
		if byScore[i].OrderID[:4] != "inj-" {
			t.Errorf("rank %d by score is %s, want an injected order", i, byScore[i].OrderID)
		}
	}
}

func TestDetector_Deterministic(t *testing.T) {
	ds := syntheticDataset(300, 15, 23)

	run := func() []domain.OrderRecord {
		d := NewDetector(DefaultConfig())
		if err := d.Run(context.Background(), &fakeDatasetStore{ds: ds}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		records, err := d.Records()
		if err != nil {
			t.Fatalf("Records failed: %v", err)
		}
		return records
	}

	r1, r2 := run(), run()
	if len(r1) != len(r2) {
		t.Fatalf("record counts differ: %d vs %d", len(r1), len(r2))
	}
	for i := range r1 {
		if r1[i].OrderID != r2[i].OrderID ||
			r1[i].AnomalyScore != r2[i].AnomalyScore ||
			r1[i].MLAnomaly != r2[i].MLAnomaly ||
			r1[i].AnomalyType != r2[i].AnomalyType {
			t.Fatalf("record %d differs across runs:\n%+v\n%+v", i, r1[i], r2[i])
		}
	}
}

func TestDetector_MissingInputPropagates(t *testing.T) {
	loadErr := fmt.Errorf("%w: olist_orders_dataset.csv", storage.ErrMissingInput)
	d := NewDetector(DefaultConfig())

	err := d.Run(context.Background(), &fakeDatasetStore{err: loadErr})
	if !errors.Is(err, storage.ErrMissingInput) {
		t.Fatalf("Run = %v, want ErrMissingInput", err)
	}
}

func TestDetector_StagePreconditions(t *testing.T) {
	d := NewDetector(DefaultConfig())

	if err := d.FitModel(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("FitModel before Load = %v, want ErrNotLoaded", err)
	}
	if err := d.AddStatisticalFlags(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("AddStatisticalFlags before Load = %v, want ErrNotLoaded", err)
	}
	if _, err := d.Records(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Records before run = %v, want ErrNotReady", err)
	}
	if _, err := d.Summary(); !errors.Is(err, ErrNotReady) {
		t.Errorf("Summary before run = %v, want ErrNotReady", err)
	}
	if _, err := d.Categories(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Categories before Load = %v, want ErrNotLoaded", err)
	}

	if err := d.Load(context.Background(), &fakeDatasetStore{ds: syntheticDataset(10, 0, 1)}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := d.AddStatisticalFlags(); !errors.Is(err, ErrNotScored) {
		t.Errorf("AddStatisticalFlags before FitModel = %v, want ErrNotScored", err)
	}
}

func TestDetector_DegenerateTinyTable(t *testing.T) {
	// A single delivered order cannot be isolated against anything; the
	// run still completes with no model flags.
	d := NewDetector(DefaultConfig())
	if err := d.Run(context.Background(), &fakeDatasetStore{ds: syntheticDataset(1, 0, 2)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	records, err := d.Records()
	if err != nil {
		t.Fatalf("Records failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].MLAnomaly || records[0].AnomalyType != domain.AnomalyNormal {
		t.Errorf("degenerate record flagged: %+v", records[0])
	}
}

func TestDetector_Views(t *testing.T) {
	d := NewDetector(DefaultConfig())
	if err := d.Run(context.Background(), &fakeDatasetStore{ds: syntheticDataset(200, 10, 9)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	summary, err := d.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalOrders != 210 {
		t.Errorf("summary total = %d, want 210", summary.TotalOrders)
	}

	states, err := d.ByState()
	if err != nil {
		t.Fatalf("ByState failed: %v", err)
	}
	months, err := d.Monthly()
	if err != nil {
		t.Fatalf("Monthly failed: %v", err)
	}

	stateTotal, monthTotal := 0, 0
	for _, g := range states {
		stateTotal += g.TotalOrders
	}
	for _, g := range months {
		monthTotal += g.TotalOrders
	}
	if stateTotal != summary.TotalOrders || monthTotal != summary.TotalOrders {
		t.Errorf("rollup totals %d/%d do not partition %d orders", stateTotal, monthTotal, summary.TotalOrders)
	}

	categories, err := d.Categories()
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}
	sellers, err := d.Sellers()
	if err != nil {
		t.Fatalf("Sellers failed: %v", err)
	}
	// No products table in the synthetic dataset: one "" category group.
	if len(categories) != 1 || categories[0].CategoryName != "" {
		t.Errorf("categories = %+v, want single uncategorized group", categories)
	}
	if len(sellers) == 0 {
		t.Error("expected seller rollups from line items")
	}
}

func TestDetector_Export(t *testing.T) {
	d := NewDetector(DefaultConfig())
	if err := d.Run(context.Background(), &fakeDatasetStore{ds: syntheticDataset(100, 5, 4)}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sink := memory.NewScoredOrderStore()
	if err := d.Export(context.Background(), sink); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	stored, err := sink.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(stored) != 105 {
		t.Errorf("stored %d orders, want 105", len(stored))
	}

	// Exporting the same run twice violates the order_id key.
	if err := d.Export(context.Background(), sink); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("second export = %v, want ErrDuplicateKey", err)
	}
}
