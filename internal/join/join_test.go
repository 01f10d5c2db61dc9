package join

import (
	"testing"
	"time"

	"retail-anomaly-lab/internal/domain"
)

func testDataset() *domain.Dataset {
	purchased := time.Date(2017, 11, 24, 14, 30, 0, 0, time.UTC) // Friday
	return &domain.Dataset{
		Orders: []domain.OrderRow{
			{OrderID: "ord-1", CustomerID: "cust-1", Status: "delivered", PurchasedAt: purchased},
			{OrderID: "ord-2", CustomerID: "cust-2", Status: "shipped", PurchasedAt: purchased},
			{OrderID: "ord-3", CustomerID: "cust-3", Status: "canceled", PurchasedAt: purchased},
			{OrderID: "ord-4", CustomerID: "cust-4", Status: "delivered", PurchasedAt: purchased},
			{OrderID: "ord-5", CustomerID: "cust-5", Status: "delivered", PurchasedAt: purchased},
		},
		Items: []domain.OrderItemRow{
			{OrderID: "ord-1", ProductID: "prod-1", Price: 100, Freight: 10},
			{OrderID: "ord-1", ProductID: "prod-2", Price: 50, Freight: 5},
			{OrderID: "ord-2", ProductID: "prod-1", Price: 30, Freight: 3},
			{OrderID: "ord-4", ProductID: "prod-3", Price: 200, Freight: 20},
			// ord-5 has no items on purpose.
		},
		Payments: []domain.PaymentRow{
			{OrderID: "ord-1", Sequential: 1, Type: "credit_card", Installments: 3, Value: 100},
			{OrderID: "ord-1", Sequential: 2, Type: "voucher", Installments: 8, Value: 65},
			// ord-4 has no payment rows on purpose.
		},
		Customers: []domain.CustomerRow{
			{CustomerID: "cust-1", City: "sao paulo", State: "SP"},
			// cust-4 unresolved on purpose.
		},
	}
}

func TestBuild_FiltersNonDeliveredAndItemless(t *testing.T) {
	records := Build(testDataset())

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].OrderID != "ord-1" || records[1].OrderID != "ord-4" {
		t.Errorf("unexpected surviving orders: %q, %q", records[0].OrderID, records[1].OrderID)
	}
}

func TestBuild_ItemAggregation(t *testing.T) {
	records := Build(testDataset())

	rec := records[0]
	if rec.ItemCount != 2 {
		t.Errorf("item count = %d, want 2", rec.ItemCount)
	}
	if rec.TotalAmount != 165 {
		t.Errorf("total amount = %v, want 165 (price+freight over both items)", rec.TotalAmount)
	}
}

func TestBuild_InstallmentsMaxAndDefault(t *testing.T) {
	records := Build(testDataset())

	if got := records[0].Installments; got != 8 {
		t.Errorf("installments for order with two payments = %d, want max 8", got)
	}
	if got := records[1].Installments; got != 1 {
		t.Errorf("installments for order with no payments = %d, want default 1", got)
	}
}

func TestBuild_CustomerStateLookup(t *testing.T) {
	records := Build(testDataset())

	if records[0].CustomerState == nil || *records[0].CustomerState != "SP" {
		t.Errorf("expected resolved state SP, got %v", records[0].CustomerState)
	}
	if records[1].CustomerState != nil {
		t.Errorf("expected nil state for unresolved customer, got %q", *records[1].CustomerState)
	}
}

func TestBuild_DerivedTimeFields(t *testing.T) {
	records := Build(testDataset())

	rec := records[0]
	if rec.HourOfDay != 14 {
		t.Errorf("hour of day = %d, want 14", rec.HourOfDay)
	}
	// 2017-11-24 is a Friday; Sunday=0 convention.
	if rec.DayOfWeek != 5 {
		t.Errorf("day of week = %d, want 5", rec.DayOfWeek)
	}
	if rec.AnomalyType != domain.AnomalyNormal {
		t.Errorf("fresh record anomaly type = %q, want %q", rec.AnomalyType, domain.AnomalyNormal)
	}
}

func TestBuild_SortedByOrderID(t *testing.T) {
	ds := testDataset()
	// Reverse the input order; output order must not depend on it.
	for i, j := 0, len(ds.Orders)-1; i < j; i, j = i+1, j-1 {
		ds.Orders[i], ds.Orders[j] = ds.Orders[j], ds.Orders[i]
	}

	records := Build(ds)
	for i := 1; i < len(records); i++ {
		if records[i-1].OrderID >= records[i].OrderID {
			t.Fatalf("records not sorted by order id: %q before %q", records[i-1].OrderID, records[i].OrderID)
		}
	}
}

func TestBuild_NilAndEmptyDataset(t *testing.T) {
	if got := Build(nil); got != nil {
		t.Errorf("Build(nil) = %v, want nil", got)
	}
	if got := Build(&domain.Dataset{}); len(got) != 0 {
		t.Errorf("Build(empty) returned %d records, want 0", len(got))
	}
}
