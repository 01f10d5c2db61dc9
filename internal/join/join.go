// Package join builds the order record table from the raw dataset.
// Pure function of its input; no state, no I/O.
package join

import (
	"sort"

	"retail-anomaly-lab/internal/domain"
)

// itemAggregate holds per-order line item rollups.
type itemAggregate struct {
	count int
	total float64 // sum of price + freight
}

// Build produces one OrderRecord per qualifying order: status must be
// "delivered" and the order must have at least one line item. Orders
// failing either condition are dropped here, not scored. Output is
// ordered by OrderID ASC for deterministic downstream processing.
func Build(ds *domain.Dataset) []domain.OrderRecord {
	if ds == nil {
		return nil
	}

	items := aggregateItems(ds.Items)
	installments := aggregateInstallments(ds.Payments)
	states := indexCustomerStates(ds.Customers)

	records := make([]domain.OrderRecord, 0, len(ds.Orders))
	for _, o := range ds.Orders {
		if o.Status != domain.OrderStatusDelivered {
			continue
		}
		agg, ok := items[o.OrderID]
		if !ok {
			// No resolvable item total: drop, matching the join contract.
			continue
		}

		rec := domain.OrderRecord{
			OrderID:      o.OrderID,
			CustomerID:   o.CustomerID,
			PurchasedAt:  o.PurchasedAt,
			HourOfDay:    o.PurchasedAt.Hour(),
			DayOfWeek:    int(o.PurchasedAt.Weekday()),
			ItemCount:    agg.count,
			TotalAmount:  agg.total,
			Installments: 1, // default when no payment rows exist
			AnomalyType:  domain.AnomalyNormal,
		}
		if inst, ok := installments[o.OrderID]; ok {
			rec.Installments = inst
		}
		if state, ok := states[o.CustomerID]; ok {
			s := state
			rec.CustomerState = &s
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].OrderID < records[j].OrderID
	})
	return records
}

// aggregateItems rolls up line items per order: row count and
// sum of (price + freight).
func aggregateItems(items []domain.OrderItemRow) map[string]itemAggregate {
	out := make(map[string]itemAggregate)
	for _, it := range items {
		agg := out[it.OrderID]
		agg.count++
		agg.total += it.Price + it.Freight
		out[it.OrderID] = agg
	}
	return out
}

// aggregateInstallments keeps the maximum installment count per order.
// Max is the business rule for orders paid in several transactions.
func aggregateInstallments(payments []domain.PaymentRow) map[string]int {
	out := make(map[string]int)
	for _, p := range payments {
		if cur, ok := out[p.OrderID]; !ok || p.Installments > cur {
			out[p.OrderID] = p.Installments
		}
	}
	return out
}

// indexCustomerStates maps customer_id to state for the left-lookup.
func indexCustomerStates(customers []domain.CustomerRow) map[string]string {
	out := make(map[string]string, len(customers))
	for _, c := range customers {
		out[c.CustomerID] = c.State
	}
	return out
}
