// Package metrics derives the read-only aggregation views from the
// scored order table. Every function is a pure derivation, recomputed
// on demand; the input table is never modified.
package metrics

import (
	"sort"

	"retail-anomaly-lab/internal/domain"
)

// Summary computes dataset-level KPIs. An empty table yields a
// zero-valued summary: rates and means are 0, never NaN.
func Summary(orders []domain.OrderRecord) *domain.SummaryStats {
	s := &domain.SummaryStats{TotalOrders: len(orders)}
	if len(orders) == 0 {
		return s
	}

	normalRevenue := 0.0
	normalCount := 0
	for i := range orders {
		o := &orders[i]
		s.TotalRevenue += o.TotalAmount
		if o.IQRAnomaly {
			s.IQRAnomalyCount++
		}
		if o.MLAnomaly {
			s.MLAnomalyCount++
			s.AnomalyRevenue += o.TotalAmount
		} else {
			normalCount++
			normalRevenue += o.TotalAmount
		}
	}

	s.MLAnomalyRate = float64(s.MLAnomalyCount) / float64(s.TotalOrders) * 100
	if normalCount > 0 {
		s.AvgNormalOrder = normalRevenue / float64(normalCount)
	}
	if s.MLAnomalyCount > 0 {
		s.AvgAnomalyOrder = s.AnomalyRevenue / float64(s.MLAnomalyCount)
	}
	return s
}

// ByState groups the scored table by customer state. Orders with an
// unresolved customer fall under the "" group. Sorted by anomaly count
// descending, ties broken by state ascending for deterministic output.
func ByState(orders []domain.OrderRecord) []domain.StateRollup {
	groups := make(map[string]*domain.StateRollup)
	for i := range orders {
		o := &orders[i]
		state := ""
		if o.CustomerState != nil {
			state = *o.CustomerState
		}
		g, ok := groups[state]
		if !ok {
			g = &domain.StateRollup{State: state}
			groups[state] = g
		}
		g.TotalOrders++
		g.TotalRevenue += o.TotalAmount
		if o.MLAnomaly {
			g.AnomalyCount++
		}
	}

	result := make([]domain.StateRollup, 0, len(groups))
	for _, g := range groups {
		if g.TotalOrders > 0 {
			g.AnomalyRate = float64(g.AnomalyCount) / float64(g.TotalOrders) * 100
		}
		result = append(result, *g)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].AnomalyCount != result[j].AnomalyCount {
			return result[i].AnomalyCount > result[j].AnomalyCount
		}
		return result[i].State < result[j].State
	})
	return result
}

// Monthly groups the scored table by calendar month of the purchase
// timestamp, keyed "YYYY-MM", in chronological order.
func Monthly(orders []domain.OrderRecord) []domain.MonthlyRollup {
	groups := make(map[string]*domain.MonthlyRollup)
	for i := range orders {
		o := &orders[i]
		month := o.PurchasedAt.Format("2006-01")
		g, ok := groups[month]
		if !ok {
			g = &domain.MonthlyRollup{Month: month}
			groups[month] = g
		}
		g.TotalOrders++
		g.TotalRevenue += o.TotalAmount
		if o.MLAnomaly {
			g.AnomalyCount++
		}
	}

	result := make([]domain.MonthlyRollup, 0, len(groups))
	for _, g := range groups {
		if g.TotalOrders > 0 {
			g.AnomalyRate = float64(g.AnomalyCount) / float64(g.TotalOrders) * 100
		}
		result = append(result, *g)
	}

	// "YYYY-MM" sorts chronologically as a string
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month < result[j].Month
	})
	return result
}
