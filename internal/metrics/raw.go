package metrics

import (
	"sort"

	"retail-anomaly-lab/internal/domain"
)

// Categories aggregates the raw line items by product category.
// Items whose product has no category (or no product row at all) fall
// under the "" group. Sorted by total revenue descending, ties broken
// by category name ascending.
func Categories(items []domain.OrderItemRow, products []domain.ProductRow) []domain.CategorySummary {
	categoryByProduct := make(map[string]string, len(products))
	for _, p := range products {
		categoryByProduct[p.ProductID] = p.CategoryName
	}

	type acc struct {
		products map[string]struct{}
		orders   map[string]struct{}
		revenue  float64
		items    int
	}
	groups := make(map[string]*acc)

	for _, it := range items {
		category := categoryByProduct[it.ProductID]
		g, ok := groups[category]
		if !ok {
			g = &acc{
				products: make(map[string]struct{}),
				orders:   make(map[string]struct{}),
			}
			groups[category] = g
		}
		g.products[it.ProductID] = struct{}{}
		g.orders[it.OrderID] = struct{}{}
		g.revenue += it.Price
		g.items++
	}

	result := make([]domain.CategorySummary, 0, len(groups))
	for category, g := range groups {
		row := domain.CategorySummary{
			CategoryName: category,
			ProductCount: len(g.products),
			OrderCount:   len(g.orders),
			TotalRevenue: g.revenue,
		}
		if g.items > 0 {
			row.AvgPrice = g.revenue / float64(g.items)
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalRevenue != result[j].TotalRevenue {
			return result[i].TotalRevenue > result[j].TotalRevenue
		}
		return result[i].CategoryName < result[j].CategoryName
	})
	return result
}

// Sellers aggregates the raw line items by seller. Sellers present in
// items but absent from the sellers table keep empty city/state.
// Sorted by total revenue descending, ties broken by seller id.
func Sellers(items []domain.OrderItemRow, sellers []domain.SellerRow) []domain.SellerPerformance {
	sellerByID := make(map[string]domain.SellerRow, len(sellers))
	for _, s := range sellers {
		sellerByID[s.SellerID] = s
	}

	type acc struct {
		orders  map[string]struct{}
		revenue float64
		items   int
	}
	groups := make(map[string]*acc)

	for _, it := range items {
		g, ok := groups[it.SellerID]
		if !ok {
			g = &acc{orders: make(map[string]struct{})}
			groups[it.SellerID] = g
		}
		g.orders[it.OrderID] = struct{}{}
		g.revenue += it.Price
		g.items++
	}

	result := make([]domain.SellerPerformance, 0, len(groups))
	for id, g := range groups {
		row := domain.SellerPerformance{
			SellerID:     id,
			OrderCount:   len(g.orders),
			TotalRevenue: g.revenue,
		}
		if s, ok := sellerByID[id]; ok {
			row.City = s.City
			row.State = s.State
		}
		if g.items > 0 {
			row.AvgItemPrice = g.revenue / float64(g.items)
		}
		result = append(result, row)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalRevenue != result[j].TotalRevenue {
			return result[i].TotalRevenue > result[j].TotalRevenue
		}
		return result[i].SellerID < result[j].SellerID
	})
	return result
}
