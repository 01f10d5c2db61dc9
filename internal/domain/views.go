package domain

// SummaryStats holds dataset-level KPIs over the scored order table.
type SummaryStats struct {
	TotalOrders     int
	TotalRevenue    float64
	MLAnomalyCount  int
	IQRAnomalyCount int
	MLAnomalyRate   float64 // percent of orders flagged by the model
	AnomalyRevenue  float64 // revenue of ML-flagged orders
	AvgNormalOrder  float64 // mean amount of non-flagged orders
	AvgAnomalyOrder float64 // mean amount of ML-flagged orders
}

// StateRollup is one row of the per-state aggregation.
// State is "" for orders whose customer lookup did not resolve.
type StateRollup struct {
	State        string
	TotalOrders  int
	AnomalyCount int // ML-flagged orders
	TotalRevenue float64
	AnomalyRate  float64 // anomaly_count / total_orders * 100, 0 for empty groups
}

// MonthlyRollup is one row of the per-calendar-month aggregation.
type MonthlyRollup struct {
	Month        string // "YYYY-MM"
	TotalOrders  int
	AnomalyCount int
	TotalRevenue float64
	AnomalyRate  float64
}

// CategorySummary is one row of the product category aggregation
// over the raw line items and products tables.
type CategorySummary struct {
	CategoryName string // "" when the product has no category
	ProductCount int    // distinct products
	OrderCount   int    // distinct orders
	TotalRevenue float64
	AvgPrice     float64
}

// SellerPerformance is one row of the seller aggregation over the raw
// line items and sellers tables.
type SellerPerformance struct {
	SellerID     string
	City         string
	State        string
	OrderCount   int // distinct orders
	TotalRevenue float64
	AvgItemPrice float64
}
