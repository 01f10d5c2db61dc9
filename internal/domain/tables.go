package domain

import "time"

// OrderRow is one row of the raw orders table.
type OrderRow struct {
	OrderID     string
	CustomerID  string
	Status      string // "delivered" | "shipped" | "canceled" | ...
	PurchasedAt time.Time
}

// OrderItemRow is one row of the raw order line items table.
type OrderItemRow struct {
	OrderID   string
	ProductID string
	SellerID  string
	Price     float64
	Freight   float64
}

// PaymentRow is one row of the raw order payments table.
type PaymentRow struct {
	OrderID      string
	Sequential   int
	Type         string
	Installments int
	Value        float64
}

// CustomerRow is one row of the raw customers table.
type CustomerRow struct {
	CustomerID string
	City       string
	State      string
}

// ProductRow is one row of the raw products table.
type ProductRow struct {
	ProductID    string
	CategoryName string
}

// SellerRow is one row of the raw sellers table.
type SellerRow struct {
	SellerID string
	City     string
	State    string
}

// OrderStatusDelivered is the only status that survives the join.
const OrderStatusDelivered = "delivered"

// Dataset holds all raw tables loaded from a DatasetStore in one pass.
// Orders, Items, Payments and Customers are required; Products and
// Sellers are optional and nil when the backing source lacks them.
type Dataset struct {
	Orders    []OrderRow
	Items     []OrderItemRow
	Payments  []PaymentRow
	Customers []CustomerRow
	Products  []ProductRow
	Sellers   []SellerRow
}
