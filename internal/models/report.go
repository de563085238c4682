package models

import "github.com/shopspring/decimal"

// SalesReport aggregates delivered orders
type SalesReport struct {
	TotalSales     decimal.Decimal `json:"total_sales"`
	DeliveredCount int             `json:"delivered_count"`
	UnitsSold      map[string]int  `json:"units_sold"`
}

// CustomerSummary is the per-customer view consumed by exporters
type CustomerSummary struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Phone      string          `json:"phone"`
	OrderCount int             `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// AuditEntry is one row of the order audit trail
type AuditEntry struct {
	EventID     string `db:"event_id" json:"event_id"`
	EventType   string `db:"event_type" json:"event_type"`
	OrderNumber int64  `db:"order_number" json:"order_number"`
	FromStatus  string `db:"from_status" json:"from_status"`
	ToStatus    string `db:"to_status" json:"to_status"`
	Actor       string `db:"actor" json:"actor"`
}
