package models

import "time"

// Event types
const (
	EventTypeOrderCreated     = "ORDER_CREATED"
	EventTypeOrderLineAdded   = "ORDER_LINE_ADDED"
	EventTypeOrderLineRemoved = "ORDER_LINE_REMOVED"
	EventTypeOrderAdvanced    = "ORDER_ADVANCED"
	EventTypeOrderDeleted     = "ORDER_DELETED"
	EventTypeStockAdjusted    = "STOCK_ADJUSTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when an order is created and its stock reserved
type OrderCreatedEvent struct {
	BaseEvent
	OrderNumber int64      `json:"order_number"`
	CustomerID  string     `json:"customer_id"`
	Total       string     `json:"total"`
	Lines       []LineData `json:"lines"`
}

// OrderLineEvent published when a line is added to or removed from a New order
type OrderLineEvent struct {
	BaseEvent
	OrderNumber int64    `json:"order_number"`
	Line        LineData `json:"line"`
	Total       string   `json:"total"`
}

// OrderAdvancedEvent published on every state machine transition
type OrderAdvancedEvent struct {
	BaseEvent
	OrderNumber int64  `json:"order_number"`
	From        Status `json:"from"`
	To          Status `json:"to"`
	Actor       string `json:"actor"`
}

// OrderDeletedEvent published when an order is removed administratively
type OrderDeletedEvent struct {
	BaseEvent
	OrderNumber int64  `json:"order_number"`
	CustomerID  string `json:"customer_id"`
	Status      Status `json:"status"`
}

// StockAdjustedEvent published when stock is changed through the catalog
type StockAdjustedEvent struct {
	BaseEvent
	ProductCode string `json:"product_code"`
	Delta       int    `json:"delta"`
	Stock       int    `json:"stock"`
	Clamped     bool   `json:"clamped"`
}

// LineData represents line item data in events
type LineData struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// LineDataOf converts a line item to its event form
func LineDataOf(l LineItem) LineData {
	return LineData{
		ProductCode: l.ProductCode,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice.String(),
	}
}
