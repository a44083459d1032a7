package models

import "time"

// Event types
const (
	EventTypeOrderCreated  = "ORDER_CREATED"
	EventTypeOrderUpdated  = "ORDER_UPDATED"
	EventTypeOrderDeleted  = "ORDER_DELETED"
	EventTypeStockAdjusted = "STOCK_ADJUSTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderEvent is published when an order is created, updated or deleted
type OrderEvent struct {
	BaseEvent
	OrderID           string          `json:"order_id"`
	SellerID          string          `json:"seller_id"`
	ClientID          string          `json:"client_id"`
	Total             float64         `json:"total"`
	TotalWithDiscount float64         `json:"total_with_discount"`
	Status            string          `json:"status"`
	Items             []OrderItemData `json:"items"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// StockAdjustedEvent is published after a product's stock changed.
// Delta is negative when stock was taken and positive when it was added.
type StockAdjustedEvent struct {
	BaseEvent
	ProductID string `json:"product_id"`
	SellerID  string `json:"seller_id"`
	Delta     int    `json:"delta"`
	Stock     int    `json:"stock"`
}
