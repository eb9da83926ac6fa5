package domain

import "time"

// OrderItem snapshots a cart line at checkout time. Later catalog changes
// never alter it; history is rendered from this copy alone.
type OrderItem struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	ProductCategory string `json:"product_category"`
	UnitPrice       Money  `json:"unit_price"`
	Quantity        int    `json:"quantity"`
	LineTotal       Money  `json:"line_total"`
}

// Order is immutable once created, append-only history owned by the shopper.
type Order struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Items      []OrderItem `json:"items"`
	Total      Money       `json:"total"`
	TotalItems int         `json:"total_items"`
	CreatedAt  time.Time   `json:"created_at"`
}
