package order

import "time"

const (
	EventOrderPlaced        = "OrderPlaced"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderPlaced struct {
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	Store        string    `json:"store"`
	Items        []Item    `json:"items"`
	Total        int       `json:"total"`
	ContactEmail string    `json:"contact_email,omitempty"`
	PlacedAt     time.Time `json:"placed_at"`
}

type OrderStatusChanged struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}
