package command

import (
	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/order"
)

// Cart Commands
type AddToCart struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

type ChangeQuantity struct {
	ProductID string         `json:"product_id"`
	Direction cart.Direction `json:"direction"`
}

type RemoveFromCart struct {
	ProductID string `json:"product_id"`
}

// Wishlist Commands
type AddToWishlist struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
}

type RemoveFromWishlist struct {
	ProductID string `json:"product_id"`
}

// Order Commands
type PlaceOrder struct {
	Store string `json:"store"`
}

type UpdateOrderStatus struct {
	UserID  string       `json:"user_id"`
	OrderID string       `json:"order_id"`
	Status  order.Status `json:"status"`
}

// Chat Commands
type SendMessage struct {
	OrderID string `json:"order_id"`
	Text    string `json:"text"`
}

type ReplyAsStore struct {
	UserID  string `json:"user_id"`
	OrderID string `json:"order_id"`
	Text    string `json:"text"`
}
