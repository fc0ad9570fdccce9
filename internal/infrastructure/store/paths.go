package store

import (
	"fmt"
	"strings"
)

const (
	CollectionProducts  = "products"
	CollectionCarts     = "carts"
	CollectionWishlists = "wishlists"
	CollectionOrders    = "orders"
)

// Join builds a path from its segments
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split returns the collection path and document id of a document path
func Split(path string) (collection, id string, err error) {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 || idx == len(path)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return path[:idx], path[idx+1:], nil
}

func Products() string          { return CollectionProducts }
func Product(id string) string  { return Join(CollectionProducts, id) }
func CartItems(userID string) string {
	return Join(CollectionCarts, userID, "items")
}
func CartItem(userID, productID string) string {
	return Join(CartItems(userID), productID)
}
func WishlistItems(userID string) string {
	return Join(CollectionWishlists, userID, "items")
}
func WishlistItem(userID, productID string) string {
	return Join(WishlistItems(userID), productID)
}
func Reservations(userID string) string {
	return Join(CollectionOrders, userID, "reservations")
}
func Reservation(userID, orderID string) string {
	return Join(Reservations(userID), orderID)
}
func Chats(userID, orderID string) string {
	return Join(Reservation(userID, orderID), "chats")
}
func Chat(userID, orderID, messageID string) string {
	return Join(Chats(userID, orderID), messageID)
}
