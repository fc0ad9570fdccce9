package cart

import (
	"errors"

	"github.com/example/ec-pickup-shop/internal/domain/catalog"
)

var (
	ErrItemNotFound   = errors.New("cart item not found")
	ErrInvalidProduct = errors.New("product_id is required")
)

type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// LineItem is one product in a user's cart. Price, name, image and locations
// are copied from the catalog when the product is first added.
type LineItem struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name"`
	ImageURL  string   `json:"image_url"`
	Size      string   `json:"size"`
	Price     int      `json:"price"`
	Quantity  int      `json:"quantity"`
	Locations []string `json:"locations,omitempty"`
}

// PickupLocations implements location.Stocked
func (l LineItem) PickupLocations() []string {
	return l.Locations
}

func (l LineItem) Subtotal() int {
	return l.Price * l.Quantity
}

// AddOrIncrement adds one unit of a product. An existing line keeps its size
// and gains one unit; otherwise a new line with quantity 1 is appended.
// The input slice is not modified.
func AddOrIncrement(items []LineItem, item catalog.Item, size string) ([]LineItem, error) {
	if item.ID == "" {
		return nil, ErrInvalidProduct
	}
	if err := item.ValidateSize(size); err != nil {
		return nil, err
	}

	next := Clone(items)
	for i := range next {
		if next[i].ProductID == item.ID {
			next[i].Quantity++
			return next, nil
		}
	}

	return append(next, LineItem{
		ProductID: item.ID,
		Name:      item.Name,
		ImageURL:  item.ImageURL,
		Size:      size,
		Price:     item.Price,
		Quantity:  1,
		Locations: append([]string(nil), item.Locations...),
	}), nil
}

// ChangeQuantity steps the quantity up or down. A decrease never goes below 1;
// unknown directions return the item unchanged.
func ChangeQuantity(item LineItem, direction Direction) LineItem {
	switch direction {
	case Increase:
		item.Quantity++
	case Decrease:
		if item.Quantity > 1 {
			item.Quantity--
		}
	}
	return item
}

// Total returns the sum of price times quantity
func Total(items []LineItem) int {
	var total int
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}

// Remove returns the items without productID
func Remove(items []LineItem, productID string) []LineItem {
	next := make([]LineItem, 0, len(items))
	for _, item := range items {
		if item.ProductID != productID {
			next = append(next, item)
		}
	}
	return next
}

// Find returns the line for productID
func Find(items []LineItem, productID string) (LineItem, bool) {
	for _, item := range items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// Clone deep-copies line items
func Clone(items []LineItem) []LineItem {
	next := make([]LineItem, len(items))
	for i, item := range items {
		next[i] = item
		if item.Locations != nil {
			next[i].Locations = append([]string(nil), item.Locations...)
		}
	}
	return next
}
