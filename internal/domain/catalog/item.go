package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
)

var (
	ErrProductNotFound = errors.New("product not found")
	// ErrNotSelected means a required choice (size or pickup location) is missing
	ErrNotSelected = errors.New("required selection is missing")
)

// NewArrivalsLimit is how many products the home screen shows as new arrivals
const NewArrivalsLimit = 3

// Item is a product as published by the catalog. It is read-only here.
type Item struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ImageURL    string   `json:"image_url"`
	Price       int      `json:"price"`
	Sizes       []string `json:"sizes"`
	Locations   []string `json:"locations,omitempty"`
	Description string   `json:"description,omitempty"`
	Trending    bool     `json:"trending,omitempty"`
	// CreatedAt orders new arrivals; products without one sort last
	CreatedAt time.Time `json:"created_at"`
}

// HasSize reports whether size is one of the item's sizes
func (i Item) HasSize(size string) bool {
	for _, s := range i.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// PickupLocations returns where the item can be picked up; nil when undeclared
func (i Item) PickupLocations() []string {
	return i.Locations
}

// ValidateSize checks a size choice against the item
func (i Item) ValidateSize(size string) error {
	if size == "" {
		return fmt.Errorf("%w: size", ErrNotSelected)
	}
	if !i.HasSize(size) {
		return fmt.Errorf("%w: size %q is not offered for %s", ErrNotSelected, size, i.ID)
	}
	return nil
}

// FilterTrending keeps trending items in their given order
func FilterTrending(items []Item) []Item {
	trending := make([]Item, 0)
	for _, item := range items {
		if item.Trending {
			trending = append(trending, item)
		}
	}
	return trending
}

// Newest returns up to limit items, newest CreatedAt first. Equal
// timestamps keep their given order. The input is not modified.
func Newest(items []Item, limit int) []Item {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

type Service struct {
	store store.DocumentStore
}

func NewService(s store.DocumentStore) *Service {
	return &Service{store: s}
}

// Get reads a single product
func (s *Service) Get(ctx context.Context, productID string) (*Item, error) {
	if productID == "" {
		return nil, ErrProductNotFound
	}
	doc, ok, err := s.store.Get(ctx, store.Product(productID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProductNotFound
	}

	var item Item
	if err := doc.Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", productID, err)
	}
	item.ID = doc.ID
	return &item, nil
}

// List reads every product, ordered by id
func (s *Service) List(ctx context.Context) ([]Item, error) {
	docs, err := s.store.GetAll(ctx, store.Products())
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(docs))
	for _, doc := range docs {
		var item Item
		if err := doc.Decode(&item); err != nil {
			log.Printf("[Catalog] Skipping undecodable product %s: %v", doc.ID, err)
			continue
		}
		item.ID = doc.ID
		items = append(items, item)
	}
	return items, nil
}

// Trending reads the products flagged as trending, ordered by id
func (s *Service) Trending(ctx context.Context) ([]Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return FilterTrending(items), nil
}

// NewArrivals reads the limit most recently created products
func (s *Service) NewArrivals(ctx context.Context, limit int) ([]Item, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Newest(items, limit), nil
}
