package wishlist

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/session"
)

var ErrInvalidProduct = errors.New("product_id is required")

// Entry is a saved product. There is at most one entry per product.
type Entry struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	Price     int       `json:"price"`
	Size      string    `json:"size"`
	AddedAt   time.Time `json:"added_at"`
}

// Upsert merges entry into entries. Re-adding a product only changes the
// stored size; re-adding with the same size returns entries itself. New
// products are appended.
func Upsert(entries []Entry, entry Entry) []Entry {
	for i, existing := range entries {
		if existing.ProductID != entry.ProductID {
			continue
		}
		if existing.Size == entry.Size {
			return entries
		}
		next := append([]Entry(nil), entries...)
		next[i].Size = entry.Size
		return next
	}

	next := make([]Entry, 0, len(entries)+1)
	next = append(next, entries...)
	return append(next, entry)
}

// Remove drops the entry for productID; a missing id is a no-op
func Remove(entries []Entry, productID string) []Entry {
	next := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != productID {
			next = append(next, e)
		}
	}
	return next
}

type Service struct {
	store store.DocumentStore
}

func NewService(s store.DocumentStore) *Service {
	return &Service{store: s}
}

// Items reads the user's wishlist
func (s *Service) Items(ctx context.Context, sess session.Session) ([]Entry, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}

	docs, err := s.store.GetAll(ctx, store.WishlistItems(userID))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(docs))
	for _, doc := range docs {
		var e Entry
		if err := doc.Decode(&e); err != nil {
			log.Printf("[Wishlist] Skipping undecodable entry %s: %v", doc.Path, err)
			continue
		}
		e.ProductID = doc.ID
		entries = append(entries, e)
	}
	return entries, nil
}

// Add saves a product in the chosen size. Saving a product again updates only
// its size, and writes nothing when the size is unchanged.
func (s *Service) Add(ctx context.Context, sess session.Session, item catalog.Item, size string) (Entry, error) {
	userID, err := sess.Require()
	if err != nil {
		return Entry{}, err
	}
	if item.ID == "" {
		return Entry{}, ErrInvalidProduct
	}
	if err := item.ValidateSize(size); err != nil {
		return Entry{}, err
	}

	path := store.WishlistItem(userID, item.ID)
	doc, exists, err := s.store.Get(ctx, path)
	if err != nil {
		return Entry{}, err
	}

	incoming := Entry{
		ProductID: item.ID,
		Name:      item.Name,
		ImageURL:  item.ImageURL,
		Price:     item.Price,
		Size:      size,
		AddedAt:   time.Now(),
	}

	if !exists {
		if err := s.store.Put(ctx, path, incoming); err != nil {
			return Entry{}, err
		}
		return incoming, nil
	}

	var existing Entry
	if err := doc.Decode(&existing); err != nil {
		return Entry{}, fmt.Errorf("failed to decode wishlist entry %s: %w", path, err)
	}
	existing.ProductID = doc.ID

	merged := Upsert([]Entry{existing}, incoming)[0]
	if merged.Size != existing.Size {
		if err := s.store.Update(ctx, path, map[string]any{"size": merged.Size}); err != nil {
			return Entry{}, err
		}
	}
	return merged, nil
}

// Remove deletes an entry; removing a missing entry is not an error
func (s *Service) Remove(ctx context.Context, sess session.Session, productID string) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if productID == "" {
		return ErrInvalidProduct
	}
	return s.store.Delete(ctx, store.WishlistItem(userID, productID))
}
