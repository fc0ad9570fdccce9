package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/session"
)

type Service struct {
	store store.DocumentStore
}

func NewService(s store.DocumentStore) *Service {
	return &Service{store: s}
}

// Items reads the user's cart, ordered by product id
func (s *Service) Items(ctx context.Context, sess session.Session) ([]LineItem, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}

	docs, err := s.store.GetAll(ctx, store.CartItems(userID))
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, len(docs))
	for _, doc := range docs {
		var item LineItem
		if err := doc.Decode(&item); err != nil {
			log.Printf("[Cart] Skipping undecodable line %s: %v", doc.Path, err)
			continue
		}
		item.ProductID = doc.ID
		items = append(items, item)
	}
	return items, nil
}

// AddItem adds one unit of a catalog item in the chosen size
func (s *Service) AddItem(ctx context.Context, sess session.Session, item catalog.Item, size string) (LineItem, error) {
	userID, err := sess.Require()
	if err != nil {
		return LineItem{}, err
	}
	if err := item.ValidateSize(size); err != nil {
		return LineItem{}, err
	}

	path := store.CartItem(userID, item.ID)
	var current []LineItem
	doc, exists, err := s.store.Get(ctx, path)
	if err != nil {
		return LineItem{}, err
	}
	if exists {
		var existing LineItem
		if err := doc.Decode(&existing); err != nil {
			return LineItem{}, fmt.Errorf("failed to decode cart line %s: %w", path, err)
		}
		existing.ProductID = doc.ID
		current = append(current, existing)
	}

	next, err := AddOrIncrement(current, item, size)
	if err != nil {
		return LineItem{}, err
	}
	line, _ := Find(next, item.ID)

	if exists {
		err = s.store.Update(ctx, path, map[string]any{"quantity": line.Quantity})
	} else {
		err = s.store.Put(ctx, path, line)
	}
	if err != nil {
		return LineItem{}, err
	}
	return line, nil
}

// ChangeQuantity applies direction to the stored quantity and returns the
// refetched cart. Concurrent changes are last-write-wins.
func (s *Service) ChangeQuantity(ctx context.Context, sess session.Session, productID string, direction Direction) ([]LineItem, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	if productID == "" {
		return nil, ErrInvalidProduct
	}

	path := store.CartItem(userID, productID)
	doc, ok, err := s.store.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrItemNotFound
	}

	var item LineItem
	if err := doc.Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode cart line %s: %w", path, err)
	}

	changed := ChangeQuantity(item, direction)
	if changed.Quantity != item.Quantity {
		if err := s.store.Update(ctx, path, map[string]any{"quantity": changed.Quantity}); err != nil {
			return nil, err
		}
	}

	return s.Items(ctx, sess)
}

// Remove deletes a line. When a view is given the removal is applied to it
// first and stays applied even if the store delete fails.
func (s *Service) Remove(ctx context.Context, sess session.Session, view *View, productID string) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}
	if productID == "" {
		return ErrInvalidProduct
	}

	if view != nil {
		view.MarkRemoved(productID)
	}

	if err := s.store.Delete(ctx, store.CartItem(userID, productID)); err != nil {
		log.Printf("[Cart] Failed to delete line %s for user %s: %v", productID, userID, err)
		return err
	}
	return nil
}

// Clear deletes every line of the cart. It is safe to retry.
func (s *Service) Clear(ctx context.Context, sess session.Session) error {
	items, err := s.Items(ctx, sess)
	if err != nil {
		return err
	}
	return s.DeleteLines(ctx, sess, items)
}

// DeleteLines deletes the given lines, attempting every one even when some
// deletes fail. Lines already gone are not an error.
func (s *Service) DeleteLines(ctx context.Context, sess session.Session, lines []LineItem) error {
	userID, err := sess.Require()
	if err != nil {
		return err
	}

	var errs []error
	for _, line := range lines {
		if err := s.store.Delete(ctx, store.CartItem(userID, line.ProductID)); err != nil {
			errs = append(errs, fmt.Errorf("line %s: %w", line.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// Refresh replaces the view's state with the stored cart. On failure the view
// keeps what it had.
func (s *Service) Refresh(ctx context.Context, sess session.Session, view *View) error {
	items, err := s.Items(ctx, sess)
	if err != nil {
		return err
	}
	view.Reconcile(items)
	return nil
}
