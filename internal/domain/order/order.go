package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/domain/event"
	"github.com/example/ec-pickup-shop/internal/domain/location"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/google/uuid"
)

type Status string

const (
	StatusApproved  Status = "Approved"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrEmptyOrder          = errors.New("order must have at least one item")
	ErrInvalidStatus       = errors.New("invalid order status transition")
	ErrLocationUnavailable = errors.New("pickup location is not available for every item")
	ErrCheckoutInProgress  = errors.New("checkout already in progress")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusApproved:  {StatusCompleted, StatusCancelled},
	StatusCompleted: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) Terminal() bool {
	allowed, ok := validTransitions[s]
	return ok && len(allowed) == 0
}

// Item is a line copied into the order at placement
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Size      string `json:"size"`
	Price     int    `json:"price"`
	Quantity  int    `json:"quantity"`
}

// Order is a pickup reservation. Total is fixed at placement.
type Order struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Store        string    `json:"store"`
	Status       Status    `json:"status"`
	Items        []Item    `json:"items"`
	Total        int       `json:"total"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	for _, s := range validTransitions[o.Status] {
		if s == target {
			return true
		}
	}
	return false
}

// Guard serializes checkouts per user across API instances. Acquire returns
// a token unique to that acquisition; Release frees the key only while it
// still holds that token and reports whether it did.
type Guard interface {
	Acquire(ctx context.Context, key string) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) (bool, error)
}

type Service struct {
	store     store.DocumentStore
	publisher event.Publisher
	guard     Guard
	now       func() time.Time
}

func NewService(s store.DocumentStore, pub event.Publisher) *Service {
	return &Service{store: s, publisher: pub, now: time.Now}
}

// WithGuard enables the duplicate checkout guard
func (s *Service) WithGuard(g Guard) *Service {
	s.guard = g
	return s
}

// BeginCheckout claims the user's checkout slot. The returned func releases it.
// Without a guard it always succeeds. A guard that cannot be reached does not
// block checkout.
func (s *Service) BeginCheckout(ctx context.Context, sess session.Session) (func(), error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	if s.guard == nil {
		return func() {}, nil
	}

	key := "checkout:" + userID
	token, ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		log.Printf("[Order] Checkout guard unavailable for user %s: %v", userID, err)
		return func() {}, nil
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	return func() {
		released, err := s.guard.Release(context.Background(), key, token)
		if err != nil {
			log.Printf("[Order] Failed to release checkout guard for user %s: %v", userID, err)
			return
		}
		if !released {
			log.Printf("[Order] Checkout guard for user %s expired before checkout finished", userID)
		}
	}, nil
}

// Place creates an Approved order from cart lines for pickup at pickup.
// The pickup location is checked against the lines' common locations here,
// whatever the caller showed the user before.
func (s *Service) Place(ctx context.Context, sess session.Session, lines []cart.LineItem, pickup string) (*Order, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	if pickup == "" {
		return nil, fmt.Errorf("%w: pickup location", catalog.ErrNotSelected)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if !location.Contains(location.Common(lines), pickup) {
		return nil, fmt.Errorf("%w: %s", ErrLocationUnavailable, pickup)
	}

	items := make([]Item, len(lines))
	for i, line := range lines {
		items[i] = Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			ImageURL:  line.ImageURL,
			Size:      line.Size,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}

	now := s.now()
	o := &Order{
		ID:           uuid.New().String(),
		UserID:       userID,
		Store:        pickup,
		Status:       StatusApproved,
		Items:        items,
		Total:        cart.Total(lines),
		ContactEmail: sess.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Put(ctx, store.Reservation(userID, o.ID), o); err != nil {
		return nil, err
	}
	log.Printf("[Order] Placed order %s for user %s at %s (total %d)", o.ID, userID, pickup, o.Total)

	event.Emit(ctx, s.publisher, EventOrderPlaced, o.ID, userID, OrderPlaced{
		OrderID:      o.ID,
		UserID:       userID,
		Store:        o.Store,
		Items:        o.Items,
		Total:        o.Total,
		ContactEmail: o.ContactEmail,
		PlacedAt:     now,
	})

	return o, nil
}

// Get reads one of the session user's orders
func (s *Service) Get(ctx context.Context, sess session.Session, orderID string) (*Order, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}
	return s.Find(ctx, userID, orderID)
}

// Find reads an order of any user
func (s *Service) Find(ctx context.Context, userID, orderID string) (*Order, error) {
	if userID == "" || orderID == "" {
		return nil, ErrOrderNotFound
	}
	doc, ok, err := s.store.Get(ctx, store.Reservation(userID, orderID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderNotFound
	}

	var o Order
	if err := doc.Decode(&o); err != nil {
		return nil, fmt.Errorf("failed to decode order %s: %w", orderID, err)
	}
	o.ID = doc.ID
	return &o, nil
}

// List returns the session user's orders, newest first
func (s *Service) List(ctx context.Context, sess session.Session) ([]Order, error) {
	userID, err := sess.Require()
	if err != nil {
		return nil, err
	}

	docs, err := s.store.GetAll(ctx, store.Reservations(userID))
	if err != nil {
		return nil, err
	}

	orders := make([]Order, 0, len(docs))
	for _, doc := range docs {
		var o Order
		if err := doc.Decode(&o); err != nil {
			log.Printf("[Order] Skipping undecodable order %s: %v", doc.Path, err)
			continue
		}
		o.ID = doc.ID
		orders = append(orders, o)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// Complete marks an approved order as picked up
func (s *Service) Complete(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.transition(ctx, userID, orderID, StatusCompleted)
}

// Cancel cancels an approved order
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.transition(ctx, userID, orderID, StatusCancelled)
}

// Transition moves an order to target, which must be reachable from its
// current status
func (s *Service) Transition(ctx context.Context, userID, orderID string, target Status) (*Order, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, target)
	}
	return s.transition(ctx, userID, orderID, target)
}

func (s *Service) transition(ctx context.Context, userID, orderID string, target Status) (*Order, error) {
	o, err := s.Find(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !o.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}

	from := o.Status
	now := s.now()
	patch := map[string]any{
		"status":     string(target),
		"updated_at": now.UTC().Format(time.RFC3339Nano),
	}
	if err := s.store.Update(ctx, store.Reservation(userID, orderID), patch); err != nil {
		return nil, err
	}
	o.Status = target
	o.UpdatedAt = now
	log.Printf("[Order] Order %s: %s -> %s", orderID, from, target)

	event.Emit(ctx, s.publisher, EventOrderStatusChanged, orderID, userID, OrderStatusChanged{
		OrderID:   orderID,
		UserID:    userID,
		From:      from,
		To:        target,
		ChangedAt: now,
	})

	return o, nil
}
