package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/ec-pickup-shop/internal/domain/event"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/email"
)

// Mailer sends reservation confirmations. email.Service implements it.
type Mailer interface {
	SendReservationConfirmation(to string, r email.Reservation) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer Mailer
}

// NewHandler creates a new notification handler
func NewHandler(mailer Mailer) *Handler {
	return &Handler{mailer: mailer}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var e event.Event
	if err := json.Unmarshal(value, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch e.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(e)
	case order.EventOrderStatusChanged:
		var changed order.OrderStatusChanged
		if err := e.Decode(&changed); err != nil {
			return err
		}
		log.Printf("[Notifier] Order %s for user %s: %s -> %s", changed.OrderID, changed.UserID, changed.From, changed.To)
	}
	return nil
}

func (h *Handler) handleOrderPlaced(e event.Event) error {
	var placed order.OrderPlaced
	if err := e.Decode(&placed); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", placed.OrderID, placed.UserID)

	if placed.ContactEmail == "" {
		log.Printf("[Notifier] No contact email for user %s; skipping order %s", placed.UserID, placed.OrderID)
		return nil
	}

	items := make([]email.ReservationItem, len(placed.Items))
	for i, item := range placed.Items {
		name := item.Name
		if name == "" {
			name = item.ProductID
		}
		items[i] = email.ReservationItem{
			Name:     name,
			Size:     item.Size,
			Quantity: item.Quantity,
			Price:    item.Price,
		}
	}

	reservation := email.Reservation{
		OrderID:  placed.OrderID,
		Store:    placed.Store,
		Items:    items,
		Total:    placed.Total,
		PlacedAt: placed.PlacedAt,
	}
	if err := h.mailer.SendReservationConfirmation(placed.ContactEmail, reservation); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", placed.ContactEmail, err)
		return err
	}

	log.Printf("[Notifier] Reservation confirmation sent to %s for order %s", placed.ContactEmail, placed.OrderID)
	return nil
}
