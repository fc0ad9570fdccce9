package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/example/ec-pickup-shop/internal/domain/event"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/google/uuid"
)

const EventMessageSent = "MessageSent"

var (
	ErrEmptyMessage  = errors.New("message text is empty")
	ErrInvalidSender = errors.New("sender must be customer or store")
)

type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderStore    Sender = "store"
)

func (s Sender) Valid() bool {
	return s == SenderCustomer || s == SenderStore
}

// Message is one entry of an order's chat. Messages are never changed.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageSent struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	MessageID string    `json:"message_id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// Sort orders messages by timestamp, then id
func Sort(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID < messages[j].ID
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}

type Service struct {
	store     store.DocumentStore
	orders    *order.Service
	publisher event.Publisher
	now       func() time.Time
}

func NewService(s store.DocumentStore, orders *order.Service, pub event.Publisher) *Service {
	return &Service{store: s, orders: orders, publisher: pub, now: time.Now}
}

// Send appends a message to the chat of one of owner's orders. owner is the
// customer who placed the order, also when the store is the sender.
func (s *Service) Send(ctx context.Context, owner session.Session, orderID string, sender Sender, text string) (*Message, error) {
	userID, err := owner.Require()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	if !sender.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, sender)
	}
	if _, err := s.orders.Find(ctx, userID, orderID); err != nil {
		return nil, err
	}

	msg := &Message{
		ID:        uuid.New().String(),
		Text:      text,
		Sender:    sender,
		Timestamp: s.now(),
	}
	if err := s.store.Put(ctx, store.Chat(userID, orderID, msg.ID), msg); err != nil {
		return nil, err
	}

	event.Emit(ctx, s.publisher, EventMessageSent, orderID, userID, MessageSent{
		OrderID:   orderID,
		UserID:    userID,
		MessageID: msg.ID,
		Sender:    sender,
		Text:      text,
		SentAt:    msg.Timestamp,
	})
	return msg, nil
}

// Transcript reads the whole chat of an order in timestamp order
func (s *Service) Transcript(ctx context.Context, owner session.Session, orderID string) ([]Message, error) {
	userID, err := owner.Require()
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.Find(ctx, userID, orderID); err != nil {
		return nil, err
	}

	docs, err := s.store.GetAll(ctx, store.Chats(userID, orderID))
	if err != nil {
		return nil, err
	}
	return decodeMessages(docs), nil
}

// Subscribe starts a live feed of the order's transcript. Every call starts a
// fresh feed; the caller must Close it or cancel ctx.
func (s *Service) Subscribe(ctx context.Context, owner session.Session, orderID string) (*Feed, error) {
	userID, err := owner.Require()
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.Find(ctx, userID, orderID); err != nil {
		return nil, err
	}

	sub, err := s.store.Subscribe(ctx, store.Chats(userID, orderID))
	if err != nil {
		return nil, err
	}

	f := newFeed(sub, orderID)
	go f.run()
	return f, nil
}

func decodeMessages(docs []store.Document) []Message {
	messages := make([]Message, 0, len(docs))
	for _, doc := range docs {
		var m Message
		if err := doc.Decode(&m); err != nil {
			log.Printf("[Chat] Skipping undecodable message %s: %v", doc.Path, err)
			continue
		}
		m.ID = doc.ID
		messages = append(messages, m)
	}
	Sort(messages)
	return messages
}
