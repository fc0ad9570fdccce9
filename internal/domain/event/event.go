package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope for every domain event published to Kafka
type Event struct {
	ID         string          `json:"id"`
	EventType  string          `json:"event_type"`
	SubjectID  string          `json:"subject_id"`
	UserID     string          `json:"user_id"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Publisher sends events to the event transport. kafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// New wraps a payload in an envelope
func New(eventType, subjectID, userID string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return Event{
		ID:         uuid.New().String(),
		EventType:  eventType,
		SubjectID:  subjectID,
		UserID:     userID,
		Data:       data,
		OccurredAt: time.Now(),
	}, nil
}

// Decode unmarshals the payload into v
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Emit publishes an event keyed by subject. Failures are logged and never
// returned: the write that produced the event has already happened.
func Emit(ctx context.Context, pub Publisher, eventType, subjectID, userID string, payload any) {
	if pub == nil {
		return
	}
	e, err := New(eventType, subjectID, userID, payload)
	if err != nil {
		log.Printf("[Event] %v", err)
		return
	}
	if err := pub.Publish(ctx, subjectID, e); err != nil {
		log.Printf("[Event] Failed to publish %s for %s: %v", eventType, subjectID, err)
	}
}
