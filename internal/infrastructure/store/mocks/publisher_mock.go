package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-pickup-shop/internal/domain/event"
)

// MockPublisher records published events
type MockPublisher struct {
	mu         sync.Mutex
	Published  []event.Event
	PublishErr error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Published: make([]event.Event, 0)}
}

func (m *MockPublisher) Publish(ctx context.Context, key string, e any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := e.(event.Event); ok {
		m.Published = append(m.Published, ev)
	}
	return m.PublishErr
}

// EventTypes returns the types of published events in order
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Published))
	for i, e := range m.Published {
		types[i] = e.EventType
	}
	return types
}
