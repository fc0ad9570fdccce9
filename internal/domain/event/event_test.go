package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, event any) error {
	p.keys = append(p.keys, key)
	p.events = append(p.events, event)
	return p.err
}

type placed struct {
	OrderID string `json:"order_id"`
	Total   int    `json:"total"`
}

func TestNew(t *testing.T) {
	e, err := New("OrderPlaced", "order-1", "user-1", placed{OrderID: "order-1", Total: 350000})

	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "OrderPlaced", e.EventType)
	assert.Equal(t, "order-1", e.SubjectID)
	assert.Equal(t, "user-1", e.UserID)
	assert.False(t, e.OccurredAt.IsZero())

	var got placed
	require.NoError(t, e.Decode(&got))
	assert.Equal(t, 350000, got.Total)
}

func TestNew_UnmarshalablePayload(t *testing.T) {
	_, err := New("Broken", "x", "u", map[string]any{"ch": make(chan int)})

	assert.Error(t, err)
}

func TestEmit_Publishes(t *testing.T) {
	pub := &recordingPublisher{}

	Emit(context.Background(), pub, "OrderPlaced", "order-1", "user-1", placed{OrderID: "order-1"})

	require.Len(t, pub.events, 1)
	assert.Equal(t, []string{"order-1"}, pub.keys)

	raw, err := json.Marshal(pub.events[0])
	require.NoError(t, err)
	var e Event
	require.NoError(t, json.Unmarshal(raw, &e))
	assert.Equal(t, "OrderPlaced", e.EventType)
}

func TestEmit_SwallowsFailures(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}

	assert.NotPanics(t, func() {
		Emit(context.Background(), pub, "OrderPlaced", "order-1", "user-1", placed{})
	})
	assert.Len(t, pub.events, 1)
}

func TestEmit_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(context.Background(), nil, "OrderPlaced", "order-1", "user-1", placed{})
	})
}
