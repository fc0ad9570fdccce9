package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

var (
	// ErrUnavailable wraps every failure of the underlying persistence layer
	// (network, timeout, permission).
	ErrUnavailable = errors.New("store unavailable")
	ErrNotFound    = errors.New("document not found")
	ErrInvalidPath = errors.New("invalid document path")
)

// Document is a single stored document addressed by a slash separated path
type Document struct {
	ID   string          `json:"id"`
	Path string          `json:"path"`
	Data json.RawMessage `json:"data"`
}

// Decode unmarshals the document body into v
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// DocumentStore defines the interface of the hosted document database
type DocumentStore interface {
	// Get reads a single document
	Get(ctx context.Context, path string) (Document, bool, error)

	// GetAll reads every document of a collection, ordered by document id
	GetAll(ctx context.Context, collectionPath string) ([]Document, error)

	// Put creates or replaces a document
	Put(ctx context.Context, path string, data any) error

	// Update merges top-level fields into an existing document
	Update(ctx context.Context, path string, patch map[string]any) error

	// Delete removes a document; deleting a missing document is a no-op
	Delete(ctx context.Context, path string) error

	// Subscribe delivers the full collection snapshot now and after every change
	Subscribe(ctx context.Context, collectionPath string) (*Subscription, error)
}

// Subscription is a live feed of collection snapshots.
// The snapshot channel is closed once the subscription ends.
type Subscription struct {
	snapshots <-chan []Document
	cancel    context.CancelFunc
	once      sync.Once
}

// NewSubscription wraps a snapshot channel owned by an adapter. cancel must make
// the adapter stop and close the channel.
func NewSubscription(snapshots <-chan []Document, cancel context.CancelFunc) *Subscription {
	return &Subscription{snapshots: snapshots, cancel: cancel}
}

// Snapshots returns the channel of full collection snapshots
func (s *Subscription) Snapshots() <-chan []Document {
	return s.snapshots
}

// Close stops deliveries. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// offer hands the newest snapshot to a subscriber, replacing one it has not read yet.
// Callers must serialize offers on the same channel.
func offer(ch chan []Document, docs []Document) {
	select {
	case <-ch:
	default:
	}
	ch <- docs
}
