package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory document store
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]json.RawMessage // collection -> id -> data
	subs map[string]map[chan []Document]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]json.RawMessage),
		subs: make(map[string]map[chan []Document]struct{}),
	}
}

// Get retrieves a document by path
func (ms *MemoryStore) Get(ctx context.Context, path string) (Document, bool, error) {
	collection, id, err := Split(path)
	if err != nil {
		return Document{}, false, err
	}

	ms.mu.RLock()
	defer ms.mu.RUnlock()

	data, ok := ms.data[collection][id]
	if !ok {
		return Document{}, false, nil
	}
	return Document{ID: id, Path: path, Data: data}, true, nil
}

// GetAll retrieves all documents in a collection
func (ms *MemoryStore) GetAll(ctx context.Context, collectionPath string) ([]Document, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.snapshot(collectionPath), nil
}

// Put stores a document, replacing any previous version
func (ms *MemoryStore) Put(ctx context.Context, path string, data any) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.data[collection] == nil {
		ms.data[collection] = make(map[string]json.RawMessage)
	}
	ms.data[collection][id] = raw
	ms.notify(collection)
	return nil
}

// Update merges the patch into the top-level fields of an existing document
func (ms *MemoryStore) Update(ctx context.Context, path string, patch map[string]any) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	current, ok := ms.data[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	merged, err := mergePatch(current, patch)
	if err != nil {
		return fmt.Errorf("failed to patch document %s: %w", path, err)
	}
	ms.data[collection][id] = merged
	ms.notify(collection)
	return nil
}

// Delete removes a document
func (ms *MemoryStore) Delete(ctx context.Context, path string) error {
	collection, id, err := Split(path)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, ok := ms.data[collection][id]; !ok {
		return nil
	}
	delete(ms.data[collection], id)
	ms.notify(collection)
	return nil
}

// Subscribe registers a listener for a collection
func (ms *MemoryStore) Subscribe(ctx context.Context, collectionPath string) (*Subscription, error) {
	ch := make(chan []Document, 1)
	subCtx, cancel := context.WithCancel(ctx)

	ms.mu.Lock()
	if ms.subs[collectionPath] == nil {
		ms.subs[collectionPath] = make(map[chan []Document]struct{})
	}
	ms.subs[collectionPath][ch] = struct{}{}
	offer(ch, ms.snapshot(collectionPath))
	ms.mu.Unlock()

	go func() {
		<-subCtx.Done()
		ms.mu.Lock()
		delete(ms.subs[collectionPath], ch)
		if len(ms.subs[collectionPath]) == 0 {
			delete(ms.subs, collectionPath)
		}
		close(ch)
		ms.mu.Unlock()
	}()

	return NewSubscription(ch, cancel), nil
}

// Subscribers returns the number of live subscriptions on a collection
func (ms *MemoryStore) Subscribers(collectionPath string) int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return len(ms.subs[collectionPath])
}

// snapshot must be called with the lock held
func (ms *MemoryStore) snapshot(collection string) []Document {
	docs := make([]Document, 0, len(ms.data[collection]))
	for id, data := range ms.data[collection] {
		docs = append(docs, Document{ID: id, Path: Join(collection, id), Data: data})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

// notify must be called with the write lock held
func (ms *MemoryStore) notify(collection string) {
	subs := ms.subs[collection]
	if len(subs) == 0 {
		return
	}
	docs := ms.snapshot(collection)
	for ch := range subs {
		offer(ch, docs)
	}
}

func mergePatch(current json.RawMessage, patch map[string]any) (json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(current, &fields); err != nil {
		return nil, err
	}
	for key, value := range patch {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}
