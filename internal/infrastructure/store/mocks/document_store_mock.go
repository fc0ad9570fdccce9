package mocks

import (
	"context"
	"sync"

	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
)

// MockStore is a DocumentStore for testing: an in-memory store with call
// recording and error injection
type MockStore struct {
	*store.MemoryStore

	mu sync.Mutex

	// For tracking calls in tests
	PutCalls    []PutCall
	UpdateCalls []UpdateCall
	DeleteCalls []string

	// Injected errors; nil means the call goes through
	GetErr       error
	GetAllErr    error
	PutErr       error
	UpdateErr    error
	DeleteErr    error
	SubscribeErr error

	// DeleteErrFor fails deletes of specific paths only
	DeleteErrFor map[string]error
}

// PutCall records parameters passed to Put
type PutCall struct {
	Path string
	Data any
}

// UpdateCall records parameters passed to Update
type UpdateCall struct {
	Path  string
	Patch map[string]any
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		MemoryStore:  store.NewMemoryStore(),
		PutCalls:     make([]PutCall, 0),
		UpdateCalls:  make([]UpdateCall, 0),
		DeleteCalls:  make([]string, 0),
		DeleteErrFor: make(map[string]error),
	}
}

// Seed writes a document without recording the call
func (m *MockStore) Seed(path string, data any) {
	if err := m.MemoryStore.Put(context.Background(), path, data); err != nil {
		panic(err)
	}
}

func (m *MockStore) Get(ctx context.Context, path string) (store.Document, bool, error) {
	m.mu.Lock()
	err := m.GetErr
	m.mu.Unlock()
	if err != nil {
		return store.Document{}, false, err
	}
	return m.MemoryStore.Get(ctx, path)
}

func (m *MockStore) GetAll(ctx context.Context, collectionPath string) ([]store.Document, error) {
	m.mu.Lock()
	err := m.GetAllErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.GetAll(ctx, collectionPath)
}

func (m *MockStore) Put(ctx context.Context, path string, data any) error {
	m.mu.Lock()
	m.PutCalls = append(m.PutCalls, PutCall{Path: path, Data: data})
	err := m.PutErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Put(ctx, path, data)
}

func (m *MockStore) Update(ctx context.Context, path string, patch map[string]any) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{Path: path, Patch: patch})
	err := m.UpdateErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Update(ctx, path, patch)
}

func (m *MockStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, path)
	err := m.DeleteErr
	if pathErr, ok := m.DeleteErrFor[path]; ok {
		err = pathErr
	}
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return m.MemoryStore.Delete(ctx, path)
}

func (m *MockStore) Subscribe(ctx context.Context, collectionPath string) (*store.Subscription, error) {
	m.mu.Lock()
	err := m.SubscribeErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.MemoryStore.Subscribe(ctx, collectionPath)
}

// Reset clears recorded calls and injected errors
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls = make([]PutCall, 0)
	m.UpdateCalls = make([]UpdateCall, 0)
	m.DeleteCalls = make([]string, 0)
	m.GetErr, m.GetAllErr, m.PutErr, m.UpdateErr, m.DeleteErr, m.SubscribeErr = nil, nil, nil, nil, nil, nil
	m.DeleteErrFor = make(map[string]error)
}
