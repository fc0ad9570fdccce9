package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store/mocks"
	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSession = session.New("user-123", "user@example.com", "customer")

func newTestOrderService() (*Service, *mocks.MockStore, *mocks.MockPublisher) {
	docStore := mocks.NewMockStore()
	publisher := mocks.NewMockPublisher()
	return NewService(docStore, publisher), docStore, publisher
}

func testLines() []cart.LineItem {
	return []cart.LineItem{
		{ProductID: "p1", Name: "Kebaya", ImageURL: "p1.jpg", Size: "M", Price: 100000, Quantity: 2, Locations: []string{"Jakarta", "Surabaya"}},
		{ProductID: "p2", Name: "Sarong", ImageURL: "p2.jpg", Size: "L", Price: 150000, Quantity: 1, Locations: []string{"Surabaya"}},
	}
}

func seedOrder(t *testing.T, docStore *mocks.MockStore, id string, status Status, createdAt time.Time) {
	t.Helper()
	docStore.Seed(store.Reservation("user-123", id), Order{
		ID:        id,
		UserID:    "user-123",
		Store:     "Jakarta",
		Status:    status,
		Items:     []Item{{ProductID: "p1", Price: 10, Quantity: 1}},
		Total:     10,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
}

// ============================================
// Place Order Tests
// ============================================

func TestService_Place_Success(t *testing.T) {
	service, docStore, publisher := newTestOrderService()
	ctx := context.Background()

	o, err := service.Place(ctx, testSession, testLines(), "Surabaya")

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "user-123", o.UserID)
	assert.Equal(t, "Surabaya", o.Store)
	assert.Equal(t, StatusApproved, o.Status)
	assert.Len(t, o.Items, 2)
	assert.Equal(t, 350000, o.Total) // 2*100000 + 1*150000
	assert.Equal(t, "user@example.com", o.ContactEmail)
	assert.False(t, o.CreatedAt.IsZero())

	require.Len(t, docStore.PutCalls, 1)
	assert.Equal(t, store.Reservation("user-123", o.ID), docStore.PutCalls[0].Path)
	assert.Equal(t, []string{EventOrderPlaced}, publisher.EventTypes())

	stored, err := service.Get(ctx, testSession, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Total, stored.Total)
	assert.Equal(t, o.Items, stored.Items)
}

func TestService_Place_ItemsAreSnapshots(t *testing.T) {
	service, _, _ := newTestOrderService()
	lines := testLines()

	o, err := service.Place(context.Background(), testSession, lines, "Surabaya")
	require.NoError(t, err)

	lines[0].Price = 1
	lines[0].Quantity = 99
	lines[0].Name = "changed"

	assert.Equal(t, 100000, o.Items[0].Price)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "Kebaya", o.Items[0].Name)
	assert.Equal(t, 350000, o.Total)
}

func TestService_Place_Validation(t *testing.T) {
	tests := []struct {
		name    string
		sess    session.Session
		lines   []cart.LineItem
		pickup  string
		wantErr error
	}{
		{"not authenticated", session.Anonymous, testLines(), "Surabaya", session.ErrNotAuthenticated},
		{"no location", testSession, testLines(), "", catalog.ErrNotSelected},
		{"empty cart", testSession, nil, "Surabaya", ErrEmptyOrder},
		{"location not common", testSession, testLines(), "Jakarta", ErrLocationUnavailable},
		{"unknown location", testSession, testLines(), "Bandung", ErrLocationUnavailable},
		{
			name:    "item without locations",
			sess:    testSession,
			lines:   append(testLines(), cart.LineItem{ProductID: "p3", Price: 1, Quantity: 1}),
			pickup:  "Surabaya",
			wantErr: ErrLocationUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, docStore, publisher := newTestOrderService()

			o, err := service.Place(context.Background(), tt.sess, tt.lines, tt.pickup)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, o)
			assert.Empty(t, docStore.PutCalls)
			assert.Empty(t, publisher.Published)
		})
	}
}

func TestService_Place_StoreUnavailable(t *testing.T) {
	service, docStore, publisher := newTestOrderService()
	docStore.PutErr = store.ErrUnavailable

	o, err := service.Place(context.Background(), testSession, testLines(), "Surabaya")

	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, o)
	assert.Empty(t, publisher.Published)
}

func TestService_Place_PublishFailureDoesNotFailOrder(t *testing.T) {
	service, _, publisher := newTestOrderService()
	publisher.PublishErr = errors.New("broker down")

	o, err := service.Place(context.Background(), testSession, testLines(), "Surabaya")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, o.Status)
}

// ============================================
// Status Tests
// ============================================

func TestStatus(t *testing.T) {
	tests := []struct {
		status   Status
		valid    bool
		terminal bool
	}{
		{StatusApproved, true, false},
		{StatusCompleted, true, true},
		{StatusCancelled, true, true},
		{"Shipped", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.Valid())
			assert.Equal(t, tt.terminal, tt.status.Terminal())
		})
	}
}

func TestOrder_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusApproved, StatusCompleted, true},
		{StatusApproved, StatusCancelled, true},
		{StatusApproved, StatusApproved, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusApproved, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusApproved, false},
		{"Unknown", StatusCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.want, o.CanTransitionTo(tt.to))
		})
	}
}

func TestService_Complete_Success(t *testing.T) {
	service, docStore, publisher := newTestOrderService()
	ctx := context.Background()
	seedOrder(t, docStore, "order-1", StatusApproved, time.Now())

	o, err := service.Complete(ctx, "user-123", "order-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, o.Status)
	assert.Equal(t, []string{EventOrderStatusChanged}, publisher.EventTypes())

	stored, err := service.Find(ctx, "user-123", "order-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
	assert.Equal(t, 10, stored.Total)
}

func TestService_Cancel_Success(t *testing.T) {
	service, docStore, _ := newTestOrderService()
	seedOrder(t, docStore, "order-1", StatusApproved, time.Now())

	o, err := service.Cancel(context.Background(), "user-123", "order-1")

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestService_Transition_FromTerminal(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range []Status{StatusApproved, StatusCompleted, StatusCancelled} {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				service, docStore, publisher := newTestOrderService()
				seedOrder(t, docStore, "order-1", from, time.Now())

				_, err := service.Transition(context.Background(), "user-123", "order-1", to)

				assert.ErrorIs(t, err, ErrInvalidStatus)
				assert.Empty(t, docStore.UpdateCalls)
				assert.Empty(t, publisher.Published)

				stored, _ := service.Find(context.Background(), "user-123", "order-1")
				assert.Equal(t, from, stored.Status)
			})
		}
	}
}

func TestService_Transition_UnknownTarget(t *testing.T) {
	service, docStore, _ := newTestOrderService()
	seedOrder(t, docStore, "order-1", StatusApproved, time.Now())

	_, err := service.Transition(context.Background(), "user-123", "order-1", "Shipped")

	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestService_Transition_NotFound(t *testing.T) {
	service, _, _ := newTestOrderService()

	_, err := service.Complete(context.Background(), "user-123", "missing")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

// ============================================
// Read Tests
// ============================================

func TestService_Get_OtherUsersOrder(t *testing.T) {
	service, docStore, _ := newTestOrderService()
	seedOrder(t, docStore, "order-1", StatusApproved, time.Now())

	_, err := service.Get(context.Background(), session.New("someone-else", "", ""), "order-1")

	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestService_List_NewestFirst(t *testing.T) {
	service, docStore, _ := newTestOrderService()
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	seedOrder(t, docStore, "a", StatusApproved, base)
	seedOrder(t, docStore, "b", StatusCompleted, base.Add(2*time.Hour))
	seedOrder(t, docStore, "c", StatusCancelled, base.Add(time.Hour))

	orders, err := service.List(context.Background(), testSession)

	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "b", orders[0].ID)
	assert.Equal(t, "c", orders[1].ID)
	assert.Equal(t, "a", orders[2].ID)
}

func TestService_List_NotAuthenticated(t *testing.T) {
	service, _, _ := newTestOrderService()

	_, err := service.List(context.Background(), session.Anonymous)

	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

// ============================================
// Checkout Guard Tests
// ============================================

type memoryGuard struct {
	mu      sync.Mutex
	held    map[string]string
	next    int
	err     error
	release []string
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{held: map[string]string{}}
}

func (g *memoryGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", false, g.err
	}
	if _, ok := g.held[key]; ok {
		return "", false, nil
	}
	g.next++
	token := fmt.Sprintf("token-%d", g.next)
	g.held[key] = token
	return token, true, nil
}

func (g *memoryGuard) Release(ctx context.Context, key, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release = append(g.release, key)
	if g.held[key] != token {
		return false, nil
	}
	delete(g.held, key)
	return true, nil
}

// expire drops the key as a TTL expiry would
func (g *memoryGuard) expire(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.held, key)
}

func TestService_BeginCheckout_RejectsSecond(t *testing.T) {
	service, _, _ := newTestOrderService()
	guard := newMemoryGuard()
	service.WithGuard(guard)
	ctx := context.Background()

	release, err := service.BeginCheckout(ctx, testSession)
	require.NoError(t, err)

	_, err = service.BeginCheckout(ctx, testSession)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	release()
	release2, err := service.BeginCheckout(ctx, testSession)
	require.NoError(t, err)
	release2()
	assert.Equal(t, []string{"checkout:user-123", "checkout:user-123"}, guard.release)
}

func TestService_BeginCheckout_GuardDownDoesNotBlock(t *testing.T) {
	service, _, _ := newTestOrderService()
	guard := newMemoryGuard()
	guard.err = errors.New("redis down")
	service.WithGuard(guard)

	release, err := service.BeginCheckout(context.Background(), testSession)

	require.NoError(t, err)
	release()
}

func TestService_BeginCheckout_NoGuard(t *testing.T) {
	service, _, _ := newTestOrderService()

	release, err := service.BeginCheckout(context.Background(), testSession)

	require.NoError(t, err)
	assert.NotNil(t, release)
}

func TestService_BeginCheckout_StaleReleaseKeepsNewerHolder(t *testing.T) {
	service, _, _ := newTestOrderService()
	guard := newMemoryGuard()
	service.WithGuard(guard)
	ctx := context.Background()

	releaseA, err := service.BeginCheckout(ctx, testSession)
	require.NoError(t, err)

	// A's slot expires and B takes it
	guard.expire("checkout:user-123")
	releaseB, err := service.BeginCheckout(ctx, testSession)
	require.NoError(t, err)

	// A finishing late must not free B's slot
	releaseA()
	_, err = service.BeginCheckout(ctx, testSession)
	assert.ErrorIs(t, err, ErrCheckoutInProgress)

	releaseB()
	releaseC, err := service.BeginCheckout(ctx, testSession)
	require.NoError(t, err)
	releaseC()
}
