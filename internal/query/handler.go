package query

import (
	"context"
	"strings"

	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/domain/chat"
	"github.com/example/ec-pickup-shop/internal/domain/location"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/domain/wishlist"
	"github.com/example/ec-pickup-shop/internal/session"
)

// CartView is the cart screen: lines, total and where everything can be
// picked up together
type CartView struct {
	Items           []cart.LineItem `json:"items"`
	Total           int             `json:"total"`
	CommonLocations []string        `json:"common_locations"`
}

// CheckoutView is the location picker shown before confirming an order
type CheckoutView struct {
	Items   []cart.LineItem   `json:"items"`
	Total   int               `json:"total"`
	Options []location.Option `json:"options"`
}

// HomeView is the home screen: trending products and the newest arrivals
type HomeView struct {
	Trending    []catalog.Item `json:"trending"`
	NewArrivals []catalog.Item `json:"new_arrivals"`
}

type Handler struct {
	catalogSvc     *catalog.Service
	cartSvc        *cart.Service
	wishlistSvc    *wishlist.Service
	orderSvc       *order.Service
	chatSvc        *chat.Service
	storeLocations []string
}

func NewHandler(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	wishlistSvc *wishlist.Service,
	orderSvc *order.Service,
	chatSvc *chat.Service,
	storeLocations []string,
) *Handler {
	return &Handler{
		catalogSvc:     catalogSvc,
		cartSvc:        cartSvc,
		wishlistSvc:    wishlistSvc,
		orderSvc:       orderSvc,
		chatSvc:        chatSvc,
		storeLocations: storeLocations,
	}
}

// Products
func (h *Handler) GetProduct(ctx context.Context, id string) (*catalog.Item, error) {
	return h.catalogSvc.Get(ctx, id)
}

func (h *Handler) ListProducts(ctx context.Context) ([]catalog.Item, error) {
	return h.catalogSvc.List(ctx)
}

func (h *Handler) TrendingProducts(ctx context.Context) ([]catalog.Item, error) {
	return h.catalogSvc.Trending(ctx)
}

func (h *Handler) NewArrivals(ctx context.Context) ([]catalog.Item, error) {
	return h.catalogSvc.NewArrivals(ctx, catalog.NewArrivalsLimit)
}

// GetHome builds both home views from one catalog read
func (h *Handler) GetHome(ctx context.Context) (*HomeView, error) {
	items, err := h.catalogSvc.List(ctx)
	if err != nil {
		return nil, err
	}
	return &HomeView{
		Trending:    catalog.FilterTrending(items),
		NewArrivals: catalog.Newest(items, catalog.NewArrivalsLimit),
	}, nil
}

// Cart
func (h *Handler) GetCart(ctx context.Context, sess session.Session) (*CartView, error) {
	items, err := h.cartSvc.Items(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &CartView{
		Items:           items,
		Total:           cart.Total(items),
		CommonLocations: location.Common(items),
	}, nil
}

// CheckoutOptions lists every store location, enabling only those where the
// whole cart can be picked up
func (h *Handler) CheckoutOptions(ctx context.Context, sess session.Session) (*CheckoutView, error) {
	items, err := h.cartSvc.Items(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &CheckoutView{
		Items:   items,
		Total:   cart.Total(items),
		Options: location.Options(h.storeLocations, location.Common(items)),
	}, nil
}

// Wishlist
func (h *Handler) GetWishlist(ctx context.Context, sess session.Session) ([]wishlist.Entry, error) {
	return h.wishlistSvc.Items(ctx, sess)
}

// Orders
func (h *Handler) GetOrder(ctx context.Context, sess session.Session, id string) (*order.Order, error) {
	return h.orderSvc.Get(ctx, sess, id)
}

// SearchOrders lists the user's orders newest first, keeping those whose id
// contains keyword (case-insensitive). A blank keyword keeps all.
func (h *Handler) SearchOrders(ctx context.Context, sess session.Session, keyword string) ([]order.Order, error) {
	orders, err := h.orderSvc.List(ctx, sess)
	if err != nil {
		return nil, err
	}

	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return orders, nil
	}

	matched := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if strings.Contains(strings.ToLower(o.ID), keyword) {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

// Chat
func (h *Handler) GetTranscript(ctx context.Context, sess session.Session, orderID string) ([]chat.Message, error) {
	return h.chatSvc.Transcript(ctx, sess, orderID)
}

// SubscribeTranscript streams the order's transcript; the caller must Close the feed
func (h *Handler) SubscribeTranscript(ctx context.Context, sess session.Session, orderID string) (*chat.Feed, error) {
	return h.chatSvc.Subscribe(ctx, sess, orderID)
}
