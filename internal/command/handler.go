package command

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/domain/chat"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/domain/wishlist"
	"github.com/example/ec-pickup-shop/internal/session"
)

// ErrCartNotCleared is returned together with a placed order whose cart lines
// could not all be deleted. The order stands; clearing the cart can be retried.
var ErrCartNotCleared = errors.New("order placed but cart was not fully cleared")

type Handler struct {
	catalogSvc  *catalog.Service
	cartSvc     *cart.Service
	wishlistSvc *wishlist.Service
	orderSvc    *order.Service
	chatSvc     *chat.Service
}

func NewHandler(
	catalogSvc *catalog.Service,
	cartSvc *cart.Service,
	wishlistSvc *wishlist.Service,
	orderSvc *order.Service,
	chatSvc *chat.Service,
) *Handler {
	return &Handler{
		catalogSvc:  catalogSvc,
		cartSvc:     cartSvc,
		wishlistSvc: wishlistSvc,
		orderSvc:    orderSvc,
		chatSvc:     chatSvc,
	}
}

// AddToCart adds one unit of a product in the chosen size
func (h *Handler) AddToCart(ctx context.Context, sess session.Session, cmd AddToCart) (cart.LineItem, error) {
	if _, err := sess.Require(); err != nil {
		return cart.LineItem{}, err
	}
	item, err := h.catalogSvc.Get(ctx, cmd.ProductID)
	if err != nil {
		return cart.LineItem{}, err
	}
	return h.cartSvc.AddItem(ctx, sess, *item, cmd.Size)
}

// ChangeQuantity steps a line's quantity and returns the refetched cart
func (h *Handler) ChangeQuantity(ctx context.Context, sess session.Session, cmd ChangeQuantity) ([]cart.LineItem, error) {
	return h.cartSvc.ChangeQuantity(ctx, sess, cmd.ProductID, cmd.Direction)
}

// RemoveFromCart removes a line and returns the rest of the cart. The
// remainder comes from the snapshot read before the delete with the removed
// line hidden, so no second read is needed.
func (h *Handler) RemoveFromCart(ctx context.Context, sess session.Session, cmd RemoveFromCart) ([]cart.LineItem, error) {
	view := cart.NewView()
	if err := h.cartSvc.Refresh(ctx, sess, view); err != nil {
		return nil, err
	}
	if err := h.cartSvc.Remove(ctx, sess, view, cmd.ProductID); err != nil {
		return nil, err
	}
	return view.Items(), nil
}

// ClearCart deletes every line; used to retry after ErrCartNotCleared
func (h *Handler) ClearCart(ctx context.Context, sess session.Session) error {
	return h.cartSvc.Clear(ctx, sess)
}

// AddToWishlist saves a product in the chosen size
func (h *Handler) AddToWishlist(ctx context.Context, sess session.Session, cmd AddToWishlist) (wishlist.Entry, error) {
	if _, err := sess.Require(); err != nil {
		return wishlist.Entry{}, err
	}
	item, err := h.catalogSvc.Get(ctx, cmd.ProductID)
	if err != nil {
		return wishlist.Entry{}, err
	}
	return h.wishlistSvc.Add(ctx, sess, *item, cmd.Size)
}

// RemoveFromWishlist removes a saved product
func (h *Handler) RemoveFromWishlist(ctx context.Context, sess session.Session, cmd RemoveFromWishlist) error {
	return h.wishlistSvc.Remove(ctx, sess, cmd.ProductID)
}

// PlaceOrder creates an order from the stored cart and then empties the cart
func (h *Handler) PlaceOrder(ctx context.Context, sess session.Session, cmd PlaceOrder) (*order.Order, error) {
	release, err := h.orderSvc.BeginCheckout(ctx, sess)
	if err != nil {
		return nil, err
	}
	defer release()

	// Read the cart from the store, not from what the client last saw
	lines, err := h.cartSvc.Items(ctx, sess)
	if err != nil {
		return nil, err
	}

	o, err := h.orderSvc.Place(ctx, sess, lines, cmd.Store)
	if err != nil {
		return nil, err
	}

	if err := h.cartSvc.DeleteLines(ctx, sess, lines); err != nil {
		log.Printf("[Command] Order %s placed but cart not cleared for user %s: %v", o.ID, o.UserID, err)
		return o, fmt.Errorf("%w: %v", ErrCartNotCleared, err)
	}

	return o, nil
}

// UpdateOrderStatus applies a store-side status change
func (h *Handler) UpdateOrderStatus(ctx context.Context, cmd UpdateOrderStatus) (*order.Order, error) {
	return h.orderSvc.Transition(ctx, cmd.UserID, cmd.OrderID, cmd.Status)
}

// SendMessage posts a customer message to one of the session user's orders
func (h *Handler) SendMessage(ctx context.Context, sess session.Session, cmd SendMessage) (*chat.Message, error) {
	return h.chatSvc.Send(ctx, sess, cmd.OrderID, chat.SenderCustomer, cmd.Text)
}

// ReplyAsStore posts a store message to a customer's order
func (h *Handler) ReplyAsStore(ctx context.Context, cmd ReplyAsStore) (*chat.Message, error) {
	owner := session.New(cmd.UserID, "", "")
	return h.chatSvc.Send(ctx, owner, cmd.OrderID, chat.SenderStore, cmd.Text)
}
