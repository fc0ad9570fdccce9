package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/example/ec-pickup-shop/internal/command"
	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/domain/chat"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/domain/wishlist"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/query"
	"github.com/example/ec-pickup-shop/internal/session"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	upgrader     websocket.Upgrader
}

// NewHandlers creates the HTTP handlers. allowedOrigins is checked on
// websocket upgrades; "*" allows any origin.
func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler, allowedOrigins []string) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type placeOrderResponse struct {
	Order   *order.Order `json:"order"`
	Warning string       `json:"warning,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Product Handlers

// GetProducts lists the catalog; ?view=trending or ?view=new selects a home view
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	var products []catalog.Item
	var err error
	switch view := r.URL.Query().Get("view"); view {
	case "":
		products, err = h.queryHandler.ListProducts(r.Context())
	case "trending":
		products, err = h.queryHandler.TrendingProducts(r.Context())
	case "new":
		products, err = h.queryHandler.NewArrivals(r.Context())
	default:
		respondError(w, "view must be trending or new", http.StatusBadRequest)
		return
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.queryHandler.GetHome(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, home)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.queryHandler.GetProduct(r.Context(), param(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryHandler.GetCart(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToCart
	if !decodeBody(w, r, &cmd) {
		return
	}

	line, err := h.cmdHandler.AddToCart(r.Context(), session.FromContext(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *Handlers) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction cart.Direction `json:"direction"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Direction != cart.Increase && req.Direction != cart.Decrease {
		respondError(w, "direction must be increase or decrease", http.StatusBadRequest)
		return
	}

	cmd := command.ChangeQuantity{ProductID: param(r, "productId"), Direction: req.Direction}
	items, err := h.cmdHandler.ChangeQuantity(r.Context(), session.FromContext(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromCart{ProductID: param(r, "productId")}
	items, err := h.cmdHandler.RemoveFromCart(r.Context(), session.FromContext(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cmdHandler.ClearCart(r.Context(), session.FromContext(r.Context())); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetCheckoutLocations(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryHandler.CheckoutOptions(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Wishlist Handlers

func (h *Handlers) GetWishlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queryHandler.GetWishlist(r.Context(), session.FromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *Handlers) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var cmd command.AddToWishlist
	if !decodeBody(w, r, &cmd) {
		return
	}

	entry, err := h.cmdHandler.AddToWishlist(r.Context(), session.FromContext(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entry)
}

func (h *Handlers) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	cmd := command.RemoveFromWishlist{ProductID: param(r, "productId")}
	if err := h.cmdHandler.RemoveFromWishlist(r.Context(), session.FromContext(r.Context()), cmd); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Order Handlers

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.PlaceOrder
	if !decodeBody(w, r, &cmd) {
		return
	}

	o, err := h.cmdHandler.PlaceOrder(r.Context(), session.FromContext(r.Context()), cmd)
	if errors.Is(err, command.ErrCartNotCleared) {
		respondJSON(w, http.StatusCreated, placeOrderResponse{Order: o, Warning: err.Error()})
		return
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, placeOrderResponse{Order: o})
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queryHandler.SearchOrders(r.Context(), session.FromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.queryHandler.GetOrder(r.Context(), session.FromContext(r.Context()), param(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Chat Handlers

func (h *Handlers) GetChat(w http.ResponseWriter, r *http.Request) {
	messages, err := h.queryHandler.GetTranscript(r.Context(), session.FromContext(r.Context()), param(r, "id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messages)
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.SendMessage{OrderID: param(r, "id"), Text: req.Text}
	msg, err := h.cmdHandler.SendMessage(r.Context(), session.FromContext(r.Context()), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// Staff Handlers

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status order.Status `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.UpdateOrderStatus{UserID: param(r, "userId"), OrderID: param(r, "id"), Status: req.Status}
	o, err := h.cmdHandler.UpdateOrderStatus(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) ReplyAsStore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cmd := command.ReplyAsStore{UserID: param(r, "userId"), OrderID: param(r, "id"), Text: req.Text}
	msg, err := h.cmdHandler.ReplyAsStore(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, msg)
}

// Helper functions

func param(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, catalog.ErrNotSelected),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidSender),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, wishlist.ErrInvalidProduct):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrLocationUnavailable),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[API] Request failed: %v", err)
	}
	respondError(w, err.Error(), status)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[API] Failed to encode response: %v", err)
	}
}
