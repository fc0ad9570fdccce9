package api

import (
	"net/http"

	"github.com/example/ec-pickup-shop/internal/api/middleware"
	"github.com/example/ec-pickup-shop/internal/auth"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Options configures the HTTP surface
type Options struct {
	JWT         *auth.JWTService
	ChatLimiter *middleware.RateLimiter
	CORSOrigins []string
}

// NewRouter registers every route. Handlers read path params with
// httprouter.ParamsFromContext.
func NewRouter(handlers *Handlers, opts Options) *httprouter.Router {
	router := httprouter.New()

	public := middleware.OptionalAuthMiddleware(opts.JWT)
	authed := middleware.AuthMiddleware(opts.JWT)
	staff := func(h http.Handler) http.Handler {
		return authed(middleware.RequireRole(auth.RoleStaff)(h))
	}
	limited := func(h http.Handler) http.Handler {
		if opts.ChatLimiter == nil {
			return authed(h)
		}
		return authed(opts.ChatLimiter.Limit(h))
	}
	handle := func(method, path string, wrap func(http.Handler) http.Handler, fn http.HandlerFunc) {
		router.Handler(method, path, wrap(fn))
	}

	router.HandlerFunc(http.MethodGet, "/health", handlers.Health)

	// Products
	handle(http.MethodGet, "/home", public, handlers.GetHome)
	handle(http.MethodGet, "/products", public, handlers.GetProducts)
	handle(http.MethodGet, "/products/:id", public, handlers.GetProduct)

	// Cart
	handle(http.MethodGet, "/cart", authed, handlers.GetCart)
	handle(http.MethodDelete, "/cart", authed, handlers.ClearCart)
	handle(http.MethodPost, "/cart/items", authed, handlers.AddToCart)
	handle(http.MethodPatch, "/cart/items/:productId", authed, handlers.ChangeQuantity)
	handle(http.MethodDelete, "/cart/items/:productId", authed, handlers.RemoveFromCart)
	handle(http.MethodGet, "/checkout/locations", authed, handlers.GetCheckoutLocations)

	// Wishlist
	handle(http.MethodGet, "/wishlist", authed, handlers.GetWishlist)
	handle(http.MethodPost, "/wishlist/items", authed, handlers.AddToWishlist)
	handle(http.MethodDelete, "/wishlist/items/:productId", authed, handlers.RemoveFromWishlist)

	// Orders
	handle(http.MethodGet, "/orders", authed, handlers.GetOrders)
	handle(http.MethodPost, "/orders", authed, handlers.PlaceOrder)
	handle(http.MethodGet, "/orders/:id", authed, handlers.GetOrder)
	handle(http.MethodGet, "/orders/:id/chats", authed, handlers.GetChat)
	handle(http.MethodPost, "/orders/:id/chats", limited, handlers.SendMessage)
	handle(http.MethodGet, "/orders/:id/chats/stream", authed, handlers.StreamChat)

	// Staff
	handle(http.MethodPost, "/staff/users/:userId/orders/:id/status", staff, handlers.UpdateOrderStatus)
	handle(http.MethodPost, "/staff/users/:userId/orders/:id/chats", staff, handlers.ReplyAsStore)

	return router
}

// NewHTTPHandler wraps the router with CORS and request logging
func NewHTTPHandler(handlers *Handlers, opts Options) http.Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return middleware.Logging(c.Handler(NewRouter(handlers, opts)))
}
