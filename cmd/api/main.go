package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/ec-pickup-shop/internal/api"
	"github.com/example/ec-pickup-shop/internal/api/middleware"
	"github.com/example/ec-pickup-shop/internal/auth"
	"github.com/example/ec-pickup-shop/internal/command"
	"github.com/example/ec-pickup-shop/internal/config"
	"github.com/example/ec-pickup-shop/internal/domain/cart"
	"github.com/example/ec-pickup-shop/internal/domain/catalog"
	"github.com/example/ec-pickup-shop/internal/domain/chat"
	"github.com/example/ec-pickup-shop/internal/domain/event"
	"github.com/example/ec-pickup-shop/internal/domain/order"
	"github.com/example/ec-pickup-shop/internal/domain/wishlist"
	"github.com/example/ec-pickup-shop/internal/infrastructure/kafka"
	"github.com/example/ec-pickup-shop/internal/infrastructure/redis"
	"github.com/example/ec-pickup-shop/internal/infrastructure/store"
	"github.com/example/ec-pickup-shop/internal/query"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] EC Pickup Shop")
	log.Println("[API] ========================================")
	log.Printf("[API] Store backend: %s", cfg.StoreBackend)
	log.Printf("[API] Pickup stores: %v", cfg.StoreLocations)

	docStore, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()

	// Event publishing is optional
	var publisher event.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		if err := kafka.EnsureTopic(ctx, cfg.KafkaBrokers[0], cfg.KafkaTopic, 3); err != nil {
			log.Printf("[API] Could not ensure topic %s: %v", cfg.KafkaTopic, err)
		}
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v topic %s", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[API] Kafka: disabled (KAFKA_BROKERS not set)")
	}

	// Initialize domain services
	catalogSvc := catalog.NewService(docStore)
	cartSvc := cart.NewService(docStore)
	wishlistSvc := wishlist.NewService(docStore)
	orderSvc := order.NewService(docStore, publisher)
	chatSvc := chat.NewService(docStore, orderSvc, publisher)

	if cfg.RedisAddr != "" {
		client, err := redis.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatalf("[API] Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		orderSvc.WithGuard(redis.NewCheckoutGuard(client, cfg.CheckoutGuardTTL))
		log.Printf("[API] Checkout guard: Redis %s (ttl %s)", cfg.RedisAddr, cfg.CheckoutGuardTTL)
	} else {
		log.Println("[API] Checkout guard: disabled (REDIS_ADDR not set)")
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute)

	// Initialize handlers
	cmdHandler := command.NewHandler(catalogSvc, cartSvc, wishlistSvc, orderSvc, chatSvc)
	queryHandler := query.NewHandler(catalogSvc, cartSvc, wishlistSvc, orderSvc, chatSvc, cfg.StoreLocations)

	handlers := api.NewHandlers(cmdHandler, queryHandler, cfg.CORSOrigins)
	handler := api.NewHTTPHandler(handlers, api.Options{
		JWT:         jwtService,
		ChatLimiter: middleware.NewRateLimiter(cfg.ChatRatePerMinute, 5),
		CORSOrigins: cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Println("[API] ========================================")
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		log.Println("[API] ========================================")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	// Ends store subscriptions so open chat streams return
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Graceful shutdown failed: %v", err)
	}
}

// openStore connects the configured document store backend
func openStore(ctx context.Context, cfg *config.Config) (store.DocumentStore, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		ps := store.NewPostgresStore(db, cfg.DatabaseURL)
		if err := ps.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("[API] Connected to PostgreSQL")
		return ps, func() { db.Close() }, nil

	case config.BackendMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, coll, err := store.ConnectMongo(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(coll)
		if err := ms.EnsureIndexes(connectCtx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		log.Printf("[API] Connected to MongoDB database %s", cfg.MongoDatabase)
		return ms, func() { _ = client.Disconnect(context.Background()) }, nil

	default:
		log.Println("[API] Using in-memory store; data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}
