package redis

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	guardKeyPrefix  = "guard:"
	DefaultGuardTTL = 30 * time.Second
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// CheckoutGuard is a short-lived per-key lock on Redis (SET NX with TTL).
// It implements order.Guard.
type CheckoutGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCheckoutGuard(client *redis.Client, ttl time.Duration) *CheckoutGuard {
	if ttl <= 0 {
		ttl = DefaultGuardTTL
	}
	return &CheckoutGuard{client: client, ttl: ttl}
}

// Connect creates a client and checks the server is reachable
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Acquire returns false if the key is already held. The token identifies
// this acquisition and must be passed to Release.
func (g *CheckoutGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	token := uuid.New().String()
	ok, err := g.client.SetNX(ctx, guardKeyPrefix+key, token, g.ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the key if it still holds token. It returns false when the
// key already expired or now belongs to another acquisition.
func (g *CheckoutGuard) Release(ctx context.Context, key, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, g.client, []string{guardKeyPrefix + key}, token).Int()
	if err != nil {
		return false, err
	}
	if deleted == 0 {
		log.Printf("[Guard] %s expired before release (ttl %s)", key, g.ttl)
		return false, nil
	}
	return true, nil
}
