package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/biscenic/commerce-backend/pkg/redis"
)

// Repository persists cart snapshots keyed by session id.
type Repository interface {
	Find(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRepository builds a Redis-backed cart repository.
func NewRepository(client *redis.Client, ttl time.Duration) (Repository, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &redisRepository{client: client, ttl: ttl}, nil
}

// Find returns the stored cart, or nil when the session has none yet.
func (r *redisRepository) Find(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := r.client.Get(ctx, r.client.CartKey(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}

	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &cart, nil
}

func (r *redisRepository) Save(ctx context.Context, cart *Cart) error {
	if cart == nil || cart.SessionID == "" {
		return fmt.Errorf("cart with session id required")
	}
	encoded, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.client.CartKey(cart.SessionID), encoded, r.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *redisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
