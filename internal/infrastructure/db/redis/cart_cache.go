package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// CartCache stores session carts as JSON values keyed by session id. It
// implements ports.CartStorage as the lighter alternative to the Mongo
// backend. Carts carry no TTL: like browser local storage, they live until
// explicitly cleared.
// Key format: cart:<session_id>
type CartCache struct {
	client *redis.Client
}

func NewCartCache(client *redis.Client) *CartCache {
	return &CartCache{client: client}
}

// Load returns the session's cart. A missing key or a payload that fails to
// parse decodes to an empty cart, never an error.
func (c *CartCache) Load(ctx context.Context, sessionID string) (domain.Cart, error) {
	raw, err := c.client.Get(ctx, c.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Cart{}, nil
		}
		return nil, fmt.Errorf("cart load: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		// Unparseable payload: treated as an empty cart.
		return domain.Cart{}, nil
	}
	return cart, nil
}

// Save overwrites the session's cart (write-through).
func (c *CartCache) Save(ctx context.Context, sessionID string, cart domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("cart encode: %w", err)
	}
	return c.client.Set(ctx, c.key(sessionID), raw, 0).Err()
}

// Delete removes the session's cart key.
func (c *CartCache) Delete(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.key(sessionID)).Err()
}

func (c *CartCache) key(sessionID string) string {
	return "cart:" + sessionID
}
