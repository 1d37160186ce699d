package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TokenCache stores session bearer tokens. It implements ports.TokenStore.
// Key format: session:<session_id>
type TokenCache struct {
	client *redis.Client
}

func NewTokenCache(client *redis.Client) *TokenCache {
	return &TokenCache{client: client}
}

// Get returns the stored token, or "" when the session has none.
func (t *TokenCache) Get(ctx context.Context, sessionID string) (string, error) {
	raw, err := t.client.Get(ctx, t.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("token load: %w", err)
	}
	return raw, nil
}

// Set stores the session's token. No TTL is applied here: expiry lives in
// the token itself and is enforced on every read.
func (t *TokenCache) Set(ctx context.Context, sessionID string, token string) error {
	return t.client.Set(ctx, t.key(sessionID), token, 0).Err()
}

// Delete removes the session's token key.
func (t *TokenCache) Delete(ctx context.Context, sessionID string) error {
	return t.client.Del(ctx, t.key(sessionID)).Err()
}

func (t *TokenCache) key(sessionID string) string {
	return "session:" + sessionID
}
