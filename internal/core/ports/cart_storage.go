package ports

import (
	"context"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// CartStorage is the durable local persistence for session carts: the
// server-side analogue of the browser's local storage. Writes happen
// synchronously with every in-memory mutation (write-through).
//
// Load must never fail on absent or malformed payloads; both decode to an
// empty cart. Errors are reserved for backend outages.
type CartStorage interface {
	Load(ctx context.Context, sessionID string) (domain.Cart, error)
	Save(ctx context.Context, sessionID string, cart domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// TokenStore persists the bearer token of a session. Get returns an empty
// string (and no error) when no token is stored.
type TokenStore interface {
	Get(ctx context.Context, sessionID string) (string, error)
	Set(ctx context.Context, sessionID string, token string) error
	Delete(ctx context.Context, sessionID string) error
}
