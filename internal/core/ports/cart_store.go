package ports

import (
	"context"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// CartStore is the single source of truth for one session's cart. Mutations
// apply to in-memory state synchronously, write through to CartStorage, and
// (when the session holds a valid token) trigger a detached best-effort sync
// of the remote cart. No mutation ever fails from the caller's point of view.
type CartStore interface {
	// Lines returns a copy of the current cart in insertion order.
	Lines() []domain.CartLine
	// Count is the sum of all line quantities, for the badge indicator.
	Count() int
	// Subtotal is the sum of unit price times quantity over all lines.
	Subtotal() float64

	// AddLine merges the line by ID (summing quantities, first-seen metadata
	// wins) or appends it.
	AddLine(ctx context.Context, line domain.CartLine)
	// UpdateQuantity clamps to a minimum of 1. It persists locally but does
	// not sync the remote cart; the next add or remove carries the change.
	UpdateQuantity(ctx context.Context, id string, quantity int)
	// RemoveLine filters the line out. Unknown IDs are a no-op.
	RemoveLine(ctx context.Context, id string)
	// Clear empties the cart locally and, when authenticated, remotely.
	Clear(ctx context.Context)

	// Err returns the current user-visible cart error, or "" when none.
	Err() string
	// DismissErr clears the error slot.
	DismissErr()

	// Flush blocks until all in-flight background syncs have completed.
	Flush()
}

// StoreProvider hands out the cart store for a session, materializing and
// hydrating it on first use. Drop discards a session's store so the next
// request re-runs the hydration protocol (used after login and logout).
type StoreProvider interface {
	Store(ctx context.Context, sessionID string) CartStore
	Drop(sessionID string)
}
