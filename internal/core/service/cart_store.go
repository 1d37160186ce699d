package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/handmadehub/storefront/internal/api/metrics"
	"github.com/handmadehub/storefront/internal/core/domain"
	"github.com/handmadehub/storefront/internal/core/ports"
)

// fetchErrMessage is the only user-visible cart error. It is set when the
// hydration fetch fails for a reason other than authorization, and rendered
// as a dismissable banner by the UI.
const fetchErrMessage = "An error occurred while fetching your cart. Please try again later."

// CartStore holds one session's cart. Local state is authoritative for the
// session: every mutation applies in memory, writes through to storage, and
// (when the session holds an unexpired token) kicks off a detached
// best-effort sync that replaces the remote cart with a snapshot of the
// lines. Sync responses never touch local state, so two rapid mutations may
// leave the remote cart transiently stale (last-resolved-wins); the sequence
// number logged with each sync makes that race observable.
type CartStore struct {
	sessionID string
	storage   ports.CartStorage
	tokens    ports.TokenStore
	remote    ports.RemoteCart
	log       zerolog.Logger

	mu     sync.Mutex
	cart   domain.Cart
	errMsg string
	seq    uint64

	syncs sync.WaitGroup
}

// NewCartStore builds an unhydrated store for the session. Call Hydrate once
// before first use; StoreManager does this on first access.
func NewCartStore(sessionID string, storage ports.CartStorage, tokens ports.TokenStore, remote ports.RemoteCart, log zerolog.Logger) *CartStore {
	return &CartStore{
		sessionID: sessionID,
		storage:   storage,
		tokens:    tokens,
		remote:    remote,
		log:       log.With().Str("session_id", sessionID).Logger(),
	}
}

// Hydrate runs the initialization protocol, once per store lifetime:
//
//  1. Load the locally persisted cart; absence or a malformed payload means
//     an empty cart, never an error.
//  2. If the session holds an unexpired token, fetch the remote cart and
//     replace local state with it; remote is the source of truth at startup.
//     401/403 deletes the token and resets the cart to empty, silently.
//     Any other failure keeps the local cart and sets the error slot.
//  3. Anonymous sessions keep the locally loaded cart; no remote call.
func (s *CartStore) Hydrate(ctx context.Context) {
	cart, err := s.storage.Load(ctx, s.sessionID)
	if err != nil {
		s.log.Error().Err(err).Msg("cart storage load failed, starting empty")
		cart = domain.Cart{}
	}
	s.mu.Lock()
	s.cart = cart
	s.mu.Unlock()

	token := s.bearerToken(ctx)
	if token == "" {
		metrics.CartHydrationsTotal.WithLabelValues("local").Inc()
		return
	}

	lines, err := s.remote.Fetch(ctx, token)
	switch {
	case err == nil:
		s.mu.Lock()
		s.cart = domain.Cart(lines).Clone()
		s.errMsg = ""
		s.mu.Unlock()
		s.persist(ctx, domain.Cart(lines))
		metrics.CartHydrationsTotal.WithLabelValues("remote").Inc()

	case errors.Is(err, domain.ErrAuthRejected):
		// Session silently expired: no user-visible error.
		_ = s.tokens.Delete(ctx, s.sessionID)
		s.mu.Lock()
		s.cart = domain.Cart{}
		s.errMsg = ""
		s.mu.Unlock()
		s.persist(ctx, domain.Cart{})
		metrics.CartHydrationsTotal.WithLabelValues("empty").Inc()

	default:
		s.log.Warn().Err(err).Msg("remote cart fetch failed, keeping local cart")
		s.mu.Lock()
		s.errMsg = fetchErrMessage
		s.mu.Unlock()
		metrics.CartHydrationsTotal.WithLabelValues("local").Inc()
	}
}

// Lines returns a copy of the cart in insertion order.
func (s *CartStore) Lines() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// Count is the sum of all line quantities, recomputed from current state.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

// Subtotal is the sum of unit price times quantity over all lines.
func (s *CartStore) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

// Err returns the user-visible cart error, or "" when none is set.
func (s *CartStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// DismissErr clears the error slot.
func (s *CartStore) DismissErr() {
	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
}

// AddLine merges the line into the cart by ID or appends it, then writes
// through and syncs the remote cart. The caller never sees a failure.
func (s *CartStore) AddLine(ctx context.Context, line domain.CartLine) {
	s.mu.Lock()
	s.cart = s.cart.Add(line)
	s.errMsg = ""
	snapshot := s.cart.Clone()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	metrics.CartMutationsTotal.WithLabelValues("add").Inc()
	s.persist(ctx, snapshot)
	s.syncRemote(ctx, seq, snapshot, false)
}

// UpdateQuantity sets the line's quantity, clamped to a minimum of 1, and
// writes through. It deliberately does not sync the remote cart: quantity
// edits stay local until the next add or remove carries the full line list.
func (s *CartStore) UpdateQuantity(ctx context.Context, id string, quantity int) {
	s.mu.Lock()
	s.cart = s.cart.WithQuantity(id, quantity)
	s.errMsg = ""
	snapshot := s.cart.Clone()
	s.mu.Unlock()

	metrics.CartMutationsTotal.WithLabelValues("update_quantity").Inc()
	s.persist(ctx, snapshot)
}

// RemoveLine filters the line out, writes through, and syncs the remote
// cart. Unlike AddLine, an auth-rejected sync also empties the cart.
func (s *CartStore) RemoveLine(ctx context.Context, id string) {
	s.mu.Lock()
	s.cart = s.cart.Remove(id)
	s.errMsg = ""
	snapshot := s.cart.Clone()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	metrics.CartMutationsTotal.WithLabelValues("remove").Inc()
	s.persist(ctx, snapshot)
	s.syncRemote(ctx, seq, snapshot, true)
}

// Clear empties the cart, locally and (when authenticated) remotely. Used
// after a successful order submission.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	s.cart = domain.Cart{}
	s.errMsg = ""
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	metrics.CartMutationsTotal.WithLabelValues("clear").Inc()
	s.persist(ctx, domain.Cart{})
	s.syncRemote(ctx, seq, domain.Cart{}, false)
}

// Flush blocks until all in-flight background syncs have completed. Called
// on shutdown so pending replace calls are not abandoned mid-flight.
func (s *CartStore) Flush() {
	s.syncs.Wait()
}

// persist writes the cart through to local storage. Storage failures are
// logged, never surfaced: local storage is a cache of in-memory truth.
func (s *CartStore) persist(ctx context.Context, cart domain.Cart) {
	if err := s.storage.Save(ctx, s.sessionID, cart); err != nil {
		s.log.Error().Err(err).Msg("cart storage save failed")
	}
}

// bearerToken returns the session's stored token when it decodes and carries
// an expiry strictly in the future. Expired or malformed tokens are deleted
// and the session is treated as anonymous.
func (s *CartStore) bearerToken(ctx context.Context) string {
	raw, err := s.tokens.Get(ctx, s.sessionID)
	if err != nil {
		s.log.Error().Err(err).Msg("token store read failed")
		return ""
	}
	if raw == "" {
		return ""
	}
	if !TokenUsable(raw) {
		_ = s.tokens.Delete(ctx, s.sessionID)
		return ""
	}
	return raw
}

// syncRemote replaces the remote cart with the snapshot in a detached
// goroutine. The triggering call site never waits on it; its only observable
// effects are a possible later token deletion (plus, for removes, an emptied
// cart) and metrics. Relative completion order of concurrent syncs is not
// guaranteed; the remote cart is last-resolved-wins.
func (s *CartStore) syncRemote(ctx context.Context, seq uint64, snapshot domain.Cart, clearOnAuthReject bool) {
	token := s.bearerToken(ctx)
	if token == "" {
		return
	}

	s.syncs.Add(1)
	go func() {
		defer s.syncs.Done()
		// Detached from the request: the sync outlives the triggering call.
		ctx := context.Background()

		err := s.remote.Replace(ctx, token, snapshot)
		if err == nil {
			s.mu.Lock()
			s.errMsg = ""
			s.mu.Unlock()
			metrics.CartSyncsTotal.WithLabelValues("ok").Inc()
			return
		}

		if errors.Is(err, domain.ErrAuthRejected) {
			_ = s.tokens.Delete(ctx, s.sessionID)
			if clearOnAuthReject {
				s.mu.Lock()
				s.cart = domain.Cart{}
				s.mu.Unlock()
				s.persist(ctx, domain.Cart{})
			}
			metrics.CartSyncsTotal.WithLabelValues("auth_rejected").Inc()
			s.log.Info().Uint64("seq", seq).Msg("cart sync rejected, token deleted")
			return
		}

		// Transient failure: dropped silently, local state stays authoritative.
		metrics.CartSyncsTotal.WithLabelValues("error").Inc()
		s.log.Warn().Err(err).Uint64("seq", seq).Msg("cart sync failed")
	}()
}
