package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubStorage struct {
	mu      sync.Mutex
	carts   map[string]domain.Cart
	loadErr error
}

func newStubStorage() *stubStorage {
	return &stubStorage{carts: make(map[string]domain.Cart)}
}

func (s *stubStorage) Load(_ context.Context, sessionID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.carts[sessionID].Clone(), nil
}

func (s *stubStorage) Save(_ context.Context, sessionID string, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = cart.Clone()
	return nil
}

func (s *stubStorage) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}

type stubTokens struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newStubTokens() *stubTokens {
	return &stubTokens{tokens: make(map[string]string)}
}

func (s *stubTokens) Get(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[sessionID], nil
}

func (s *stubTokens) Set(_ context.Context, sessionID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sessionID] = token
	return nil
}

func (s *stubTokens) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sessionID)
	return nil
}

func (s *stubTokens) has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tokens[sessionID]
	return ok
}

type stubRemote struct {
	mu         sync.Mutex
	fetchLines []domain.CartLine
	fetchErr   error
	fetchCalls int
	replaceErr error
	replaced   [][]domain.CartLine
}

func (s *stubRemote) Fetch(_ context.Context, _ string) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return append([]domain.CartLine(nil), s.fetchLines...), nil
}

func (s *stubRemote) Replace(_ context.Context, _ string, lines []domain.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = append(s.replaced, append([]domain.CartLine(nil), lines...))
	return nil
}

func (s *stubRemote) replaceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replaced)
}

func (s *stubRemote) lastReplaced() []domain.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replaced) == 0 {
		return nil
	}
	return s.replaced[len(s.replaced)-1]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

const testSession = "sess-1"

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":            "u1",
		"role":          "user",
		"name":          "Alice",
		"artisanStatus": "none",
		"exp":           expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte("irrelevant-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestStore(storage *stubStorage, tokens *stubTokens, remote *stubRemote) *CartStore {
	return NewCartStore(testSession, storage, tokens, remote, zerolog.Nop())
}

func authRejected() error {
	return fmt.Errorf("upstream returned status 401: %w", domain.ErrAuthRejected)
}

func serverError() error {
	return fmt.Errorf("upstream returned status 500: %w", domain.ErrUpstreamUnavailable)
}

// ---------------------------------------------------------------------------
// Hydration
// ---------------------------------------------------------------------------

func TestHydrate_AnonymousKeepsLocalCart(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "p1", Quantity: 2}}
	remote := &stubRemote{}

	s := newTestStore(storage, newStubTokens(), remote)
	s.Hydrate(context.Background())

	if got := s.Count(); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
	if remote.fetchCalls != 0 {
		t.Fatalf("anonymous session must not fetch remote cart")
	}
}

func TestHydrate_StorageFailureStartsEmpty(t *testing.T) {
	storage := newStubStorage()
	storage.loadErr = fmt.Errorf("corrupt payload")

	s := newTestStore(storage, newStubTokens(), &stubRemote{})
	s.Hydrate(context.Background())

	if got := s.Count(); got != 0 {
		t.Fatalf("expected empty cart on storage failure, got count %d", got)
	}
	if s.Err() != "" {
		t.Fatalf("storage failures must not surface to the user, got %q", s.Err())
	}
}

func TestHydrate_ExpiredTokenTreatedAsAnonymous(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "p1", Quantity: 1}}
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(-time.Hour))
	remote := &stubRemote{}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	if remote.fetchCalls != 0 {
		t.Fatalf("expired token must not trigger a remote fetch")
	}
	if tokens.has(testSession) {
		t.Fatalf("expired token must be deleted from storage")
	}
	if got := s.Count(); got != 1 {
		t.Fatalf("local cart should survive, got count %d", got)
	}
}

func TestHydrate_MalformedTokenDeleted(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = "not-a-jwt"
	remote := &stubRemote{}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	if remote.fetchCalls != 0 {
		t.Fatalf("malformed token must not trigger a remote fetch")
	}
	if tokens.has(testSession) {
		t.Fatalf("malformed token must be deleted from storage")
	}
}

func TestHydrate_RemoteReplacesLocal(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "stale", Quantity: 9}}
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchLines: []domain.CartLine{{ID: "p1", Quantity: 1}, {ID: "p2", Quantity: 2}}}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	lines := s.Lines()
	if len(lines) != 2 || lines[0].ID != "p1" || lines[1].ID != "p2" {
		t.Fatalf("remote cart should replace local state, got %+v", lines)
	}
	if s.Err() != "" {
		t.Fatalf("unexpected error slot: %q", s.Err())
	}
	// Remote state writes through to local storage.
	if len(storage.carts[testSession]) != 2 {
		t.Fatalf("remote cart should persist locally")
	}
}

func TestHydrate_RemoteWithoutItemsIsEmptyCart(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "stale", Quantity: 1}}
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchLines: nil}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	if got := s.Count(); got != 0 {
		t.Fatalf("expected empty cart, got count %d", got)
	}
}

func TestHydrate_AuthRejectedClearsSilently(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "p1", Quantity: 1}}
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchErr: authRejected()}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	if got := s.Count(); got != 0 {
		t.Fatalf("expected empty cart after auth rejection, got count %d", got)
	}
	if tokens.has(testSession) {
		t.Fatalf("token must be deleted after auth rejection")
	}
	if s.Err() != "" {
		t.Fatalf("auth rejection must stay silent, got error %q", s.Err())
	}
}

func TestHydrate_ServerErrorKeepsLocalAndSetsError(t *testing.T) {
	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "p1", Quantity: 1}}
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchErr: serverError()}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	lines := s.Lines()
	if len(lines) != 1 || lines[0].ID != "p1" || lines[0].Quantity != 1 {
		t.Fatalf("local cart must survive a transient fetch failure, got %+v", lines)
	}
	if s.Err() == "" {
		t.Fatalf("transient fetch failure must populate the error slot")
	}
	if tokens.has(testSession) == false {
		t.Fatalf("token must be kept on a transient failure")
	}
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestAddLine_SyncsRemoteWhenAuthenticated(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Name: "Vase", UnitPrice: 10, Quantity: 1})
	s.Flush()

	if remote.replaceCount() != 1 {
		t.Fatalf("expected 1 remote replace, got %d", remote.replaceCount())
	}
	sent := remote.lastReplaced()
	if len(sent) != 1 || sent[0].ID != "p1" || sent[0].Quantity != 1 {
		t.Fatalf("unexpected remote payload: %+v", sent)
	}
}

func TestAddLine_AnonymousDoesNotSync(t *testing.T) {
	remote := &stubRemote{}
	s := newTestStore(newStubStorage(), newStubTokens(), remote)
	s.Hydrate(context.Background())

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 1})
	s.Flush()

	if remote.replaceCount() != 0 {
		t.Fatalf("anonymous mutation must not sync, got %d calls", remote.replaceCount())
	}
}

func TestAddLine_AuthRejectedSyncDeletesTokenKeepsCart(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{replaceErr: authRejected()}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 2})
	s.Flush()

	if tokens.has(testSession) {
		t.Fatalf("token must be deleted after rejected sync")
	}
	// The optimistic local mutation is never rolled back.
	if got := s.Count(); got != 2 {
		t.Fatalf("local cart must keep the applied mutation, got count %d", got)
	}
}

func TestRemoveLine_AuthRejectedSyncEmptiesCart(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{replaceErr: authRejected()}

	storage := newStubStorage()
	storage.carts[testSession] = domain.Cart{{ID: "p1", Quantity: 1}, {ID: "p2", Quantity: 1}}
	remoteFetch := []domain.CartLine{{ID: "p1", Quantity: 1}, {ID: "p2", Quantity: 1}}
	remote.fetchLines = remoteFetch

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())

	s.RemoveLine(context.Background(), "p1")
	s.Flush()

	if tokens.has(testSession) {
		t.Fatalf("token must be deleted after rejected sync")
	}
	// Removal's auth-failure path empties the cart, unlike add's.
	if got := s.Count(); got != 0 {
		t.Fatalf("cart must be emptied after rejected remove sync, got count %d", got)
	}
}

func TestRemoveLine_TransientSyncFailureIsSilent(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{replaceErr: serverError()}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 1})
	s.Flush()
	s.RemoveLine(context.Background(), "p1")
	s.Flush()

	if s.Err() != "" {
		t.Fatalf("background sync failures must not surface, got %q", s.Err())
	}
	if tokens.has(testSession) == false {
		t.Fatalf("transient failure must not delete the token")
	}
}

func TestUpdateQuantity_Clamps(t *testing.T) {
	s := newTestStore(newStubStorage(), newStubTokens(), &stubRemote{})
	s.Hydrate(context.Background())
	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 3})

	for _, tc := range []struct {
		requested int
		want      int
	}{
		{0, 1},
		{-4, 1},
		{1, 1},
		{10, 10},
	} {
		s.UpdateQuantity(context.Background(), "p1", tc.requested)
		if got := s.Lines()[0].Quantity; got != tc.want {
			t.Fatalf("requested %d: expected %d, got %d", tc.requested, tc.want, got)
		}
	}
}

func TestUpdateQuantity_DoesNotSyncRemote(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchLines: []domain.CartLine{{ID: "p1", Quantity: 1}}}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	s.UpdateQuantity(context.Background(), "p1", 5)
	s.Flush()

	// Quantity edits stay local until the next add or remove.
	if remote.replaceCount() != 0 {
		t.Fatalf("quantity update must not sync, got %d replace calls", remote.replaceCount())
	}
	if got := s.Lines()[0].Quantity; got != 5 {
		t.Fatalf("expected local quantity 5, got %d", got)
	}
}

func TestUpdateQuantity_UnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(newStubStorage(), newStubTokens(), &stubRemote{})
	s.Hydrate(context.Background())
	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 2})

	s.UpdateQuantity(context.Background(), "ghost", 7)

	lines := s.Lines()
	if len(lines) != 1 || lines[0].ID != "p1" || lines[0].Quantity != 2 {
		t.Fatalf("unknown id changed the cart: %+v", lines)
	}
}

func TestClear_EmptiesAndSyncsEmptyCart(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())
	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 2})
	s.Flush()

	s.Clear(context.Background())
	s.Flush()

	if got := s.Count(); got != 0 {
		t.Fatalf("expected empty cart, got count %d", got)
	}
	if got := remote.lastReplaced(); len(got) != 0 {
		t.Fatalf("expected empty remote payload, got %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestScenario_GuestCheckoutFlow(t *testing.T) {
	s := newTestStore(newStubStorage(), newStubTokens(), &stubRemote{})
	s.Hydrate(context.Background())

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Name: "Bowl", UnitPrice: 10, Quantity: 1})
	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Name: "Bowl", UnitPrice: 10, Quantity: 2})

	lines := s.Lines()
	if len(lines) != 1 || lines[0].ID != "p1" || lines[0].Quantity != 3 {
		t.Fatalf("expected single merged line with quantity 3, got %+v", lines)
	}
	if got := s.Count(); got != 3 {
		t.Fatalf("expected count 3, got %d", got)
	}
	if got := s.Subtotal(); got != 30 {
		t.Fatalf("expected subtotal 30, got %v", got)
	}

	s.RemoveLine(context.Background(), "p1")
	if got := s.Count(); got != 0 {
		t.Fatalf("expected empty cart after remove, got count %d", got)
	}
}

func TestScenario_PersistenceRoundTrip(t *testing.T) {
	storage := newStubStorage()

	first := newTestStore(storage, newStubTokens(), &stubRemote{})
	first.Hydrate(context.Background())
	first.AddLine(context.Background(), domain.CartLine{ID: "p2", Name: "Mug", UnitPrice: 7, Quantity: 2})
	first.AddLine(context.Background(), domain.CartLine{ID: "p1", Name: "Vase", UnitPrice: 12, Quantity: 1})
	first.UpdateQuantity(context.Background(), "p2", 4)

	// A fresh anonymous store over the same storage reproduces content and order.
	second := newTestStore(storage, newStubTokens(), &stubRemote{})
	second.Hydrate(context.Background())

	lines := second.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ID != "p2" || lines[0].Quantity != 4 || lines[1].ID != "p1" || lines[1].Quantity != 1 {
		t.Fatalf("round trip lost content or order: %+v", lines)
	}
}

func TestErrSlot_ClearedByFreshMutation(t *testing.T) {
	storage := newStubStorage()
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchErr: serverError()}

	s := newTestStore(storage, tokens, remote)
	s.Hydrate(context.Background())
	if s.Err() == "" {
		t.Fatalf("expected error slot set after failed hydration fetch")
	}

	remote.mu.Lock()
	remote.fetchErr = nil
	remote.mu.Unlock()

	s.AddLine(context.Background(), domain.CartLine{ID: "p1", Quantity: 1})
	if s.Err() != "" {
		t.Fatalf("mutation must clear the error slot, got %q", s.Err())
	}
}

func TestDismissErr(t *testing.T) {
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchErr: serverError()}

	s := newTestStore(newStubStorage(), tokens, remote)
	s.Hydrate(context.Background())

	s.DismissErr()
	if s.Err() != "" {
		t.Fatalf("expected error slot cleared")
	}
}

func TestStoreManager_HydratesOncePerSession(t *testing.T) {
	storage := newStubStorage()
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchLines: []domain.CartLine{{ID: "p1", Quantity: 1}}}

	m := NewStoreManager(storage, tokens, remote, zerolog.Nop())

	first := m.Store(context.Background(), testSession)
	second := m.Store(context.Background(), testSession)

	if first != second {
		t.Fatalf("expected the same store instance per session")
	}
	if remote.fetchCalls != 1 {
		t.Fatalf("expected exactly 1 hydration fetch, got %d", remote.fetchCalls)
	}
}

func TestStoreManager_DropForcesRehydration(t *testing.T) {
	storage := newStubStorage()
	tokens := newStubTokens()
	tokens.tokens[testSession] = signedToken(t, time.Now().Add(time.Hour))
	remote := &stubRemote{fetchLines: []domain.CartLine{{ID: "p1", Quantity: 1}}}

	m := NewStoreManager(storage, tokens, remote, zerolog.Nop())
	_ = m.Store(context.Background(), testSession)
	m.Drop(testSession)
	_ = m.Store(context.Background(), testSession)

	if remote.fetchCalls != 2 {
		t.Fatalf("expected rehydration after Drop, got %d fetches", remote.fetchCalls)
	}
}
