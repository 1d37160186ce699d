package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/handmadehub/storefront/internal/core/ports"
)

// StoreManager materializes one CartStore per session id, process-wide. The
// hydration protocol runs exactly once per materialized store; Drop discards
// a store so the next access hydrates afresh (after login or logout).
type StoreManager struct {
	storage ports.CartStorage
	tokens  ports.TokenStore
	remote  ports.RemoteCart
	log     zerolog.Logger

	mu     sync.Mutex
	stores map[string]*managedStore
}

type managedStore struct {
	store *CartStore
	once  sync.Once
}

func NewStoreManager(storage ports.CartStorage, tokens ports.TokenStore, remote ports.RemoteCart, log zerolog.Logger) *StoreManager {
	return &StoreManager{
		storage: storage,
		tokens:  tokens,
		remote:  remote,
		log:     log,
		stores:  make(map[string]*managedStore),
	}
}

// Store returns the session's cart store, creating and hydrating it on first
// access. Hydration happens outside the registry lock so a slow remote fetch
// for one session never blocks the others.
func (m *StoreManager) Store(ctx context.Context, sessionID string) ports.CartStore {
	m.mu.Lock()
	entry, ok := m.stores[sessionID]
	if !ok {
		entry = &managedStore{store: NewCartStore(sessionID, m.storage, m.tokens, m.remote, m.log)}
		m.stores[sessionID] = entry
	}
	m.mu.Unlock()

	entry.once.Do(func() { entry.store.Hydrate(ctx) })
	return entry.store
}

// Drop discards the session's materialized store. In-flight syncs of the old
// store still run to completion.
func (m *StoreManager) Drop(sessionID string) {
	m.mu.Lock()
	delete(m.stores, sessionID)
	m.mu.Unlock()
}

// Close waits for the background syncs of every store. Called on shutdown.
func (m *StoreManager) Close() {
	m.mu.Lock()
	stores := make([]*managedStore, 0, len(m.stores))
	for _, entry := range m.stores {
		stores = append(stores, entry)
	}
	m.mu.Unlock()

	for _, entry := range stores {
		entry.store.Flush()
	}
}
