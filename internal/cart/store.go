package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-api/internal/models"
	"storefront-api/internal/storage"
	logx "storefront-api/pkg/logger"
)

// ProductLookup resolves a product id against the catalog.
type ProductLookup func(id string) (*models.Product, bool)

// Store persists one Ledger per session in a storage slot. The slot is the
// only copy: every Load restores from it, so an expired slot reads as an
// empty cart and several servers can share one Redis.
type Store struct {
	slots  storage.Store
	ttl    time.Duration
	lookup ProductLookup
	opts   []Option

	locks sessionLocks
}

func NewStore(slots storage.Store, ttl time.Duration, lookup ProductLookup, opts ...Option) *Store {
	return &Store{
		slots:  slots,
		ttl:    ttl,
		lookup: lookup,
		opts:   opts,
		locks:  sessionLocks{held: make(map[string]*sessionLock)},
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}

// Load restores the session's ledger from its slot. A missing or expired
// slot yields an empty ledger.
func (s *Store) Load(ctx context.Context, sessionID string) (*Ledger, error) {
	raw, err := s.slots.Get(ctx, cartKey(sessionID))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return NewLedger(s.opts...), nil
	case err != nil:
		return nil, err
	}

	var stored []models.StoredLine
	if err := json.Unmarshal(raw, &stored); err != nil {
		logx.Warn().Err(err).Str("session", sessionID).Msg("discarding unreadable cart")
		stored = nil
	}
	return Restore(stored, s.lookup, s.opts...), nil
}

// Save writes the ledger to the session's slot, refreshing its TTL.
func (s *Store) Save(ctx context.Context, sessionID string, l *Ledger) error {
	b, err := json.Marshal(l.Stored())
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	return s.slots.Set(ctx, cartKey(sessionID), b, s.ttl)
}

func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.slots.Delete(ctx, cartKey(sessionID))
}

// Lock serializes read-modify-write cycles on one session's cart. The
// returned func releases it.
func (s *Store) Lock(sessionID string) (unlock func()) {
	return s.locks.lock(sessionID)
}

// Update loads the ledger, applies fn and saves the result under the
// session lock. Nothing is saved when fn fails.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*Ledger) error) (*Ledger, error) {
	unlock := s.Lock(sessionID)
	defer unlock()

	l, err := s.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, sessionID, l); err != nil {
		return nil, err
	}
	return l, nil
}

// sessionLocks is a keyed mutex. Entries live only while some caller holds
// or waits on them.
type sessionLocks struct {
	mu   sync.Mutex
	held map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func (k *sessionLocks) lock(id string) func() {
	k.mu.Lock()
	l, ok := k.held[id]
	if !ok {
		l = &sessionLock{}
		k.held[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.held, id)
		}
		k.mu.Unlock()
	}
}

func (k *sessionLocks) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.held)
}
