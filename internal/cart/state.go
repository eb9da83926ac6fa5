// Package cart holds the authoritative local view of the shopper's cart and
// mediates every mutation through the remote cart store.
//
// Synchronization strategy, per operation: every mutation applies the
// server-returned snapshot directly (no second fetch), except Clear, which
// applies the canonical empty shape on a confirmed clear, and deletes of
// already-absent lines, which succeed without touching local state. The
// component offers no server-side compare-and-swap; overlapping writers are
// last-write-wins, and callers are expected to disable triggering controls
// while Updating reports true.
package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

// RemoteStore is the cart store boundary; remote.CartStore satisfies it.
// Every mutation returns the authoritative post-operation snapshot.
type RemoteStore interface {
	Get(ctx context.Context) (domain.Cart, error)
	AddItem(ctx context.Context, productID int64, quantity int) (domain.Cart, error)
	SetQuantity(ctx context.Context, lineID string, quantity int) (domain.Cart, error)
	RemoveLine(ctx context.Context, lineID string) (domain.Cart, error)
	RemoveProduct(ctx context.Context, productID int64) (domain.Cart, error)
	Clear(ctx context.Context) error
}

// Sessions exposes the current shopper identity, or none.
type Sessions interface {
	Current() (session.Session, bool)
}

// State is the local cache of the server-held cart. It must be treated as
// possibly stale immediately after any mutation other than the one just
// performed by this client.
type State struct {
	store    RemoteStore
	sessions Sessions

	// opMu serializes operations; stateMu guards the snapshot and the
	// updating flag so readers never block behind a remote call.
	opMu    sync.Mutex
	stateMu sync.RWMutex

	cart     domain.Cart
	updating bool
}

func NewState(store RemoteStore, sessions Sessions) *State {
	return &State{
		store:    store,
		sessions: sessions,
		cart:     domain.EmptyCart(""),
	}
}

// Snapshot returns a copy of the last known-good server view, with derived
// totals recomputed.
func (s *State) Snapshot() domain.Cart {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.cart.Clone()
}

// Updating reports whether a remote call is in flight. UI controls that
// trigger mutations are expected to be disabled while this is true.
func (s *State) Updating() bool {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.updating
}

// Load fetches the current cart and replaces local state wholesale. Called
// at session start; a later Load always wins over anything held locally.
func (s *State) Load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	cart, err := s.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("store.Get: %w", err)
	}

	s.apply(cart, sess)
	return nil
}

// AddItem puts quantity units of a product into the cart. If the product
// already has a line the backend merges quantities; the client never merges
// locally.
func (s *State) AddItem(ctx context.Context, productID int64, quantity int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}
	if quantity < 1 {
		return domain.NewFailure(domain.FailureValidation, "invalid_quantity",
			"quantity must be at least 1")
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	cart, err := s.store.AddItem(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("store.AddItem: %w", err)
	}

	s.apply(cart, sess)
	return nil
}

// SetQuantity replaces a line's quantity. Quantities below 1 are rejected
// locally without a remote call; RemoveLine is the way to delete.
func (s *State) SetQuantity(ctx context.Context, lineID string, quantity int) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}
	if quantity < 1 {
		return domain.NewFailure(domain.FailureValidation, "invalid_quantity",
			"quantity must be at least 1, use remove to delete a line")
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	cart, err := s.store.SetQuantity(ctx, lineID, quantity)
	if err != nil {
		return fmt.Errorf("store.SetQuantity: %w", err)
	}

	s.apply(cart, sess)
	return nil
}

// RemoveLine deletes exactly one line. Deleting an absent line is treated
// as already satisfied: local state is left as the last known-good view.
func (s *State) RemoveLine(ctx context.Context, lineID string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	cart, err := s.store.RemoveLine(ctx, lineID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("store.RemoveLine: %w", err)
	}

	s.apply(cart, sess)
	return nil
}

// RemoveProduct deletes the line holding the given product, idempotently.
func (s *State) RemoveProduct(ctx context.Context, productID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	cart, err := s.store.RemoveProduct(ctx, productID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("store.RemoveProduct: %w", err)
	}

	s.apply(cart, sess)
	return nil
}

// Clear removes all lines in one remote operation and applies the canonical
// empty shape immediately on success, without waiting for another Load.
func (s *State) Clear(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	sess, err := s.requireSession()
	if err != nil {
		return err
	}

	s.setUpdating(true)
	defer s.setUpdating(false)

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("store.Clear: %w", err)
	}

	s.stateMu.Lock()
	s.cart = domain.EmptyCart(sess.Email)
	s.stateMu.Unlock()
	return nil
}

// ResetEmpty invalidates local state to the canonical empty cart. Used after
// a confirmed checkout, which empties the cart on the server side.
func (s *State) ResetEmpty() {
	owner := ""
	if sess, ok := s.sessions.Current(); ok {
		owner = sess.Email
	}

	s.stateMu.Lock()
	s.cart = domain.EmptyCart(owner)
	s.stateMu.Unlock()
}

func (s *State) requireSession() (session.Session, error) {
	sess, ok := s.sessions.Current()
	if !ok {
		return session.Session{}, domain.NewFailure(domain.FailureAuthRequired,
			"no_session", "sign in to use the cart")
	}
	return sess, nil
}

func (s *State) apply(cart domain.Cart, sess session.Session) {
	if cart.OwnerID == "" {
		cart.OwnerID = sess.Email
	}
	cart.Normalize()

	s.stateMu.Lock()
	s.cart = cart
	s.stateMu.Unlock()
}

func (s *State) setUpdating(v bool) {
	s.stateMu.Lock()
	s.updating = v
	s.stateMu.Unlock()
}
