// Package orders is the read-only view over previously placed orders.
package orders

import (
	"context"
	"fmt"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

// HistoryStore is the order store boundary (remote.OrderStore satisfies it).
type HistoryStore interface {
	List(ctx context.Context) ([]domain.Order, error)
}

type Sessions interface {
	Current() (session.Session, bool)
}

type Service struct {
	store    HistoryStore
	sessions Sessions
}

func NewService(store HistoryStore, sessions Sessions) *Service {
	return &Service{store: store, sessions: sessions}
}

// List returns the shopper's orders newest-first. The ordering contract is
// owned by the backend and preserved as-is; items are the immutable
// snapshots taken at checkout, never re-joined against live product data.
func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	if _, ok := s.sessions.Current(); !ok {
		return nil, domain.NewFailure(domain.FailureAuthRequired,
			"no_session", "sign in to view orders")
	}

	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("store.List: %w", err)
	}
	return list, nil
}
