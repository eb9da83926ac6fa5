// Package checkout converts the current cart into a placed order. The
// transition is atomic from the client's perspective: either an order exists
// and the cart is empty, or the cart is untouched.
package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

// OrderPlacer is the order store boundary (remote.OrderStore satisfies it).
type OrderPlacer interface {
	CreateFromCart(ctx context.Context, idempotencyKey string) (domain.Order, error)
}

// CartState is the slice of the cart component checkout needs: the current
// view to validate against, and the reset applied after a confirmed order.
type CartState interface {
	Snapshot() domain.Cart
	ResetEmpty()
}

type Sessions interface {
	Current() (session.Session, bool)
}

type Service struct {
	orders   OrderPlacer
	cart     CartState
	sessions Sessions

	// newKey is swappable in tests
	newKey func() string
}

func NewService(orders OrderPlacer, cart CartState, sessions Sessions) *Service {
	return &Service{
		orders:   orders,
		cart:     cart,
		sessions: sessions,
		newKey:   uuid.NewString,
	}
}

// Checkout instructs the backend to atomically convert the cart contents
// into an order and empty the cart. On failure nothing local changes, and
// the failure kind tells the caller whether a retry is safe; server-side
// stock may have moved since the cart was built, so a rejected checkout
// means re-checking cart contents, not blind retry.
func (s *Service) Checkout(ctx context.Context) (domain.Order, error) {
	if _, ok := s.sessions.Current(); !ok {
		return domain.Order{}, domain.NewFailure(domain.FailureAuthRequired,
			"no_session", "sign in to check out")
	}

	if s.cart.Snapshot().IsEmpty() {
		return domain.Order{}, domain.NewFailure(domain.FailureValidation,
			"empty_cart", "cart is empty, nothing to checkout")
	}

	order, err := s.orders.CreateFromCart(ctx, s.newKey())
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.CreateFromCart: %w", err)
	}

	// Only a confirmed order invalidates the local cart.
	s.cart.ResetEmpty()
	return order, nil
}
