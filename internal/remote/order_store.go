package remote

import (
	"context"
	"net/http"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

// OrderStore is the typed client for the backend order endpoints.
type OrderStore struct {
	c *Client
}

type createOrderRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateFromCart asks the backend to atomically convert the current cart
// into an order and empty the cart. The idempotency key makes a blind
// client retry safe on the server side.
func (s *OrderStore) CreateFromCart(ctx context.Context, idempotencyKey string) (domain.Order, error) {
	var order domain.Order
	err := s.c.do(ctx, http.MethodPost, "/api/orders/from-cart",
		createOrderRequest{IdempotencyKey: idempotencyKey}, &order)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// List returns the shopper's orders newest-first. Ordering is owned by the
// backend; the client does not re-sort.
func (s *OrderStore) List(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.c.do(ctx, http.MethodGet, "/api/orders", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
