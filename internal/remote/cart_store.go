package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

// CartStore is the typed client for the backend cart endpoints. Every call
// returns the authoritative post-operation cart snapshot.
type CartStore struct {
	c *Client
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (s *CartStore) Get(ctx context.Context) (domain.Cart, error) {
	var cart domain.Cart
	if err := s.c.do(ctx, http.MethodGet, "/api/cart", nil, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartStore) AddItem(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	var cart domain.Cart
	err := s.c.do(ctx, http.MethodPost, "/api/cart/items",
		addItemRequest{ProductID: productID, Quantity: quantity}, &cart)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartStore) SetQuantity(ctx context.Context, lineID string, quantity int) (domain.Cart, error) {
	var cart domain.Cart
	err := s.c.do(ctx, http.MethodPut, "/api/cart/items/"+lineID,
		setQuantityRequest{Quantity: quantity}, &cart)
	if err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartStore) RemoveLine(ctx context.Context, lineID string) (domain.Cart, error) {
	var cart domain.Cart
	if err := s.c.do(ctx, http.MethodDelete, "/api/cart/items/"+lineID, nil, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

func (s *CartStore) RemoveProduct(ctx context.Context, productID int64) (domain.Cart, error) {
	var cart domain.Cart
	path := fmt.Sprintf("/api/cart/products/%d", productID)
	if err := s.c.do(ctx, http.MethodDelete, path, nil, &cart); err != nil {
		return domain.Cart{}, err
	}
	return cart, nil
}

// Clear removes every line in one operation. The backend answers 204; the
// canonical empty cart shape is applied by the caller.
func (s *CartStore) Clear(ctx context.Context) error {
	return s.c.do(ctx, http.MethodDelete, "/api/cart", nil, nil)
}
