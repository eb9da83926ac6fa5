package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

// AdminStore is the typed client for the product write endpoints. The
// backend authorizes every call against the bearer credential's role;
// non-admin callers get a permission failure.
type AdminStore struct {
	c *Client
}

func (s *AdminStore) CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	var product domain.Product
	if err := s.c.do(ctx, http.MethodPost, "/api/products", draft, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *AdminStore) UpdateProduct(ctx context.Context, productID int64, draft domain.ProductDraft) (domain.Product, error) {
	var product domain.Product
	path := fmt.Sprintf("/api/products/%d", productID)
	if err := s.c.do(ctx, http.MethodPut, path, draft, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *AdminStore) DeleteProduct(ctx context.Context, productID int64) error {
	path := fmt.Sprintf("/api/products/%d", productID)
	return s.c.do(ctx, http.MethodDelete, path, nil, nil)
}
