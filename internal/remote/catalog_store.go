package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

// CatalogStore is the typed client for the backend product endpoints.
type CatalogStore struct {
	c *Client
}

// ListProducts returns product snapshots, optionally scoped to one exact
// category. Free-text filtering is a client-side concern and stays out of
// the wire contract.
func (s *CatalogStore) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var products []domain.Product
	if err := s.c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}
