// Package admin manages the product catalog on behalf of ADMIN sessions:
// create, update and delete. Shopper sessions are turned away before any
// remote call; the backend enforces the same rule independently.
package admin

import (
	"context"
	"fmt"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

// ProductWriter is the product write boundary (remote.AdminStore satisfies it).
type ProductWriter interface {
	CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
	UpdateProduct(ctx context.Context, productID int64, draft domain.ProductDraft) (domain.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

type Sessions interface {
	Current() (session.Session, bool)
}

type Service struct {
	store    ProductWriter
	sessions Sessions
}

func NewService(store ProductWriter, sessions Sessions) *Service {
	return &Service{store: store, sessions: sessions}
}

func (s *Service) CreateProduct(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return domain.Product{}, err
	}
	if err := draft.Validate(); err != nil {
		return domain.Product{}, err
	}

	product, err := s.store.CreateProduct(ctx, draft)
	if err != nil {
		return domain.Product{}, fmt.Errorf("store.CreateProduct: %w", err)
	}
	return product, nil
}

// UpdateProduct replaces every writable field of an existing product.
func (s *Service) UpdateProduct(ctx context.Context, productID int64, draft domain.ProductDraft) (domain.Product, error) {
	if err := s.requireAdmin(); err != nil {
		return domain.Product{}, err
	}
	if err := draft.Validate(); err != nil {
		return domain.Product{}, err
	}

	product, err := s.store.UpdateProduct(ctx, productID, draft)
	if err != nil {
		return domain.Product{}, fmt.Errorf("store.UpdateProduct: %w", err)
	}
	return product, nil
}

// DeleteProduct removes a product from the catalog. The backend refuses
// with a conflict when placed orders still reference the product.
func (s *Service) DeleteProduct(ctx context.Context, productID int64) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.store.DeleteProduct(ctx, productID); err != nil {
		return fmt.Errorf("store.DeleteProduct: %w", err)
	}
	return nil
}

func (s *Service) requireAdmin() error {
	sess, ok := s.sessions.Current()
	if !ok {
		return domain.NewFailure(domain.FailureAuthRequired,
			"no_session", "sign in to manage products")
	}
	if sess.Role != session.RoleAdmin {
		return domain.NewFailure(domain.FailurePermission,
			"admin_only", "managing products requires the admin role")
	}
	return nil
}
