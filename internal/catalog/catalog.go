// Package catalog queries the product catalog: category-scoped listing with
// a locally applied free-text filter, plus the distinct category set.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

// ProductLister is the catalog store boundary (remote.CatalogStore satisfies it).
type ProductLister interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
}

// Filter composes with AND semantics. Category is sent to the backend;
// Search is a case-insensitive substring match applied locally over name
// and description.
type Filter struct {
	Category string
	Search   string
}

type Service struct {
	store ProductLister
	sfg   singleflight.Group // collapses concurrent fetches for the same category

	mu         sync.RWMutex
	categories []string
}

func NewService(store ProductLister) *Service {
	return &Service{store: store}
}

// List returns products matching the filter. On remote failure it returns an
// empty list and a non-nil error, and resets the category set, so "load
// failed" is never mistaken for "zero products exist".
func (s *Service) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	v, err, _ := s.sfg.Do("category:"+f.Category, func() (interface{}, error) {
		return s.store.ListProducts(ctx, f.Category)
	})
	if err != nil {
		// any failed fetch empties the category set, scoped or not
		s.setCategories(nil)
		return []domain.Product{}, fmt.Errorf("store.ListProducts: %w", err)
	}

	products := v.([]domain.Product)
	if f.Category == "" {
		s.setCategories(distinctCategories(products))
	}

	return filterBySearch(products, f.Search), nil
}

// Categories returns the distinct category set from the last unfiltered
// fetch. Uniqueness is the only invariant; the slice is sorted for
// deterministic presentation.
func (s *Service) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.categories))
	copy(out, s.categories)
	return out
}

func (s *Service) setCategories(cats []string) {
	s.mu.Lock()
	s.categories = cats
	s.mu.Unlock()
}

func distinctCategories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	var cats []string
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		cats = append(cats, p.Category)
	}
	sort.Strings(cats)
	return cats
}

func filterBySearch(products []domain.Product, term string) []domain.Product {
	if term == "" {
		out := make([]domain.Product, len(products))
		copy(out, products)
		return out
	}

	needle := strings.ToLower(term)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			out = append(out, p)
		}
	}
	return out
}
