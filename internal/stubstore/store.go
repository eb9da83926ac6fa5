// Package stubstore is an in-memory implementation of the shop backend's
// HTTP contract. It backs cmd/shopstub for local development and the
// integration tests; it is the canonical definition of the remote contract
// the storefront client is written against.
package stubstore

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
)

// Common errors returned by the store
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrBadCredentials    = errors.New("invalid credentials")
	ErrDuplicateName     = errors.New("a product with this name already exists")
	ErrProductReferenced = errors.New("product is referenced by existing orders")
)

type account struct {
	Email string
	Role  session.Role
}

// Store holds products, carts, orders and issued tokens behind one lock.
type Store struct {
	mu sync.RWMutex

	products     map[int64]domain.Product
	productOrder []int64 // stable listing order

	carts  map[string]*domain.Cart   // owner email -> cart
	orders map[string][]domain.Order // owner email -> orders, newest first
	tokens map[string]account        // bearer token -> account

	placed map[string]domain.Order // idempotency key -> already-created order

	nextProductID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		products: make(map[int64]domain.Product),
		carts:    make(map[string]*domain.Cart),
		orders:   make(map[string][]domain.Order),
		tokens:   make(map[string]account),
		placed:   make(map[string]domain.Order),
		now:      time.Now,
	}
}

// SeedProducts installs catalog snapshots, replacing any product with the
// same ID.
func (s *Store) SeedProducts(products []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if _, exists := s.products[p.ID]; !exists {
			s.productOrder = append(s.productOrder, p.ID)
		}
		s.products[p.ID] = p
		if p.ID > s.nextProductID {
			s.nextProductID = p.ID
		}
	}
}

// SetStock overrides one product's stock level.
func (s *Store) SetStock(productID int64, stock int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	p.Stock = stock
	s.products[productID] = p
	return nil
}

// Login accepts any non-empty credential pair and issues a bearer token.
// Emails with an "admin" local part get the ADMIN role.
func (s *Store) Login(email, password string) (string, session.Role, error) {
	if email == "" || password == "" {
		return "", "", ErrBadCredentials
	}

	role := session.RoleUser
	if strings.HasPrefix(email, "admin") {
		role = session.RoleAdmin
	}

	token := "tok-" + uuid.NewString()

	s.mu.Lock()
	s.tokens[token] = account{Email: email, Role: role}
	s.mu.Unlock()
	return token, role, nil
}

// OwnerForToken resolves a bearer token to the owning shopper.
func (s *Store) OwnerForToken(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.tokens[token]
	return acc.Email, ok
}

// AccountForToken resolves a bearer token to the owning shopper and role.
func (s *Store) AccountForToken(token string) (string, session.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.tokens[token]
	return acc.Email, acc.Role, ok
}

// ListProducts returns product snapshots in seed order, optionally scoped
// to one exact category.
func (s *Store) ListProducts(category string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		p := s.products[id]
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

// CreateProduct adds a catalog product from a draft. Names are unique
// across the catalog; the store assigns the ID.
func (s *Store) CreateProduct(draft domain.ProductDraft) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTakenLocked(draft.Name, 0) {
		return domain.Product{}, ErrDuplicateName
	}

	s.nextProductID++
	p := domain.Product{
		ID:          s.nextProductID,
		Name:        draft.Name,
		Description: draft.Description,
		Category:    draft.Category,
		Price:       draft.Price,
		Stock:       draft.Stock,
	}
	s.products[p.ID] = p
	s.productOrder = append(s.productOrder, p.ID)
	return p, nil
}

// UpdateProduct replaces every writable field of an existing product.
func (s *Store) UpdateProduct(productID int64, draft domain.ProductDraft) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, ErrProductNotFound
	}
	if s.nameTakenLocked(draft.Name, productID) {
		return domain.Product{}, ErrDuplicateName
	}

	p.Name = draft.Name
	p.Description = draft.Description
	p.Category = draft.Category
	p.Price = draft.Price
	p.Stock = draft.Stock
	s.products[productID] = p
	return p, nil
}

// DeleteProduct removes a product from the catalog. Products referenced by
// placed orders are kept so order history stays resolvable.
func (s *Store) DeleteProduct(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[productID]; !ok {
		return ErrProductNotFound
	}
	for _, orders := range s.orders {
		for _, order := range orders {
			for _, item := range order.Items {
				if item.ProductID == productID {
					return ErrProductReferenced
				}
			}
		}
	}

	delete(s.products, productID)
	for i, id := range s.productOrder {
		if id == productID {
			s.productOrder = append(s.productOrder[:i], s.productOrder[i+1:]...)
			break
		}
	}
	return nil
}

// nameTakenLocked reports whether another product already uses the name;
// callers hold s.mu.
func (s *Store) nameTakenLocked(name string, exceptID int64) bool {
	for _, p := range s.products {
		if p.ID != exceptID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// GetCart returns the owner's cart, creating an empty one on first touch.
func (s *Store) GetCart(owner string) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(owner).Clone()
}

// AddItem merges quantity into an existing line for the product, or creates
// a new line. At most one line per product ever exists.
func (s *Store) AddItem(owner string, productID int64, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return domain.Cart{}, ErrProductNotFound
	}

	cart := s.cartLocked(owner)
	merged := false
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Lines = append(cart.Lines, domain.CartLine{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
		})
	}

	cart.Normalize()
	return cart.Clone(), nil
}

// SetQuantity replaces a line's quantity. Zero or negative quantities are
// rejected; deletion is a separate operation.
func (s *Store) SetQuantity(owner, lineID string, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return domain.Cart{}, ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(owner)
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			cart.Lines[i].Quantity = quantity
			cart.Normalize()
			return cart.Clone(), nil
		}
	}
	return domain.Cart{}, ErrLineNotFound
}

// RemoveLine deletes exactly one line by its ID.
func (s *Store) RemoveLine(owner, lineID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(owner)
	for i := range cart.Lines {
		if cart.Lines[i].ID == lineID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			cart.Normalize()
			return cart.Clone(), nil
		}
	}
	return domain.Cart{}, ErrLineNotFound
}

// RemoveProduct deletes the line holding the given product.
func (s *Store) RemoveProduct(owner string, productID int64) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(owner)
	for i := range cart.Lines {
		if cart.Lines[i].ProductID == productID {
			cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
			cart.Normalize()
			return cart.Clone(), nil
		}
	}
	return domain.Cart{}, ErrLineNotFound
}

// ClearCart removes every line in one operation.
func (s *Store) ClearCart(owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	empty := domain.EmptyCart(owner)
	s.carts[owner] = &empty
}

// CreateOrderFromCart atomically converts the cart into an order and empties
// the cart: stock is validated for every line before anything is mutated, so
// a rejection leaves both cart and stock untouched. A replayed idempotency
// key returns the order created the first time.
func (s *Store) CreateOrderFromCart(owner, idempotencyKey string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if order, ok := s.placed[idempotencyKey]; ok {
			return order, nil
		}
	}

	cart := s.cartLocked(owner)
	if cart.IsEmpty() {
		return domain.Order{}, ErrEmptyCart
	}

	// First pass: validate stock for all lines
	for _, line := range cart.Lines {
		product, ok := s.products[line.ProductID]
		if !ok {
			return domain.Order{}, ErrProductNotFound
		}
		if product.Stock < line.Quantity {
			return domain.Order{}, ErrInsufficientStock
		}
	}

	// Second pass: deduct stock and snapshot the lines
	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product := s.products[line.ProductID]
		product.Stock -= line.Quantity
		s.products[line.ProductID] = product

		items = append(items, domain.OrderItem{
			ProductID:       line.ProductID,
			ProductName:     line.ProductName,
			ProductCategory: product.Category,
			UnitPrice:       line.UnitPrice,
			Quantity:        line.Quantity,
			LineTotal:       line.Subtotal,
		})
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Items:      items,
		Total:      cart.Total,
		TotalItems: cart.TotalItems,
		CreatedAt:  s.now(),
	}

	// newest first
	s.orders[owner] = append([]domain.Order{order}, s.orders[owner]...)

	empty := domain.EmptyCart(owner)
	s.carts[owner] = &empty

	if idempotencyKey != "" {
		s.placed[idempotencyKey] = order
	}
	return order, nil
}

// ListOrders returns the owner's orders newest-first.
func (s *Store) ListOrders(owner string) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, len(s.orders[owner]))
	copy(out, s.orders[owner])
	return out
}

// cartLocked returns the live cart record; callers hold s.mu.
func (s *Store) cartLocked(owner string) *domain.Cart {
	cart, ok := s.carts[owner]
	if !ok {
		empty := domain.EmptyCart(owner)
		cart = &empty
		s.carts[owner] = cart
	}
	return cart
}
