package stubstore_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Esataydin/nexus-cart-quest/internal/admin"
	"github.com/Esataydin/nexus-cart-quest/internal/cart"
	"github.com/Esataydin/nexus-cart-quest/internal/catalog"
	"github.com/Esataydin/nexus-cart-quest/internal/checkout"
	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/orders"
	"github.com/Esataydin/nexus-cart-quest/internal/remote"
	"github.com/Esataydin/nexus-cart-quest/internal/session"
	"github.com/Esataydin/nexus-cart-quest/internal/stubstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type shopper struct {
	sessions *session.Manager
	cart     *cart.State
	checkout *checkout.Service
	catalog  *catalog.Service
	orders   *orders.Service
	admin    *admin.Service
	client   *remote.Client
	store    *stubstore.Store
}

func mustMoney(t *testing.T, v string) domain.Money {
	t.Helper()
	m, err := domain.MoneyFromString(v)
	require.NoError(t, err)
	return m
}

// newShopper stands up the full stack: stub backend over HTTP, remote
// clients, session manager and the core components, exactly as cmd wires them.
func newShopper(t *testing.T) *shopper {
	t.Helper()

	store := stubstore.New()
	store.SeedProducts([]domain.Product{
		{ID: 1, Name: "Blue Mouse", Category: "Peripherals", Price: mustMoney(t, "10.00"), Stock: 50},
		{ID: 2, Name: "Red Mouse", Category: "Peripherals", Price: mustMoney(t, "5.00"), Stock: 50},
		{ID: 3, Name: "Webcam", Category: "Video", Price: mustMoney(t, "59.99"), Stock: 1},
	})

	srv := httptest.NewServer(stubstore.NewRouter(store))
	t.Cleanup(func() {
		srv.Close()
		http.DefaultTransport.(*http.Transport).CloseIdleConnections()
	})

	sessions := session.NewManager(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")))
	client := remote.New(srv.URL, sessions)
	cartState := cart.NewState(client.Cart(), sessions)

	return &shopper{
		sessions: sessions,
		cart:     cartState,
		checkout: checkout.NewService(client.Orders(), cartState, sessions),
		catalog:  catalog.NewService(client.Catalog()),
		orders:   orders.NewService(client.Orders(), sessions),
		admin:    admin.NewService(client.Admin(), sessions),
		client:   client,
		store:    store,
	}
}

func (s *shopper) signInAs(t *testing.T, email string) {
	t.Helper()
	creds, err := s.client.Auth().Login(context.Background(), email, "pw")
	require.NoError(t, err)
	require.NoError(t, s.sessions.Establish(session.Session{
		Email: creds.Email,
		Role:  session.Role(creds.Role),
		Token: creds.Token,
	}))
}

func (s *shopper) signIn(t *testing.T) {
	t.Helper()
	s.signInAs(t, "shopper@example.com")
}

func TestEndToEnd_BrowseBuildCheckoutHistory(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()

	// browse before signing in: catalog needs no session
	products, err := s.catalog.List(ctx, catalog.Filter{Category: "Peripherals", Search: "red"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Red Mouse", products[0].Name)

	// cart refuses before sign-in
	err = s.cart.AddItem(ctx, 1, 1)
	assert.True(t, domain.IsAuthRequired(err))

	s.signIn(t)
	require.NoError(t, s.cart.Load(ctx))

	require.NoError(t, s.cart.AddItem(ctx, 1, 1))
	require.NoError(t, s.cart.AddItem(ctx, 1, 1)) // merges, no duplicate line
	require.NoError(t, s.cart.AddItem(ctx, 2, 1))

	snap := s.cart.Snapshot()
	require.Len(t, snap.Lines, 2)
	assert.True(t, snap.Total.Equal(mustMoney(t, "25.00")))
	assert.Equal(t, 3, snap.TotalItems)

	order, err := s.checkout.Checkout(ctx)
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(mustMoney(t, "25.00")))
	assert.Equal(t, 3, order.TotalItems)
	assert.True(t, s.cart.Snapshot().IsEmpty())

	// server-side cart is empty too
	require.NoError(t, s.cart.Load(ctx))
	assert.True(t, s.cart.Snapshot().IsEmpty())

	history, err := s.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, order.ID, history[0].ID)
	assert.Equal(t, "Blue Mouse", history[0].Items[0].ProductName)
}

func TestEndToEnd_StockConflictKeepsCart(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()
	s.signIn(t)

	require.NoError(t, s.cart.AddItem(ctx, 3, 1))
	// stock vanishes between cart build-up and checkout
	require.NoError(t, s.store.SetStock(3, 0))

	_, err := s.checkout.Checkout(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.FailureConflict, domain.KindOf(err))

	require.NoError(t, s.cart.Load(ctx))
	snap := s.cart.Snapshot()
	require.Len(t, snap.Lines, 1, "cart survives a rejected checkout")
	assert.Equal(t, int64(3), snap.Lines[0].ProductID)
}

func TestEndToEnd_QuantityEditsAndIdempotentRemoves(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()
	s.signIn(t)

	require.NoError(t, s.cart.AddItem(ctx, 1, 1))
	lineID := s.cart.Snapshot().Lines[0].ID

	require.NoError(t, s.cart.SetQuantity(ctx, lineID, 4))
	assert.True(t, s.cart.Snapshot().Total.Equal(mustMoney(t, "40.00")))

	err := s.cart.SetQuantity(ctx, lineID, 0)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 4, s.cart.Snapshot().Lines[0].Quantity, "prior quantity preserved")

	// removing a line that was already removed elsewhere is success
	require.NoError(t, s.cart.RemoveLine(ctx, lineID))
	require.NoError(t, s.cart.RemoveLine(ctx, lineID))
	require.NoError(t, s.cart.RemoveProduct(ctx, 1))

	require.NoError(t, s.cart.Clear(ctx))
	require.NoError(t, s.cart.Load(ctx))
	assert.True(t, s.cart.Snapshot().IsEmpty())
}

func TestEndToEnd_AdminManagesCatalog(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()
	s.signInAs(t, "admin@example.com")

	created, err := s.admin.CreateProduct(ctx, domain.ProductDraft{
		Name:     "Green Mouse",
		Category: "Peripherals",
		Price:    mustMoney(t, "12.50"),
		Stock:    5,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// new product shows up for shoppers immediately
	products, err := s.catalog.List(ctx, catalog.Filter{Search: "green"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Price.Equal(mustMoney(t, "12.50")))

	updated, err := s.admin.UpdateProduct(ctx, created.ID, domain.ProductDraft{
		Name:     "Green Mouse",
		Category: "Peripherals",
		Price:    mustMoney(t, "9.99"),
		Stock:    3,
	})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(mustMoney(t, "9.99")))

	require.NoError(t, s.admin.DeleteProduct(ctx, created.ID))
	products, err = s.catalog.List(ctx, catalog.Filter{Search: "green"})
	require.NoError(t, err)
	assert.Empty(t, products)

	_, err = s.admin.CreateProduct(ctx, domain.ProductDraft{
		Name:     "Blue Mouse",
		Category: "Peripherals",
		Price:    mustMoney(t, "1.00"),
		Stock:    1,
	})
	assert.True(t, domain.IsConflict(err), "duplicate name is a conflict")
}

func TestEndToEnd_ShopperCannotManageCatalog(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()
	s.signIn(t)

	draft := domain.ProductDraft{
		Name:     "Green Mouse",
		Category: "Peripherals",
		Price:    mustMoney(t, "12.50"),
		Stock:    5,
	}

	// the service turns shoppers away before any remote call
	_, err := s.admin.CreateProduct(ctx, draft)
	assert.True(t, domain.IsPermission(err))

	// and the backend enforces the same rule for a direct client
	_, err = s.client.Admin().CreateProduct(ctx, draft)
	assert.True(t, domain.IsPermission(err), "backend 403 maps to a permission failure")
	err = s.client.Admin().DeleteProduct(ctx, 1)
	assert.True(t, domain.IsPermission(err))
}

func TestEndToEnd_DeleteOrderedProductIsRefused(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()

	s.signIn(t)
	require.NoError(t, s.cart.AddItem(ctx, 1, 1))
	_, err := s.checkout.Checkout(ctx)
	require.NoError(t, err)

	s.signInAs(t, "admin@example.com")
	err = s.admin.DeleteProduct(ctx, 1)
	assert.True(t, domain.IsConflict(err), "ordered products stay resolvable in history")
}

func TestEndToEnd_SessionExpiryMapsToAuthRequired(t *testing.T) {
	s := newShopper(t)
	ctx := context.Background()

	// a token the backend never issued models an expired credential
	require.NoError(t, s.sessions.Establish(session.Session{
		Email: "shopper@example.com",
		Token: "tok-stale",
	}))

	err := s.cart.Load(ctx)
	assert.True(t, domain.IsAuthRequired(err), "backend 401 surfaces as AuthRequired")
}
