package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

type staticCreds string

func (c staticCreds) Token() (string, bool) { return string(c), c != "" }

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, staticCreds("tok-test"))
}

func TestClient_AttachesBearerCredential(t *testing.T) {
	var gotAuth atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"owner_id":"shopper@example.com","lines":[],"total":{"amount":"0.00","currency":"USD"},"total_items":0}`))
	})

	_, err := client.Cart().Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-test", gotAuth.Load())
}

func TestClient_NoCredentialNoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, staticCreds(""))
	_, err := client.Catalog().ListProducts(context.Background(), "")
	require.NoError(t, err)
}

func TestClient_StatusToFailureKind(t *testing.T) {
	tests := []struct {
		status int
		kind   domain.FailureKind
	}{
		{http.StatusBadRequest, domain.FailureValidation},
		{http.StatusUnauthorized, domain.FailureAuthRequired},
		{http.StatusForbidden, domain.FailurePermission},
		{http.StatusNotFound, domain.FailureNotFound},
		{http.StatusConflict, domain.FailureConflict},
		{http.StatusUnprocessableEntity, domain.FailureValidation},
		{http.StatusInternalServerError, domain.FailureTransient},
	}

	for _, tc := range tests {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "nope", "code": "some_code"})
		})

		_, err := client.Cart().AddItem(context.Background(), 1, 1)
		f, ok := domain.AsFailure(err)
		require.True(t, ok, "status %d must map to a Failure", tc.status)
		assert.Equal(t, tc.kind, f.Kind, "status %d", tc.status)
		assert.Equal(t, "some_code", f.Code, "envelope code carried through")
	}
}

func TestClient_EnvelopeFallsBackToStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict) // no body at all
	})

	_, err := client.Orders().CreateFromCart(context.Background(), "key-1")
	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureConflict, f.Kind)
	assert.Equal(t, "Conflict", f.Message)
}

func TestClient_GetRetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[]`))
	})

	_, err := client.Orders().List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load(), "two failures then success")
}

func TestClient_GetDoesNotRetryDefinitiveRejections(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.Orders().List(context.Background())
	assert.True(t, domain.IsPermission(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestClient_MutationsAreNeverRetried(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Cart().AddItem(context.Background(), 1, 1)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, int32(1), hits.Load(), "non-idempotent requests dispatch exactly once")
}

func TestClient_NetworkFaultIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := New(srv.URL, staticCreds("tok"))
	_, err := client.Cart().AddItem(context.Background(), 1, 1)

	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.FailureTransient, f.Kind)
	assert.Equal(t, "network", f.Code)
}

func TestClient_BreakerOpensAfterConsecutiveFaults(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	// mutations are not retried, so each call is exactly one breaker sample
	for i := 0; i < 5; i++ {
		_, err := client.Cart().AddItem(context.Background(), 1, 1)
		assert.Error(t, err)
	}
	require.Equal(t, int32(5), hits.Load())

	_, err := client.Cart().AddItem(context.Background(), 1, 1)
	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "circuit_open", f.Code)
	assert.Equal(t, int32(5), hits.Load(), "open breaker short-circuits before the network")
}

func TestClient_MalformedSuccessBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"owner_id":`)) // truncated
	})

	_, err := client.Cart().Get(context.Background())
	f, ok := domain.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, "bad_response", f.Code)
}

func TestCartStore_RequestShapes(t *testing.T) {
	type seen struct {
		method, path, body string
	}
	var got atomic.Value
	cartJSON := `{"owner_id":"shopper@example.com","lines":[{"line_id":"l1","product_id":7,"product_name":"p","unit_price":{"amount":"2.00","currency":"USD"},"quantity":3,"subtotal":{"amount":"6.00","currency":"USD"}}],"total":{"amount":"6.00","currency":"USD"},"total_items":3}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body [256]byte
		n, _ := r.Body.Read(body[:])
		got.Store(seen{method: r.Method, path: r.URL.String(), body: string(body[:n])})
		if r.Method == http.MethodDelete && r.URL.Path == "/api/cart" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(cartJSON))
	})
	ctx := context.Background()

	cart, err := client.Cart().AddItem(ctx, 7, 3)
	require.NoError(t, err)
	s := got.Load().(seen)
	assert.Equal(t, http.MethodPost, s.method)
	assert.Equal(t, "/api/cart/items", s.path)
	assert.JSONEq(t, `{"product_id":7,"quantity":3}`, s.body)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)

	_, err = client.Cart().SetQuantity(ctx, "l1", 5)
	require.NoError(t, err)
	s = got.Load().(seen)
	assert.Equal(t, http.MethodPut, s.method)
	assert.Equal(t, "/api/cart/items/l1", s.path)
	assert.JSONEq(t, `{"quantity":5}`, s.body)

	_, err = client.Cart().RemoveProduct(ctx, 7)
	require.NoError(t, err)
	s = got.Load().(seen)
	assert.Equal(t, http.MethodDelete, s.method)
	assert.Equal(t, "/api/cart/products/7", s.path)

	require.NoError(t, client.Cart().Clear(ctx))
	s = got.Load().(seen)
	assert.Equal(t, http.MethodDelete, s.method)
	assert.Equal(t, "/api/cart", s.path)
}

func TestCatalogStore_CategoryIsQueryEscaped(t *testing.T) {
	var gotQuery atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query().Get("category"))
		w.Write([]byte(`[]`))
	})

	_, err := client.Catalog().ListProducts(context.Background(), "Audio & Video")
	require.NoError(t, err)
	assert.Equal(t, "Audio & Video", gotQuery.Load())
}
