// Package remote implements the HTTP/JSON boundary to the shop backend.
// Structured failures are produced here, at the boundary, and nowhere else.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
)

const (
	defaultTimeout  = 30 * time.Second
	maxGetRetries   = 3
	breakerInterval = 60 * time.Second
	breakerTimeout  = 15 * time.Second
)

// errServerFault marks 5xx responses so the circuit breaker counts them
// alongside network faults.
var errServerFault = errors.New("server fault")

// CredentialSource supplies the bearer credential attached to every request.
// The session manager implements it.
type CredentialSource interface {
	Token() (string, bool)
}

// Client is the shared HTTP plumbing behind the typed store clients.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	creds   CredentialSource
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func New(baseURL string, creds CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		creds:   creds,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:     "shop-backend",
		Interval: breakerInterval,
		Timeout:  breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return c
}

func (c *Client) Cart() *CartStore       { return &CartStore{c: c} }
func (c *Client) Orders() *OrderStore    { return &OrderStore{c: c} }
func (c *Client) Catalog() *CatalogStore { return &CatalogStore{c: c} }
func (c *Client) Admin() *AdminStore     { return &AdminStore{c: c} }
func (c *Client) Auth() *AuthClient      { return &AuthClient{c: c} }

// errorBody is the backend's error envelope.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// do issues one request and decodes the response into out (if non-nil).
// GET requests are retried on transient failures; everything else is
// dispatched exactly once since mutations are not known to be idempotent.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if method != http.MethodGet {
		return c.doOnce(ctx, method, path, body, out)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxGetRetries),
		ctx,
	)
	return backoff.Retry(func() error {
		err := c.doOnce(ctx, method, path, body, out)
		if err != nil && !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.creds.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req) //nolint:bodyclose // closed below
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerFault
		}
		return resp, nil
	})
	if err != nil && resp == nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return mapStatusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewFailure(domain.FailureTransient, "bad_response",
			fmt.Sprintf("malformed response body: %v", err))
	}
	return nil
}

func mapTransportError(err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return domain.NewFailure(domain.FailureTransient, "circuit_open",
			"shop backend temporarily unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.NewFailure(domain.FailureTransient, "timeout", err.Error())
	default:
		return domain.NewFailure(domain.FailureTransient, "network", err.Error())
	}
}

// mapStatusError turns the backend's error envelope into a Failure. The
// envelope's code is carried through; the kind comes from the status.
func mapStatusError(resp *http.Response) error {
	var eb errorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&eb)
	if eb.Error == "" {
		eb.Error = http.StatusText(resp.StatusCode)
	}

	var kind domain.FailureKind
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = domain.FailureAuthRequired
	case http.StatusForbidden:
		kind = domain.FailurePermission
	case http.StatusNotFound:
		kind = domain.FailureNotFound
	case http.StatusConflict:
		kind = domain.FailureConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = domain.FailureValidation
	default:
		kind = domain.FailureTransient
	}

	return domain.NewFailure(kind, eb.Code, eb.Error)
}
