// Package checkout creates hosted payment sessions with the provider's
// HTTP API. A session carries the buyer's uid as client_reference_id so
// the completion webhook can be tied back to a user.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursegate/coursegate/types"
)

// DefaultBaseURL is the provider's API origin.
const DefaultBaseURL = "https://api.stripe.com"

// DefaultTimeout bounds a single session-creation call.
const DefaultTimeout = 10 * time.Second

// Product describes what a session sells.
type Product struct {
	Name  string
	Price types.Money
}

// DefaultProduct is the single course offering.
func DefaultProduct() Product {
	return Product{
		Name:  "Full Course Access",
		Price: types.USD(2990),
	}
}

// Session is a created checkout session: the id later echoed by the
// completion webhook, and the hosted page the buyer is sent to.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the provider's checkout sessions endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	appURL     string
	product    Product
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL points the client at a different API origin.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithProduct overrides the offering sold by new sessions.
func WithProduct(p Product) Option {
	return func(c *Client) { c.product = p }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger.With("component", "checkout") }
}

// NewClient builds a checkout client. secretKey authenticates against the
// provider; appURL is where the buyer lands after the hosted page.
func NewClient(secretKey, appURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		secretKey:  secretKey,
		appURL:     strings.TrimRight(appURL, "/"),
		product:    DefaultProduct(),
		logger:     slog.Default().With("component", "checkout"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession opens a one-time payment session for uid and returns the
// hosted page to redirect the buyer to. email, when present, prefills the
// hosted page's receipt address.
func (c *Client) CreateSession(ctx context.Context, uid, email string) (Session, error) {
	if uid == "" {
		return Session{}, errors.New("checkout: uid is required")
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", uid)
	form.Set("success_url", c.appURL+"?payment=success")
	form.Set("cancel_url", c.appURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", c.product.Price.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(c.product.Price.Amount, 10))
	form.Set("line_items[0][price_data][product_data][name]", c.product.Name)
	if email != "" {
		form.Set("customer_email", email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("checkout: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// Idempotency keys make network-level retries safe on the provider side.
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("checkout: session request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Session{}, fmt.Errorf("checkout: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("session creation refused",
			"status", resp.StatusCode,
			"uid", uid,
		)
		return Session{}, fmt.Errorf("checkout: provider returned %d: %s", resp.StatusCode, summarize(body))
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return Session{}, fmt.Errorf("checkout: decode response: %w", err)
	}
	if sess.URL == "" {
		return Session{}, errors.New("checkout: session has no redirect url")
	}

	c.logger.Debug("session created", "session_id", sess.ID, "uid", uid)
	return sess, nil
}

// summarize trims a provider error body to something log-sized.
func summarize(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
