// Package catalogapi is the HTTP client of the remote storefront API: the
// product catalog, account sign-up and login, and order history.
package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/greenleaf/storefront/internal/core/domain"
	"github.com/greenleaf/storefront/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	defaultLimit   = 12
	maxErrorBody   = 4 << 10
)

// Config holds the remote API location.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.Catalog and ports.AccountAPI over HTTP.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	log        zerolog.Logger
}

var (
	_ ports.Catalog    = (*Client)(nil)
	_ ports.AccountAPI = (*Client)(nil)
)

// New returns a Client for cfg.BaseURL. If httpClient is nil a client with
// cfg.Timeout is created.
func New(cfg Config, httpClient *http.Client, log zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", cfg.BaseURL)
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, httpClient: httpClient, log: log}, nil
}

// apiError is the error body of the remote API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

func (e *apiError) Unwrap() error { return domain.ErrUpstream }

// ListProducts implements ports.Catalog.
func (c *Client) ListProducts(ctx context.Context, q ports.ProductQuery) (*ports.ProductPage, error) {
	params := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))
	if q.Category != "" {
		params.Set("category", string(q.Category))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.MinPrice != nil {
		params.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		params.Set("maxPrice", q.MaxPrice.String())
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}

	var out ports.ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", params, "", nil, &out); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	out.Page = page
	return &out, nil
}

// GetProduct implements ports.Catalog. A 404 maps to domain.ErrProductNotFound.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, http.MethodGet, "/products/"+id, nil, "", nil, &out)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return &out, nil
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"password"`
}

// Register implements ports.AccountAPI. A 409 maps to domain.ErrUserExists.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	body := registerRequest{Name: in.Name, Email: in.Email, Phone: in.Phone, Password: in.Password}
	var out domain.User
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", body, &out); err != nil {
		if statusOf(err) == http.StatusConflict {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return &out, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login implements ports.AccountAPI. 400 and 401 map to
// domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	var out ports.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", loginRequest{Email: email, Password: password}, &out); err != nil {
		switch statusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("login: %w: response carried no token", domain.ErrUpstream)
	}
	return &out, nil
}

// ListOrders implements ports.AccountAPI. A 401 maps to
// domain.ErrSessionExpired.
func (c *Client) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	var out struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, token, nil, &out); err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if out.Orders == nil {
		out.Orders = []domain.Order{}
	}
	return out.Orders, nil
}

// do sends one request and decodes the "data" member of the response
// envelope into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("%w: decode data: %v", domain.ErrUpstream, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(raw, &body) == nil {
		msg = body.Error
		if msg == "" {
			msg = body.Message
		}
	}
	return &apiError{Status: resp.StatusCode, Message: msg}
}

func statusOf(err error) int {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
