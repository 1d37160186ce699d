// Package upstream implements the HTTP client for the marketplace REST API.
// It is the single place where the bearer token is attached and where
// response statuses are classified, mirroring a global request/response
// interceptor.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/handmadehub/storefront/internal/api/metrics"
	"github.com/handmadehub/storefront/internal/core/domain"
	"github.com/handmadehub/storefront/internal/core/ports"
)

const defaultTimeout = 15 * time.Second

// Client talks to the upstream marketplace API. It implements
// ports.RemoteCart, ports.AuthGateway, ports.OrderGateway and
// ports.Passthrough.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New builds a client for the given base URL (e.g. "https://api.example.com/api").
// A default timeout is applied when none is provided.
func New(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// do executes one upstream request with the bearer attached and records its
// latency. A transport failure wraps domain.ErrUpstreamUnavailable; any
// response, success or not, is returned to the caller for classification.
func (c *Client) do(ctx context.Context, route, method, path, token, contentType string, body io.Reader, query string) (*http.Response, error) {
	url := c.baseURL + path
	if query != "" {
		url += "?" + query
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(route, "transport_error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("upstream %s %s: %w: %w", method, path, domain.ErrUpstreamUnavailable, err)
	}
	metrics.UpstreamRequestDuration.
		WithLabelValues(route, fmt.Sprintf("%dxx", resp.StatusCode/100)).
		Observe(time.Since(start).Seconds())
	return resp, nil
}

// statusError drains the body and wraps the response status.
func statusError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Code: resp.StatusCode, Body: string(b)}
}

// --- Remote cart (ports.RemoteCart) ---

// remoteLine is the upstream wire format for one cart item.
type remoteLine struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Images    []string `json:"images"`
	Quantity  int      `json:"quantity"`
}

type remoteCartPayload struct {
	Items []remoteLine `json:"items"`
}

// Fetch retrieves the authenticated user's remote cart. A payload without an
// items field decodes to an empty slice.
func (c *Client) Fetch(ctx context.Context, token string) ([]domain.CartLine, error) {
	resp, err := c.do(ctx, "users_cart", http.MethodGet, "/users/cart", token, "", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var payload remoteCartPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode remote cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(payload.Items))
	for _, item := range payload.Items {
		lines = append(lines, domain.CartLine{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Images:    item.Images,
			Quantity:  item.Quantity,
		})
	}
	return lines, nil
}

// Replace overwrites the remote cart with the full line list.
func (c *Client) Replace(ctx context.Context, token string, lines []domain.CartLine) error {
	payload := remoteCartPayload{Items: make([]remoteLine, 0, len(lines))}
	for _, line := range lines {
		payload.Items = append(payload.Items, remoteLine{
			ID:       line.ID,
			Name:     line.Name,
			Price:    line.UnitPrice,
			Images:   line.Images,
			Quantity: line.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode remote cart: %w", err)
	}

	resp, err := c.do(ctx, "users_cart", http.MethodPost, "/users/cart", token, "application/json", bytes.NewReader(body), "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	return nil
}

// --- Auth (ports.AuthGateway) ---

type authResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. The full upstream payload
// is returned verbatim alongside the extracted token.
func (c *Client) Login(ctx context.Context, creds ports.Credentials) (*ports.AuthResult, error) {
	return c.authCall(ctx, "/auth/login", map[string]string{
		"email":    creds.Email,
		"password": creds.Password,
	})
}

// Register creates an account upstream.
func (c *Client) Register(ctx context.Context, creds ports.Credentials) (*ports.AuthResult, error) {
	return c.authCall(ctx, "/auth/register", map[string]string{
		"name":     creds.Name,
		"email":    creds.Email,
		"password": creds.Password,
		"role":     creds.Role,
	})
}

func (c *Client) authCall(ctx context.Context, path string, payload map[string]string) (*ports.AuthResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "auth", http.MethodPost, path, "", "application/json", bytes.NewReader(body), "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var auth authResponse
	if err := json.Unmarshal(raw, &auth); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	return &ports.AuthResult{Token: auth.Token, User: raw}, nil
}

// --- Orders (ports.OrderGateway) ---

// SubmitOrder posts an order and returns the raw upstream payload.
func (c *Client) SubmitOrder(ctx context.Context, token string, order ports.OrderInput) ([]byte, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, "orders", http.MethodPost, "/orders", token, "application/json", bytes.NewReader(body), "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read order response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

// --- Generic passthrough (ports.Passthrough) ---

// Forward relays a UI request to the upstream API verbatim. Upstream error
// statuses are not classified here; the response is handed back for the UI
// to render. Only transport failures produce an error.
func (c *Client) Forward(ctx context.Context, req ports.ProxyRequest) (*ports.ProxyResponse, error) {
	resp, err := c.do(ctx, routeLabel(req.Path), req.Method, req.Path, req.Token, req.ContentType, req.Body, req.Query.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	return &ports.ProxyResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// routeLabel collapses a concrete path to its first segment so the duration
// metric keeps a bounded label set.
func routeLabel(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i > 0 {
		return trimmed[:i]
	}
	if trimmed == "" {
		return "root"
	}
	return trimmed
}
