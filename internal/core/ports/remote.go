package ports

import (
	"context"
	"io"
	"net/url"

	"github.com/handmadehub/storefront/internal/core/domain"
)

// RemoteCart is the per-user cart held by the upstream marketplace API.
// Implementations classify 401/403 responses by wrapping
// domain.ErrAuthRejected and transient failures by wrapping
// domain.ErrUpstreamUnavailable.
type RemoteCart interface {
	// Fetch returns the user's remote cart. A remote cart without items
	// decodes to an empty slice.
	Fetch(ctx context.Context, token string) ([]domain.CartLine, error)
	// Replace overwrites the remote cart with the given lines.
	Replace(ctx context.Context, token string, lines []domain.CartLine) error
}

// Credentials carries a login or registration request for the upstream API.
type Credentials struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is the upstream response to a successful login or registration.
type AuthResult struct {
	Token string
	// User is the raw upstream user payload, forwarded verbatim to the UI.
	User []byte
}

// AuthGateway proxies login and registration to the upstream API. The
// gateway never stores or verifies credentials itself.
type AuthGateway interface {
	Login(ctx context.Context, creds Credentials) (*AuthResult, error)
	Register(ctx context.Context, creds Credentials) (*AuthResult, error)
}

// OrderItem references a product line in an order submission.
type OrderItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// OrderInput is the order submitted at checkout.
type OrderInput struct {
	Items           []OrderItem `json:"items"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ShippingAddress string      `json:"shippingAddress"`
	PaymentToken    string      `json:"paymentToken,omitempty"`
	Subtotal        float64     `json:"subtotal"`
	Shipping        float64     `json:"shipping"`
	Total           float64     `json:"total"`
}

// OrderGateway submits orders to the upstream API.
type OrderGateway interface {
	SubmitOrder(ctx context.Context, token string, order OrderInput) ([]byte, error)
}

// ProxyRequest is a UI request forwarded verbatim to the upstream API.
type ProxyRequest struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	Token       string
}

// ProxyResponse carries the upstream status and body back to the UI
// unchanged.
type ProxyResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// Passthrough forwards arbitrary UI requests to the upstream API with the
// session's bearer attached. Unlike RemoteCart, upstream error statuses are
// not classified: they are returned in ProxyResponse for the UI to render.
// Only transport failures produce an error.
type Passthrough interface {
	Forward(ctx context.Context, req ProxyRequest) (*ProxyResponse, error)
}
