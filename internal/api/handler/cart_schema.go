package handler

import "github.com/handmadehub/storefront/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

// addLineRequest carries a product being added to the cart. Quantity is not
// validated: values below 1 are clamped to 1, never rejected.
type addLineRequest struct {
	ID        string   `json:"id"         validate:"required"`
	Name      string   `json:"name"       validate:"required"`
	UnitPrice float64  `json:"unit_price" validate:"gte=0"`
	Images    []string `json:"images"`
	Quantity  int      `json:"quantity"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type giftCardRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// cartResponse is the full cart view: lines in insertion order, the derived
// badge count and subtotal, and the dismissable error slot when set.
type cartResponse struct {
	Items    []domain.CartLine `json:"items"`
	Count    int               `json:"count"`
	Subtotal float64           `json:"subtotal"`
	Error    string            `json:"error,omitempty"`
}

type checkoutRequest struct {
	Name            string `json:"name"             validate:"required"`
	Email           string `json:"email"            validate:"required,email"`
	ShippingAddress string `json:"shipping_address" validate:"required"`
	// PaymentToken is the opaque reference produced by the payment
	// tokenization widget; the gateway never sees card data.
	PaymentToken string `json:"payment_token"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required,oneof=user artisan"`
}

// identityResponse is the advisory session view used for UI gating only.
// Claims come from a decode-only parse of the stored token; authorization is
// always re-checked upstream.
type identityResponse struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          string `json:"role,omitempty"`
	ArtisanStatus string `json:"artisan_status,omitempty"`
}
