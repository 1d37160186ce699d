package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handmadehub/storefront/internal/core/ports"
	"github.com/handmadehub/storefront/internal/core/service"
)

// flatShippingFee is charged on every non-empty order.
const flatShippingFee = 5.0

// CheckoutHandler submits the session's cart as an order and clears the cart
// on success.
type CheckoutHandler struct {
	stores ports.StoreProvider
	orders ports.OrderGateway
	tokens ports.TokenStore
}

func NewCheckoutHandler(stores ports.StoreProvider, orders ports.OrderGateway, tokens ports.TokenStore) *CheckoutHandler {
	return &CheckoutHandler{stores: stores, orders: orders, tokens: tokens}
}

// Submit handles POST /v1/checkout.
//
// @Summary      Submit the cart as an order
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        body  body      checkoutRequest  true  "Checkout details"
// @Success      201   {object}  map[string]any   "Upstream order payload"
// @Failure      400   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/checkout [post]
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	store := h.stores.Store(ctx, sid)

	lines := store.Lines()
	if len(lines) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "cart is empty")
	}

	items := make([]ports.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, ports.OrderItem{Product: line.ID, Quantity: line.Quantity})
	}

	subtotal := store.Subtotal()
	order := ports.OrderInput{
		Items:           items,
		Name:            req.Name,
		Email:           req.Email,
		ShippingAddress: req.ShippingAddress,
		PaymentToken:    req.PaymentToken,
		Subtotal:        subtotal,
		Shipping:        flatShippingFee,
		Total:           subtotal + flatShippingFee,
	}

	// Guests may check out: the order is submitted without a bearer and the
	// upstream decides whether to accept it.
	token := h.bearerToken(c)

	payload, err := h.orders.SubmitOrder(ctx, token, order)
	if err != nil {
		return err
	}

	store.Clear(ctx)
	return c.JSONBlob(http.StatusCreated, payload)
}

// bearerToken returns the stored token when it is still usable, else "".
func (h *CheckoutHandler) bearerToken(c echo.Context) string {
	sid, err := sessionID(c)
	if err != nil {
		return ""
	}
	raw, err := h.tokens.Get(c.Request().Context(), sid)
	if err != nil || raw == "" || !service.TokenUsable(raw) {
		return ""
	}
	return raw
}
