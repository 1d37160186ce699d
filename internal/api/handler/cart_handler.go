package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handmadehub/storefront/internal/core/domain"
	"github.com/handmadehub/storefront/internal/core/ports"
)

// CartHandler exposes the session's cart store over HTTP. Mutations never
// fail from the UI's point of view: the response always reflects the applied
// local state, and remote sync runs detached.
type CartHandler struct {
	stores ports.StoreProvider
}

func NewCartHandler(stores ports.StoreProvider) *CartHandler {
	return &CartHandler{stores: stores}
}

func (h *CartHandler) respond(c echo.Context, status int, store ports.CartStore) error {
	return c.JSON(status, cartResponse{
		Items:    store.Lines(),
		Count:    store.Count(),
		Subtotal: store.Subtotal(),
		Error:    store.Err(),
	})
}

// Get handles GET /v1/cart.
//
// @Summary      Get the session's cart
// @Tags         cart
// @Produce      json
// @Success      200  {object}  cartResponse
// @Router       /v1/cart [get]
func (h *CartHandler) Get(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	return h.respond(c, http.StatusOK, h.stores.Store(c.Request().Context(), sid))
}

// AddItem handles POST /v1/cart/items.
//
// @Summary      Add a product to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      addLineRequest  true  "Product line"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/cart/items [post]
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addLineRequest
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

	store := h.stores.Store(c.Request().Context(), sid)
	store.AddLine(c.Request().Context(), domain.CartLine{
		ID:        req.ID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
		Images:    req.Images,
		Quantity:  req.Quantity,
	})
	return h.respond(c, http.StatusOK, store)
}

// UpdateQuantity handles PUT /v1/cart/items/:id. Quantities below 1 are
// clamped; unknown ids are a no-op. Quantity edits do not sync the remote
// cart.
//
// @Summary      Set a line's quantity
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Line id"
// @Param        body  body      updateQuantityRequest  true  "New quantity"
// @Success      200   {object}  cartResponse
// @Router       /v1/cart/items/{id} [put]
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	store := h.stores.Store(c.Request().Context(), sid)
	store.UpdateQuantity(c.Request().Context(), c.Param("id"), req.Quantity)
	return h.respond(c, http.StatusOK, store)
}

// RemoveItem handles DELETE /v1/cart/items/:id.
//
// @Summary      Remove a line from the cart
// @Tags         cart
// @Produce      json
// @Param        id   path      string  true  "Line id"
// @Success      200  {object}  cartResponse
// @Router       /v1/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	store := h.stores.Store(c.Request().Context(), sid)
	store.RemoveLine(c.Request().Context(), c.Param("id"))
	return h.respond(c, http.StatusOK, store)
}

// AddGiftCard handles POST /v1/cart/gift-card. Each purchase becomes its own
// line with a time-based synthetic id, so two gift cards never merge.
//
// @Summary      Add a gift card to the cart
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        body  body      giftCardRequest  true  "Gift card amount"
// @Success      200   {object}  cartResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/cart/gift-card [post]
func (h *CartHandler) AddGiftCard(c echo.Context) error {
	var req giftCardRequest
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

	store := h.stores.Store(c.Request().Context(), sid)
	store.AddLine(c.Request().Context(), domain.NewGiftCardLine(req.Amount))
	return h.respond(c, http.StatusOK, store)
}

// DismissError handles DELETE /v1/cart/error, the UI dismissing the banner.
//
// @Summary      Dismiss the cart error banner
// @Tags         cart
// @Success      204  "dismissed"
// @Router       /v1/cart/error [delete]
func (h *CartHandler) DismissError(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	h.stores.Store(c.Request().Context(), sid).DismissErr()
	return c.NoContent(http.StatusNoContent)
}
