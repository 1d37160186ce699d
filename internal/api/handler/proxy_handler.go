package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handmadehub/storefront/internal/core/ports"
)

// ProxyHandler relays product, order, review, artisan-request, and user
// traffic to the upstream marketplace API with the session's bearer
// attached. Responses come back verbatim: the pages rendering them are pure
// presentational consumers.
//
// A 401 from upstream is the global session-invalid signal: the stored token
// is deleted and the session's cart store dropped, so the UI's next cart read
// behaves like a fresh anonymous session.
type ProxyHandler struct {
	gateway ports.Passthrough
	tokens  ports.TokenStore
	stores  ports.StoreProvider
}

func NewProxyHandler(gateway ports.Passthrough, tokens ports.TokenStore, stores ports.StoreProvider) *ProxyHandler {
	return &ProxyHandler{gateway: gateway, tokens: tokens, stores: stores}
}

// Route forwards to a fixed upstream path.
func (h *ProxyHandler) Route(upstreamPath string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.forward(c, upstreamPath)
	}
}

// RouteParam forwards to prefix + the named path parameter.
func (h *ProxyHandler) RouteParam(prefix, param string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.forward(c, prefix+c.Param(param))
	}
}

// RouteParamSuffix forwards to prefix + the named path parameter + suffix,
// for routes like /orders/:id/status.
func (h *ProxyHandler) RouteParamSuffix(prefix, param, suffix string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return h.forward(c, prefix+c.Param(param)+suffix)
	}
}

func (h *ProxyHandler) forward(c echo.Context, upstreamPath string) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.tokens.Get(ctx, sid)
	if err != nil {
		token = ""
	}

	res, err := h.gateway.Forward(ctx, ports.ProxyRequest{
		Method:      c.Request().Method,
		Path:        upstreamPath,
		Query:       c.QueryParams(),
		Body:        c.Request().Body,
		ContentType: c.Request().Header.Get("Content-Type"),
		Token:       token,
	})
	if err != nil {
		return err
	}

	if res.Status == http.StatusUnauthorized && token != "" {
		_ = h.tokens.Delete(ctx, sid)
		h.stores.Drop(sid)
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(res.Status, contentType, res.Body)
}
