package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handmadehub/storefront/internal/core/ports"
	"github.com/handmadehub/storefront/internal/core/service"
)

// SessionHandler exposes login, registration, logout, and the advisory
// identity view. Credentials pass straight through to the upstream API; the
// gateway only stores the returned bearer token per session.
type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Login handles POST /v1/session/login.
//
// @Summary      Log the session in via the upstream API
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest    true  "Credentials"
// @Success      200   {object}  map[string]any  "Upstream user payload"
// @Failure      401   {object}  errorResponse
// @Router       /v1/session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
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

	user, err := h.sessions.Login(c.Request().Context(), sid, ports.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusOK, user)
}

// Register handles POST /v1/session/register.
//
// @Summary      Register an account via the upstream API
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "New account"
// @Success      201   {object}  map[string]any   "Upstream user payload"
// @Failure      400   {object}  errorResponse
// @Router       /v1/session/register [post]
func (h *SessionHandler) Register(c echo.Context) error {
	var req registerRequest
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

	user, err := h.sessions.Register(c.Request().Context(), sid, ports.Credentials{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSONBlob(http.StatusCreated, user)
}

// Logout handles POST /v1/session/logout. The local cart survives; only the
// token and the materialized store go.
//
// @Summary      Log the session out
// @Tags         session
// @Success      204  "logged out"
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}
	if err := h.sessions.Logout(c.Request().Context(), sid); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Identity handles GET /v1/session. The response is advisory, for UI gating
// only: a decode of the stored token with no signature verification.
//
// @Summary      Get the advisory session identity
// @Tags         session
// @Produce      json
// @Success      200  {object}  identityResponse
// @Router       /v1/session [get]
func (h *SessionHandler) Identity(c echo.Context) error {
	sid, err := sessionID(c)
	if err != nil {
		return err
	}

	claims, ok := h.sessions.Identity(c.Request().Context(), sid)
	if !ok {
		return c.JSON(http.StatusOK, identityResponse{Authenticated: false})
	}
	return c.JSON(http.StatusOK, identityResponse{
		Authenticated: true,
		Subject:       claims.Subject,
		Name:          claims.Name,
		Role:          claims.Role,
		ArtisanStatus: claims.ArtisanStatus,
	})
}
