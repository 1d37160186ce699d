package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handmadehub/storefront/internal/api/middleware"
)

// sessionID extracts the session id injected by the Session middleware. Its
// absence means the middleware did not run, which is a wiring bug, not a
// client fault.
func sessionID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextSessionID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusInternalServerError, "session middleware not configured")
	}
	return id, nil
}
