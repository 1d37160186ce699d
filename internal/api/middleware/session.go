package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextSessionID is the echo context key holding the session id.
const ContextSessionID = "session_id"

// Session guarantees every request carries a stable session id. The id comes
// from the session cookie when present, otherwise a fresh UUID is issued and
// set on the response. The id keys the session's cart and token storage; it
// carries no authentication weight of its own.
func Session(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				id = cookie.Value
			}
			if id == "" {
				id = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(ContextSessionID, id)
			return next(c)
		}
	}
}
