package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

const cookieName = "sf_session"

func runSession(t *testing.T, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured string
	next := func(c echo.Context) error {
		captured, _ = c.Get(ContextSessionID).(string)
		return c.NoContent(http.StatusOK)
	}
	if err := Session(cookieName)(next)(c); err != nil {
		t.Fatalf("middleware failed: %v", err)
	}
	return captured, rec
}

func TestSession_IssuesCookieWhenAbsent(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id, rec := runSession(t, req)

	if id == "" {
		t.Fatalf("expected a session id in context")
	}

	var issued *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName {
			issued = cookie
		}
	}
	if issued == nil {
		t.Fatalf("expected a session cookie on the response")
	}
	if issued.Value != id {
		t.Fatalf("cookie %q does not match context id %q", issued.Value, id)
	}
	if !issued.HttpOnly || issued.Path != "/" {
		t.Fatalf("unexpected cookie attributes: %+v", issued)
	}
}

func TestSession_ReusesExistingCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "existing-id"})

	id, rec := runSession(t, req)
	if id != "existing-id" {
		t.Fatalf("expected existing id reused, got %q", id)
	}
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == cookieName {
			t.Fatalf("no new cookie should be issued when one is present")
		}
	}
}
