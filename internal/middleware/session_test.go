package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/avelesk/teletrack/internal/auth"
)

func sessionTestServer(t *testing.T, secret string) *echo.Echo {
	t.Helper()
	e := echo.New()
	g := e.Group("/v1")
	g.Use(SessionAuth(secret))
	g.GET("/ping", func(c echo.Context) error {
		uid, _ := c.Get("user_id").(uint64)
		return c.JSON(http.StatusOK, echo.Map{"uid": uid})
	})
	return e
}

func TestSessionAuth(t *testing.T) {
	const secret = "test-secret"
	e := sessionTestServer(t, secret)

	sess, err := auth.NewSession(secret, 42, 1)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	t.Run("valid cookie passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: sess.Token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("bearer fallback passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.Header.Set("Authorization", "Bearer "+sess.Token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("token signed with other secret", func(t *testing.T) {
		other, err := auth.NewSession("other-secret", 42, 1)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: other.Token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		old, err := auth.NewSession(secret, 42, -1)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: old.Token})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}
