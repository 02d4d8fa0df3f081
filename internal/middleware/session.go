package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/avelesk/teletrack/internal/auth" // session parsing and cookie name
)

// SessionAuth returns an Echo middleware that validates the session
// credential issued at Telegram login and injects the resolved user id into
// the request context.  The credential is read from the session cookie
// first, which is how the mini-app webview carries it; an Authorization
// Bearer header is accepted as a fallback for clients without cookie jars.
// The Telegram launch signature is never re-checked here: the session token
// is the trust anchor after login.  Handlers access the authenticated user
// via `c.Get("user_id")`.
func SessionAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            var token string
            if ck, err := c.Cookie(auth.SessionCookieName); err == nil && ck.Value != "" {
                token = ck.Value
            } else if h := c.Request().Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
                token = strings.TrimPrefix(h, "Bearer ")
            }
            if token == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session"})
            }
            uid, err := auth.ParseSession(secret, token)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session"})
            }
            c.Set("user_id", uid)
            return next(c)
        }
    }
}
