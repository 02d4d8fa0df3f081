package handler

import (
    "context"  // provides context with cancellation for DB calls
    "net/http" // HTTP status codes and primitives
    "strconv"  // telegram ids render as strings in JSON
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls and the verification clock

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/avelesk/teletrack/internal/auth"       // launch-data verification and session issuance
    "github.com/avelesk/teletrack/internal/config"     // app configuration
    "github.com/avelesk/teletrack/internal/repository" // DB repositories
)

// AuthHandler bundles dependencies for the Telegram login endpoint.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u}
}

type telegramLoginReq struct {
	InitData string `json:"initData"`
}

// TelegramLogin verifies signed launch data from the mini-app host and
// issues a session cookie bound to the internal user.  Verification
// failures are terminal for the request: they answer 401 with the specific
// rejection reason and are never retried server-side.  The account row is
// upserted on first successful login.
func (h *AuthHandler) TelegramLogin(c echo.Context) error {
	var req telegramLoginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.InitData) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "initData is required"})
	}

	telegramID, err := auth.VerifyInitData(req.InitData, h.Cfg.BotToken, time.Now())
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "reason": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetOrCreateByTelegramID(ctx, telegramID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	sess, err := auth.NewSession(h.Cfg.SessionSecret, u.ID, h.Cfg.SessionTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue session failed"})
	}
	c.SetCookie(sess.Cookie())

	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me returns the authenticated user's identity.  The telegram id is a
// string because 64-bit values do not survive JSON number parsing in every
// client.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":         u.ID,
		"telegramId": strconv.FormatInt(u.TelegramID, 10),
	})
}
