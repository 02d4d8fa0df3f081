package auth

import (
    "errors"
    "net/http"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the mini-app client carries after login.
const SessionCookieName = "session"

// ErrInvalidSession is returned for session tokens that fail signature or
// expiry validation, whatever the underlying parse error was.
var ErrInvalidSession = errors.New("invalid session")

// Session is an issued credential binding a client to an internal user id.
// The Telegram signature is verified exactly once, at login; from then on
// this token is the trust anchor for the account.
type Session struct {
    Token string    // the serialized signed token
    Exp   time.Time // the UTC expiration time
}

// NewSession builds and signs an HS256 token for a user.  It takes the
// signing secret, the internal user ID and a TTL in days.  The token carries
// standard claims: subject (sub), expiration (exp) and issued at (iat), so
// expiry is enforced server-side on every request instead of trusting a
// long-lived opaque value at face value.
func NewSession(secret string, userID uint64, ttlDays int) (Session, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
    claims := jwt.MapClaims{
        "sub": userID,
        "exp": exp.Unix(),
        "iat": time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return Session{}, err
    }
    return Session{Token: signed, Exp: exp}, nil
}

// ParseSession validates a session token and returns the user id it is bound
// to.  Tokens signed with another method or secret, expired tokens and
// malformed claims all map to ErrInvalidSession.
func ParseSession(secret, token string) (uint64, error) {
    tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSession
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return 0, ErrInvalidSession
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return 0, ErrInvalidSession
    }
    // Numeric claims decode as float64; internal ids are small enough that
    // the conversion is exact.
    if sub, ok := claims["sub"].(float64); ok && sub > 0 {
        return uint64(sub), nil
    }
    return 0, ErrInvalidSession
}

// Cookie wraps the signed token in the transport attributes the deployment
// expects: httpOnly so page scripts never see it, secure-only, and
// SameSite=Lax to survive the mini-app webview's top-level navigations.
func (s Session) Cookie() *http.Cookie {
    return &http.Cookie{
        Name:     SessionCookieName,
        Value:    s.Token,
        Path:     "/",
        Expires:  s.Exp,
        MaxAge:   int(time.Until(s.Exp) / time.Second),
        HttpOnly: true,
        Secure:   true,
        SameSite: http.SameSiteLaxMode,
    }
}
