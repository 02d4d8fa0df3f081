package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	sess, err := NewSession("secret", 42, 30)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("empty token")
	}

	uid, err := ParseSession("secret", sess.Token)
	if err != nil {
		t.Fatalf("ParseSession: %v", err)
	}
	if uid != 42 {
		t.Fatalf("uid = %d, want 42", uid)
	}
}

func TestParseSessionRejects(t *testing.T) {
	sess, err := NewSession("secret", 42, 30)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := ParseSession("other", sess.Token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("err = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := ParseSession("secret", "not.a.jwt"); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("err = %v, want ErrInvalidSession", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		// A negative TTL produces a token that is already expired.
		old, err := NewSession("secret", 42, -1)
		if err != nil {
			t.Fatalf("NewSession: %v", err)
		}
		if _, err := ParseSession("secret", old.Token); !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("err = %v, want ErrInvalidSession", err)
		}
	})
}

func TestSessionCookie(t *testing.T) {
	sess, err := NewSession("secret", 7, 30)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ck := sess.Cookie()

	if ck.Name != SessionCookieName {
		t.Errorf("name = %q, want %q", ck.Name, SessionCookieName)
	}
	if ck.Value != sess.Token {
		t.Error("cookie value does not carry the token")
	}
	if ck.Path != "/" {
		t.Errorf("path = %q, want /", ck.Path)
	}
	if !ck.HttpOnly {
		t.Error("cookie is not httpOnly")
	}
	if !ck.Secure {
		t.Error("cookie is not secure")
	}
	if ck.SameSite != http.SameSiteLaxMode {
		t.Errorf("sameSite = %v, want Lax", ck.SameSite)
	}
	if ck.MaxAge <= 0 {
		t.Errorf("maxAge = %d, want positive", ck.MaxAge)
	}
	wantExp := time.Now().UTC().Add(30 * 24 * time.Hour)
	if diff := ck.Expires.Sub(wantExp); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expires = %v, want about %v", ck.Expires, wantExp)
	}
}
