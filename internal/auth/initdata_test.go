package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

// signInitData builds a launch payload signed the way the Telegram client
// would: sorted "k=v" pairs joined by newlines, HMAC'd with the secret
// derived from the bot token.
func signInitData(t *testing.T, botToken string, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	checkString := strings.Join(pairs, "\n")

	mac := hmac.New(sha256.New, []byte("WebAppData"))
	mac.Write([]byte(strings.TrimSpace(botToken)))
	secret := mac.Sum(nil)

	mac = hmac.New(sha256.New, secret)
	mac.Write([]byte(checkString))
	hash := hex.EncodeToString(mac.Sum(nil))

	v := url.Values{}
	for k, val := range fields {
		v.Set(k, val)
	}
	v.Set("hash", hash)
	return v.Encode()
}

func validFields(now time.Time) map[string]string {
	return map[string]string{
		"auth_date": strconv.FormatInt(now.Unix(), 10),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":279058397,"first_name":"Vladislav","username":"vdkfrost"}`,
	}
}

func TestVerifyInitData(t *testing.T) {
	now := time.Unix(1700000000, 0)

	t.Run("valid payload returns telegram id", func(t *testing.T) {
		raw := signInitData(t, testBotToken, validFields(now))
		id, err := VerifyInitData(raw, testBotToken, now)
		if err != nil {
			t.Fatalf("VerifyInitData: %v", err)
		}
		if id != 279058397 {
			t.Fatalf("id = %d, want 279058397", id)
		}
	})

	t.Run("field order does not matter", func(t *testing.T) {
		fields := validFields(now)
		raw := signInitData(t, testBotToken, fields)
		// Rebuild the query with fields in reverse order of the encoded
		// form; the signature covers the sorted form, so both must verify.
		parts := strings.Split(raw, "&")
		for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
			parts[i], parts[j] = parts[j], parts[i]
		}
		reversed := strings.Join(parts, "&")
		if _, err := VerifyInitData(reversed, testBotToken, now); err != nil {
			t.Fatalf("reversed payload rejected: %v", err)
		}
	})

	t.Run("token with surrounding whitespace still verifies", func(t *testing.T) {
		raw := signInitData(t, testBotToken, validFields(now))
		if _, err := VerifyInitData(raw, "  "+testBotToken+"\n", now); err != nil {
			t.Fatalf("trimmed token rejected: %v", err)
		}
	})

	t.Run("tampered hash", func(t *testing.T) {
		fields := validFields(now)
		raw := signInitData(t, testBotToken, fields)
		tampered := strings.Replace(raw, "hash=", "hash=00", 1)
		if _, err := VerifyInitData(tampered, testBotToken, now); !errors.Is(err, ErrHashMismatch) {
			t.Fatalf("err = %v, want ErrHashMismatch", err)
		}
	})

	t.Run("wrong bot token", func(t *testing.T) {
		raw := signInitData(t, testBotToken, validFields(now))
		if _, err := VerifyInitData(raw, "999999:other-token", now); !errors.Is(err, ErrHashMismatch) {
			t.Fatalf("err = %v, want ErrHashMismatch", err)
		}
	})

	t.Run("tampered field", func(t *testing.T) {
		fields := validFields(now)
		raw := signInitData(t, testBotToken, fields)
		tampered := strings.Replace(raw, "279058397", "279058398", 1)
		if _, err := VerifyInitData(tampered, testBotToken, now); !errors.Is(err, ErrHashMismatch) {
			t.Fatalf("err = %v, want ErrHashMismatch", err)
		}
	})

	t.Run("expired payload", func(t *testing.T) {
		old := now.Add(-InitDataMaxAge - time.Second)
		fields := validFields(old)
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrExpired) {
			t.Fatalf("err = %v, want ErrExpired", err)
		}
	})

	t.Run("payload exactly at the age limit passes", func(t *testing.T) {
		edge := now.Add(-InitDataMaxAge)
		fields := validFields(edge)
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); err != nil {
			t.Fatalf("edge-age payload rejected: %v", err)
		}
	})

	t.Run("future auth_date is accepted", func(t *testing.T) {
		fields := validFields(now.Add(time.Hour))
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); err != nil {
			t.Fatalf("future payload rejected: %v", err)
		}
	})

	t.Run("missing hash", func(t *testing.T) {
		if _, err := VerifyInitData("auth_date=1&user=%7B%7D", testBotToken, now); !errors.Is(err, ErrMissingHash) {
			t.Fatalf("err = %v, want ErrMissingHash", err)
		}
	})

	t.Run("unparseable query", func(t *testing.T) {
		if _, err := VerifyInitData("a=%zz;b==", testBotToken, now); !errors.Is(err, ErrMissingHash) {
			t.Fatalf("err = %v, want ErrMissingHash", err)
		}
	})

	t.Run("missing auth_date", func(t *testing.T) {
		fields := map[string]string{"user": `{"id":1}`}
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrMissingAuthDate) {
			t.Fatalf("err = %v, want ErrMissingAuthDate", err)
		}
	})

	t.Run("non-numeric auth_date", func(t *testing.T) {
		fields := map[string]string{"auth_date": "yesterday", "user": `{"id":1}`}
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrBadAuthDate) {
			t.Fatalf("err = %v, want ErrBadAuthDate", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		fields := map[string]string{"auth_date": strconv.FormatInt(now.Unix(), 10)}
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrMissingUser) {
			t.Fatalf("err = %v, want ErrMissingUser", err)
		}
	})

	t.Run("bad user json", func(t *testing.T) {
		fields := validFields(now)
		fields["user"] = `{"id":`
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrBadUserJSON) {
			t.Fatalf("err = %v, want ErrBadUserJSON", err)
		}
	})

	t.Run("user without id", func(t *testing.T) {
		fields := validFields(now)
		fields["user"] = `{"first_name":"anon"}`
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrMissingID) {
			t.Fatalf("err = %v, want ErrMissingID", err)
		}
	})

	t.Run("zero id", func(t *testing.T) {
		fields := validFields(now)
		fields["user"] = `{"id":0}`
		raw := signInitData(t, testBotToken, fields)
		if _, err := VerifyInitData(raw, testBotToken, now); !errors.Is(err, ErrMissingID) {
			t.Fatalf("err = %v, want ErrMissingID", err)
		}
	})
}
