// Package auth implements the two trust decisions of the application: the
// one-time verification of signed Telegram launch data at login, and the
// session credential every later request is authorized with.
package auth

import (
    "crypto/hmac"   // keyed-hash verification of the launch payload
    "crypto/sha256" // SHA-256 is the digest the Web App contract prescribes
    "encoding/hex"  // digests travel as lowercase hex
    "encoding/json" // the user field is a JSON-encoded object
    "errors"        // sentinel rejection reasons
    "net/url"       // launch data is query-string encoded
    "sort"          // check-string fields are sorted lexicographically
    "strconv"       // auth_date parsing
    "strings"       // token trimming and pair joining
    "time"          // freshness window check
)

// InitDataMaxAge bounds replay of captured launch payloads.  Payloads whose
// auth_date is older than this relative to the verifier's clock are rejected.
const InitDataMaxAge = 24 * time.Hour

// Rejection reasons for launch-data verification.  The messages double as the
// machine-readable "reason" field of 401 responses, so the client can tell a
// stale payload apart from a forged one.
var (
    ErrMissingHash     = errors.New("missing hash")
    ErrMissingAuthDate = errors.New("missing auth_date")
    ErrBadAuthDate     = errors.New("bad auth_date")
    ErrExpired         = errors.New("initData expired")
    ErrHashMismatch    = errors.New("hash mismatch")
    ErrMissingUser     = errors.New("missing user")
    ErrBadUserJSON     = errors.New("bad user json")
    ErrMissingID       = errors.New("missing telegram id")
)

// VerifyInitData validates a raw Telegram Web App launch payload against the
// bot token and returns the numeric Telegram user id it asserts.  The check
// is pure: the same raw string, token and clock always produce the same
// result, and no I/O happens here.
//
// The signed form is the remaining fields (hash removed) sorted by field
// name, rendered as "key=value" pairs joined with single newlines.  The
// signing key is HMAC-SHA256 over the bot token with the literal string
// "WebAppData" as the HMAC key; the direction matters, swapping key and
// message yields a digest that looks plausible but never matches.
func VerifyInitData(raw, botToken string, now time.Time) (int64, error) {
    params, err := url.ParseQuery(raw)
    if err != nil {
        // Unparseable payloads cannot carry a verifiable hash.
        return 0, ErrMissingHash
    }

    hash := params.Get("hash")
    if hash == "" {
        return 0, ErrMissingHash
    }
    params.Del("hash")

    authDateStr := params.Get("auth_date")
    if authDateStr == "" {
        return 0, ErrMissingAuthDate
    }
    authDate, err := strconv.ParseInt(authDateStr, 10, 64)
    if err != nil {
        return 0, ErrBadAuthDate
    }
    if now.Unix()-authDate > int64(InitDataMaxAge/time.Second) {
        return 0, ErrExpired
    }

    // Canonical check string: field order in the raw payload is irrelevant,
    // only the byte-order sorted form is signed.
    keys := make([]string, 0, len(params))
    for k := range params {
        keys = append(keys, k)
    }
    sort.Strings(keys)
    pairs := make([]string, 0, len(keys))
    for _, k := range keys {
        pairs = append(pairs, k+"="+params.Get(k))
    }
    checkString := strings.Join(pairs, "\n")

    mac := hmac.New(sha256.New, []byte("WebAppData"))
    mac.Write([]byte(strings.TrimSpace(botToken)))
    secret := mac.Sum(nil)

    mac = hmac.New(sha256.New, secret)
    mac.Write([]byte(checkString))
    computed := hex.EncodeToString(mac.Sum(nil))

    if !hmac.Equal([]byte(computed), []byte(hash)) {
        return 0, ErrHashMismatch
    }

    userRaw := params.Get("user")
    if userRaw == "" {
        return 0, ErrMissingUser
    }
    var user struct {
        ID json.Number `json:"id"`
    }
    if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
        return 0, ErrBadUserJSON
    }
    id, err := user.ID.Int64()
    if err != nil || id == 0 {
        return 0, ErrMissingID
    }
    return id, nil
}
