package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Verification errors. ErrNoBotToken is a configuration problem, not a
// failed verification; callers must not treat it as a normal rejection.
var (
	ErrNoBotToken  = errors.New("telegram: bot token not configured")
	ErrHashMissing = errors.New("telegram: initData has no hash field")
	ErrHashInvalid = errors.New("telegram: initData hash mismatch")
	ErrExpired     = errors.New("telegram: initData auth_date too old")
)

// WebAppUser is the user object Telegram embeds in initData.
type WebAppUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code"`
	IsPremium    bool   `json:"is_premium"`
}

// InitData is the parsed launch payload.
type InitData struct {
	User     *WebAppUser
	AuthDate time.Time
	QueryID  string
}

// VerifyInitData checks that initData was signed by the bot identified by
// botToken, using Telegram's WebApp scheme: the hash field is removed, the
// remaining pairs are sorted by key and joined as "k=v" lines, and the
// result is HMAC-SHA256'd with a secret key derived from the bot token.
// It is a pure function of its inputs and never panics on malformed input.
func VerifyInitData(initData, botToken string) error {
	if botToken == "" {
		return ErrNoBotToken
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return fmt.Errorf("telegram: parse initData: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return ErrHashMissing
	}
	values.Del("hash")

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dataCheck []string
	for _, k := range keys {
		for _, v := range values[k] {
			dataCheck = append(dataCheck, k+"="+v)
		}
	}
	dataCheckString := strings.Join(dataCheck, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	secretKey := secret.Sum(nil)

	mac := hmac.New(sha256.New, secretKey)
	mac.Write([]byte(dataCheckString))
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(hash)
	if err != nil {
		return ErrHashInvalid
	}
	if !hmac.Equal(expected, got) {
		return ErrHashInvalid
	}
	return nil
}

// VerifyInitDataAt additionally rejects payloads whose auth_date is older
// than maxAge at the given instant. maxAge <= 0 disables the freshness
// check.
func VerifyInitDataAt(initData, botToken string, maxAge time.Duration, now time.Time) error {
	if err := VerifyInitData(initData, botToken); err != nil {
		return err
	}
	if maxAge <= 0 {
		return nil
	}
	parsed, err := ParseInitData(initData)
	if err != nil {
		return err
	}
	if parsed.AuthDate.IsZero() || now.Sub(parsed.AuthDate) > maxAge {
		return ErrExpired
	}
	return nil
}

// ParseInitData extracts the user object and auth_date without verifying
// the signature. Callers that care about authenticity must call
// VerifyInitData first.
func ParseInitData(initData string) (*InitData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("telegram: parse initData: %w", err)
	}

	out := &InitData{QueryID: values.Get("query_id")}

	if raw := values.Get("auth_date"); raw != "" {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("telegram: bad auth_date: %w", err)
		}
		out.AuthDate = time.Unix(sec, 0).UTC()
	}

	if raw := values.Get("user"); raw != "" {
		var u WebAppUser
		if err := json.Unmarshal([]byte(raw), &u); err != nil {
			return nil, fmt.Errorf("telegram: bad user payload: %w", err)
		}
		out.User = &u
	}

	return out, nil
}
