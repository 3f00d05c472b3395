package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11"

// signInitData builds a query string the way the Telegram client would:
// compute the hash over the sorted decoded pairs, then append it.
func signInitData(pairs map[string]string, botToken string) string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var lines []string
	for _, k := range keys {
		lines = append(lines, k+"="+pairs[k])
	}
	checkString := strings.Join(lines, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for k, v := range pairs {
		values.Set(k, v)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func validPayload(authDate int64) map[string]string {
	return map[string]string{
		"auth_date": fmt.Sprintf("%d", authDate),
		"query_id":  "AAHdF6IQAAAAAN0XohDhrOrc",
		"user":      `{"id":279058397,"first_name":"Vladislav","last_name":"Kibenko","username":"vdkfrost"}`,
	}
}

func TestVerifyInitData_Valid(t *testing.T) {
	initData := signInitData(validPayload(time.Now().Unix()), testBotToken)
	if err := VerifyInitData(initData, testBotToken); err != nil {
		t.Fatalf("expected valid payload to pass, got %v", err)
	}
	// deterministic: same inputs, same outcome
	if err := VerifyInitData(initData, testBotToken); err != nil {
		t.Fatalf("second verification disagreed: %v", err)
	}
}

func TestVerifyInitData_FieldOrderIrrelevant(t *testing.T) {
	pairs := validPayload(time.Now().Unix())
	signed := signInitData(pairs, testBotToken)

	// extract the hash and rebuild the query in reverse key order
	values, err := url.ParseQuery(signed)
	if err != nil {
		t.Fatalf("parse signed payload: %v", err)
	}
	hash := values.Get("hash")

	keys := []string{"user", "query_id", "auth_date"}
	var parts []string
	for _, k := range keys {
		parts = append(parts, k+"="+url.QueryEscape(pairs[k]))
	}
	parts = append(parts, "hash="+hash)
	reordered := strings.Join(parts, "&")

	if reordered == signed {
		t.Fatal("test payloads should differ before sorting")
	}
	if err := VerifyInitData(reordered, testBotToken); err != nil {
		t.Fatalf("reordered payload should verify identically, got %v", err)
	}
}

func TestVerifyInitData_Tampered(t *testing.T) {
	initData := signInitData(validPayload(time.Now().Unix()), testBotToken)

	// flip one character of the user id inside the payload
	tampered := strings.Replace(initData, "279058397", "279058398", 1)
	if tampered == initData {
		t.Fatal("tampering did not change the payload")
	}
	if err := VerifyInitData(tampered, testBotToken); !errors.Is(err, ErrHashInvalid) {
		t.Fatalf("expected ErrHashInvalid for tampered payload, got %v", err)
	}
}

func TestVerifyInitData_WrongToken(t *testing.T) {
	initData := signInitData(validPayload(time.Now().Unix()), testBotToken)
	if err := VerifyInitData(initData, "999999:other-token"); !errors.Is(err, ErrHashInvalid) {
		t.Fatalf("expected ErrHashInvalid under a different bot token, got %v", err)
	}
}

func TestVerifyInitData_MissingHash(t *testing.T) {
	if err := VerifyInitData("auth_date=123&user=x", testBotToken); !errors.Is(err, ErrHashMissing) {
		t.Fatalf("expected ErrHashMissing, got %v", err)
	}
}

func TestVerifyInitData_NoBotToken(t *testing.T) {
	initData := signInitData(validPayload(time.Now().Unix()), testBotToken)
	if err := VerifyInitData(initData, ""); !errors.Is(err, ErrNoBotToken) {
		t.Fatalf("missing secret must be a config error, got %v", err)
	}
}

func TestVerifyInitDataAt_MaxAge(t *testing.T) {
	now := time.Now()
	fresh := signInitData(validPayload(now.Add(-time.Hour).Unix()), testBotToken)
	if err := VerifyInitDataAt(fresh, testBotToken, 24*time.Hour, now); err != nil {
		t.Fatalf("1h old payload within 24h window must pass, got %v", err)
	}

	stale := signInitData(validPayload(now.Add(-25*time.Hour).Unix()), testBotToken)
	if err := VerifyInitDataAt(stale, testBotToken, 24*time.Hour, now); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired for 25h old payload, got %v", err)
	}

	// maxAge <= 0 disables the freshness check
	if err := VerifyInitDataAt(stale, testBotToken, 0, now); err != nil {
		t.Fatalf("freshness check should be disabled, got %v", err)
	}
}

func TestParseInitData_User(t *testing.T) {
	authDate := time.Now().Unix()
	initData := signInitData(validPayload(authDate), testBotToken)

	parsed, err := ParseInitData(initData)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.User == nil {
		t.Fatal("expected embedded user object")
	}
	if parsed.User.ID != 279058397 {
		t.Fatalf("wrong user id: %d", parsed.User.ID)
	}
	if parsed.User.Username != "vdkfrost" {
		t.Fatalf("wrong username: %s", parsed.User.Username)
	}
	if parsed.AuthDate.Unix() != authDate {
		t.Fatalf("wrong auth date: %v", parsed.AuthDate)
	}
}

func TestParseInitData_Malformed(t *testing.T) {
	if _, err := ParseInitData("auth_date=notanumber"); err == nil {
		t.Fatal("expected error for bad auth_date")
	}
	if _, err := ParseInitData("user=%7Bnot-json"); err == nil {
		t.Fatal("expected error for bad user payload")
	}
}
