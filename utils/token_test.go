package utils

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := GenerateSessionToken("secret", 279058397, "vdkfrost", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	tid, err := ValidateSessionToken("secret", token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if tid != 279058397 {
		t.Fatalf("expected telegram id 279058397, got %d", tid)
	}
}

func TestSessionTokenWrongSecret(t *testing.T) {
	token, err := GenerateSessionToken("secret", 1, "", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateSessionToken("other", token); err == nil {
		t.Fatal("expected validation failure under a different secret")
	}
}

func TestSessionTokenExpired(t *testing.T) {
	token, err := GenerateSessionToken("secret", 1, "", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ValidateSessionToken("secret", token); err == nil {
		t.Fatal("expected expired token to fail validation")
	}
}

func TestSessionTokenNoSecret(t *testing.T) {
	if _, err := GenerateSessionToken("", 1, "", time.Hour); err == nil {
		t.Fatal("expected error when secret is empty")
	}
}
