package jwt

import (
	"testing"
	"time"
)

func TestGenerateAndParseToken(t *testing.T) {
	payload := &Payload{
		UserID:   "u-1",
		Username: "alice",
		IsAdmin:  true,
		IsVIP:    false,
	}

	token, err := GenerateToken(payload, "secret", UserIdentityExpiration)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	parsed, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	if parsed.UserID != "u-1" || parsed.Username != "alice" || !parsed.IsAdmin || parsed.IsVIP {
		t.Errorf("claims round trip mismatch: %+v", parsed)
	}

	if parsed.Issuer != TokenIssuer {
		t.Errorf("expected issuer %q, got %q", TokenIssuer, parsed.Issuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: "u-1"}, "secret", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ParseToken(token, "other-secret"); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := GenerateToken(&Payload{UserID: "u-1"}, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := ParseToken(token, "secret"); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestParseTokenMalformed(t *testing.T) {
	if _, err := ParseToken("definitely.not.a.jwt", "secret"); err == nil {
		t.Error("malformed token should be rejected")
	}
}
