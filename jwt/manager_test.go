package jwt

import (
	"crypto/ed25519"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

func hs256Manager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		SessionTTL:    ttl,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "eventgate-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestIssueParseRoundTrip(t *testing.T) {
	m := hs256Manager(t, time.Hour)

	token, err := m.Issue("u1", "a@b.com", "Alice", "ADMIN", "p1", "bt1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UID != "u1" || claims.Email != "a@b.com" || claims.Name != "Alice" {
		t.Fatalf("identity fields lost: %+v", claims)
	}
	if claims.Role != "ADMIN" || claims.ProfileID != "p1" || claims.BackendToken != "bt1" {
		t.Fatalf("credential fields lost: %+v", claims)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Fatalf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	// A TTL in the past produces an already-expired token.
	m := hs256Manager(t, time.Millisecond)
	token, err := m.Issue("u1", "", "", "MEMBER", "", "bt1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := m.Parse(token); err == nil {
		t.Fatal("Parse accepted an expired token")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	m := hs256Manager(t, time.Hour)
	token, err := m.Issue("u1", "", "", "MEMBER", "", "bt1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other, err := NewManager(Config{
		SessionTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("ffffffffffffffffffffffffffffffff"),
		Issuer:        "eventgate-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := other.Parse(token); err == nil {
		t.Fatal("Parse accepted a token signed with a different key")
	}
}

func TestParseRejectsTampering(t *testing.T) {
	m := hs256Manager(t, time.Hour)
	token, err := m.Issue("u1", "", "", "MEMBER", "", "bt1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := m.Parse(tampered); err == nil {
		t.Fatal("Parse accepted a tampered payload")
	}
}

func TestParseRejectsAlgorithmConfusion(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	edManager, err := NewManager(Config{
		SessionTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager ed25519: %v", err)
	}

	// A token HMAC-signed with arbitrary bytes must not pass an Ed25519
	// verifier regardless of its claims.
	forged := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, SessionClaims{
		UID: "u1",
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	forgedStr, err := forged.SignedString([]byte(pub))
	if err != nil {
		t.Fatalf("forge: %v", err)
	}
	if _, err := edManager.Parse(forgedStr); err == nil {
		t.Fatal("Parse accepted an hs256 token on an ed25519 manager")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}); err == nil {
		t.Fatal("missing TTL accepted")
	}
	if _, err := NewManager(Config{SessionTTL: time.Hour, SigningMethod: MethodHS256}); err == nil {
		t.Fatal("hs256 without key accepted")
	}
	if _, err := NewManager(Config{SessionTTL: time.Hour, SigningMethod: "rs256", PrivateKey: []byte("k")}); err == nil {
		t.Fatal("unsupported method accepted")
	}
	if _, err := NewManager(Config{SessionTTL: time.Hour, SigningMethod: MethodEd25519}); err == nil {
		t.Fatal("ed25519 without public key accepted")
	}
	if _, err := NewManager(Config{SessionTTL: time.Hour, SigningMethod: "HS256", PrivateKey: []byte("k")}); err != nil {
		t.Fatalf("upper-case method rejected: %v", err)
	}
}
