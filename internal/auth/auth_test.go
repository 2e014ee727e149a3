package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte("test-secret")

func TestSignParse_RoundTrip(t *testing.T) {
	in := Identity{UserID: 12, Email: "ana@example.com", FirstName: "Ana", LastName: "Lima", Staff: true}
	tok, err := Sign(secret, in, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	out, err := Parse(secret, tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out != in {
		t.Fatalf("identity mismatch: got %+v want %+v", out, in)
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	tok, err := Sign(secret, Identity{UserID: 1}, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(secret, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	tok, _ := Sign(secret, Identity{UserID: 1}, time.Hour)
	if _, err := Parse([]byte("other"), tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_RejectsMissingSubject(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Email: "x@example.com"}).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := Parse(secret, tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
