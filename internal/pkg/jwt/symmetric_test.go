package jwt

import (
	"errors"
	"testing"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type fixedUUID struct{ id string }

func (g fixedUUID) Generate() string { return g.id }

var testSecret = []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

func newSymmetricTest(t *testing.T, at time.Time) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:    testSecret,
		Issuer:    "otpgate",
		Audiences: []string{"otpgate"},
		TTL:       7 * 24 * time.Hour,
		Clock:     fixedClock{at: at},
		UUID:      fixedUUID{id: "tok-1"},
	})
	if err != nil {
		t.Fatalf("new hs512: %v", err)
	}
	return s
}

func TestNewHS512RejectsShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateVerifyRoundTrip(t *testing.T) {
	now := time.Now()
	s := newSymmetricTest(t, now)

	token, tokenID, expiresAt, err := s.Generate(Payload{
		UserID: 42,
		Email:  "user@example.com",
		Name:   "Jane Doe",
		Phone:  "+6281234567890",
		Role:   "admin",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if tokenID != "tok-1" {
		t.Fatalf("expected token id tok-1, got %q", tokenID)
	}
	if want := now.Add(7 * 24 * time.Hour); !expiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, expiresAt)
	}

	clm, err := s.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if clm.UserID != 42 || clm.Subject != "42" {
		t.Fatalf("unexpected subject: id=%d sub=%q", clm.UserID, clm.Subject)
	}
	if clm.UserEmail != "user@example.com" || clm.UserName != "Jane Doe" || clm.UserPhone != "+6281234567890" {
		t.Fatalf("payload claims not carried: %+v", clm)
	}
	if clm.Role != "admin" {
		t.Fatalf("expected role admin, got %q", clm.Role)
	}
	if clm.Provider != Provider {
		t.Fatalf("expected provider %q, got %q", Provider, clm.Provider)
	}
	if clm.ID != "tok-1" {
		t.Fatalf("expected jti tok-1, got %q", clm.ID)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	issued := newSymmetricTest(t, time.Now().Add(-30*24*time.Hour))

	token, _, _, err := issued.Generate(Payload{UserID: 1, Role: "client"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	verifier := newSymmetricTest(t, time.Now())
	if _, err := verifier.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsWrongMethod(t *testing.T) {
	s := newSymmetricTest(t, time.Now())

	// A token signed with HS256 must not pass an HS512 verifier.
	other, err := libJWT.NewWithClaims(libJWT.SigningMethodHS256, libJWT.RegisteredClaims{
		Subject:   "42",
		Issuer:    "otpgate",
		Audience:  []string{"otpgate"},
		IssuedAt:  libJWT.NewNumericDate(time.Now()),
		ExpiresAt: libJWT.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign hs256: %v", err)
	}

	if _, err := s.Verify(other); err == nil {
		t.Fatalf("expected wrong-method token to be rejected")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	s := newSymmetricTest(t, time.Now())

	token, _, _, err := s.Generate(Payload{UserID: 9, Role: "client"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := s.Verify(token + "x"); err == nil {
		t.Fatalf("expected tampered token to be rejected")
	}
}
