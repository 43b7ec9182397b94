package usecase

import (
	"context"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
)

func TestLogout_RevokesSessionAndRoleCache(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.repo.sessions["jti-1"] = entity.Session{ID: 1, UserID: 10, TokenID: "jti-1"}
	f.roles.Put(10, entity.RoleAdmin)

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-1"},
		UserID:           10,
	})

	// Act
	err := f.uc.Logout(ctx)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sess, _ := f.repo.GetSessionByTokenID(context.Background(), "jti-1")
	if sess.RevokedAt == nil {
		t.Fatalf("session must be revoked")
	}
	if !sess.RevokedAt.Equal(f.clock.Now()) {
		t.Fatalf("revocation must use the service clock, got %v", sess.RevokedAt)
	}

	if _, ok := f.roles.Get(10); ok {
		t.Fatalf("cached role must not outlive the session")
	}
}

func TestLogout_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	err := f.uc.Logout(context.Background())

	assertCode(t, err, goerror.CodeUnauthorized)
}

func TestLogout_RevokeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	revoked := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	f.repo.sessions["jti-1"] = entity.Session{ID: 1, UserID: 10, TokenID: "jti-1", RevokedAt: &revoked}

	ctx := jwt.SetAuth(context.Background(), jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{ID: "jti-1"},
		UserID:           10,
	})

	if err := f.uc.Logout(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	sess, _ := f.repo.GetSessionByTokenID(context.Background(), "jti-1")
	if !sess.RevokedAt.Equal(revoked) {
		t.Fatalf("original revocation time must stand, got %v", sess.RevokedAt)
	}
}
