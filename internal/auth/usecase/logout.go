package usecase

import (
	"context"
	"log/slog"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
)

func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	if err := s.repoDB.RevokeSession(ctx, clm.ID, s.clock.Now()); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke session", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	// Role changes must not outlive the session that cached them.
	s.roles.Invalidate(clm.UserID)

	return nil
}
