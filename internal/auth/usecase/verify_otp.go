package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/phone"
)

type VerifyOTPInput struct {
	Phone string `validate:"required,phone_e164"`
	Code  string `validate:"required,len=6,numeric"`
}

type VerifyOTPOutput struct {
	Token string
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if p, err := phone.Normalize(in.Phone); err == nil {
		in.Phone = p
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.allowRequest(ctx, "otp:verify:"+in.Phone); err != nil {
		return nil, err
	}

	ident, err := s.repoDB.GetIdentityByPhone(ctx, in.Phone)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "verification for unknown phone", "phone", in.Phone)
		return nil, goerror.NewBusiness("no passcode was requested", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get identity", "phone", in.Phone, "error", err)
		return nil, goerror.NewServer(err)
	}

	chal, err := s.checkChallenge(ctx, ident.ID, entity.ChannelSMS, in.Code)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.ConsumeChallenge(ctx, chal.ID, s.clock.Now()); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("passcode already used", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo consume challenge", "challenge_id", chal.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.finishVerification(ctx, ident, entity.ChannelSMS)
	if err != nil {
		return nil, err
	}

	return &VerifyOTPOutput{Token: token}, nil
}

// checkChallenge walks the rejection ladder for the latest challenge on a
// channel. Order matters: absence, consumed, expiry and the attempt budget are
// all decided before the digest comparison, so a locked or stale challenge
// never costs a hash.
func (s *Usecase) checkChallenge(ctx context.Context, userID int64, ch entity.Channel, code string) (entity.Challenge, error) {
	chal, err := s.repoDB.GetLatestChallenge(ctx, userID, ch)
	if errors.Is(err, goerror.ErrNotFound) {
		return chal, goerror.NewBusiness("no passcode was requested", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get latest challenge", "user_id", userID, "error", err)
		return chal, goerror.NewServer(err)
	}

	if chal.Consumed() {
		return chal, goerror.NewBusiness("passcode already used", goerror.CodeConflict)
	}

	if chal.Expired(s.clock.Now()) {
		return chal, goerror.NewBusiness("passcode expired", goerror.CodeUnauthorized)
	}

	if chal.Attempts >= s.maxAttempts() {
		slog.WarnContext(ctx, "challenge attempt budget exhausted", "challenge_id", chal.ID, "user_id", userID)
		return chal, goerror.NewBusiness("too many failed attempts, request a new passcode", goerror.CodeTooManyRequest)
	}

	if !s.digest.Compare(chal.CodeHash, code, chal.Salt) {
		if _, err := s.repoDB.IncrementChallengeAttempts(ctx, chal.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo increment challenge attempts", "challenge_id", chal.ID, "error", err)
		}
		return chal, goerror.NewBusiness("invalid passcode", goerror.CodeUnauthorized)
	}

	return chal, nil
}

func (s *Usecase) finishVerification(ctx context.Context, ident entity.Identity, ch entity.Channel) (string, error) {
	if !ident.IsVerified {
		if err := s.repoDB.MarkIdentityVerified(ctx, ident.ID); err != nil {
			slog.ErrorContext(ctx, "failed to repo mark identity verified", "user_id", ident.ID, "error", err)
			return "", goerror.NewServer(err)
		}
		ident.IsVerified = true
	}

	return s.issueSession(ctx, ident, ch)
}
