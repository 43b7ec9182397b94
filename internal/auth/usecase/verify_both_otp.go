package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/phone"
)

type VerifyBothOTPInput struct {
	Phone     string `validate:"required,phone_e164"`
	SMSCode   string `validate:"required,len=6,numeric"`
	EmailCode string `validate:"required,len=6,numeric"`
}

type VerifyBothOTPOutput struct {
	Token string
}

// VerifyBothOTP requires both open challenges to pass. Validation happens
// without writes for both legs first; only then are the two rows consumed in
// one transaction. A failing email code therefore cannot burn the sms
// challenge, and concurrent calls settle on exactly one winner.
func (s *Usecase) VerifyBothOTP(ctx context.Context, in VerifyBothOTPInput) (*VerifyBothOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyBothOTP")
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

	smsChal, err := s.checkChallenge(ctx, ident.ID, entity.ChannelSMS, in.SMSCode)
	if err != nil {
		return nil, err
	}

	emailChal, err := s.checkChallenge(ctx, ident.ID, entity.ChannelEmail, in.EmailCode)
	if err != nil {
		return nil, err
	}

	if err := s.repoDB.ConsumeChallengePair(ctx, smsChal.ID, emailChal.ID, s.clock.Now()); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("passcode already used", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo consume challenge pair", "user_id", ident.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	token, err := s.finishVerification(ctx, ident, entity.ChannelEmail)
	if err != nil {
		return nil, err
	}

	return &VerifyBothOTPOutput{Token: token}, nil
}
