package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/phone"
)

type RequestBothOTPInput struct {
	Phone string `validate:"required,phone_e164"`
	Email string `validate:"required,email"`
	Name  string `validate:"omitempty,alphaspace,max=100"`
}

type RequestBothOTPOutput struct {
	ExpiresAt time.Time
	SMSSent   bool
	EmailSent bool
	// Debug codes, set only when debug echo is on.
	DebugSMSCode   string
	DebugEmailCode string
}

// RequestBothOTP opens one challenge per channel for a single identity. Both
// ledger rows are written before any dispatch, so a provider outage never
// loses a challenge; per-channel delivery failures are reported, not fatal,
// as long as at least one channel got through.
func (s *Usecase) RequestBothOTP(ctx context.Context, in RequestBothOTPInput) (*RequestBothOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestBothOTP")
	defer span.End()

	if p, err := phone.Normalize(in.Phone); err == nil {
		in.Phone = p
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.allowRequest(ctx, "otp:request:"+in.Phone); err != nil {
		return nil, err
	}

	ident, err := s.resolveIdentity(ctx, in.Phone, in.Email, in.Name)
	if err != nil {
		return nil, err
	}

	smsChal, smsCode, err := s.openChallenge(ctx, ident, entity.ChannelSMS, in.Phone)
	if err != nil {
		return nil, err
	}

	_, emailCode, err := s.openChallenge(ctx, ident, entity.ChannelEmail, in.Email)
	if err != nil {
		return nil, err
	}

	out := &RequestBothOTPOutput{ExpiresAt: smsChal.ExpiresAt}

	if s.debugOTP {
		out.DebugSMSCode = smsCode
		out.DebugEmailCode = emailCode
		return out, nil
	}

	ttl := s.otpTTL()
	var wg sync.WaitGroup
	var smsErr, emailErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		smsErr = s.smsSender.Deliver(ctx, in.Phone, smsCode, ttl)
	}()
	go func() {
		defer wg.Done()
		emailErr = s.emailSender.Deliver(ctx, in.Email, emailCode, ttl)
	}()
	wg.Wait()

	if smsErr != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode over sms", "user_id", ident.ID, "error", smsErr)
	}
	if emailErr != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode over email", "user_id", ident.ID, "error", emailErr)
	}
	if smsErr != nil && emailErr != nil {
		return nil, goerror.NewBusiness("all delivery channels unavailable", goerror.CodeTimeout)
	}

	out.SMSSent = smsErr == nil
	out.EmailSent = emailErr == nil

	return out, nil
}
