package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/phone"
	"github.com/sethvargo/go-retry"
)

type RequestOTPInput struct {
	Phone string `validate:"required,phone_e164"`
	Email string `validate:"omitempty,email"`
	Name  string `validate:"omitempty,alphaspace,max=100"`
}

type RequestOTPOutput struct {
	ExpiresAt time.Time
	// DebugCode carries the plain code when debug echo is on. Empty otherwise.
	DebugCode string
}

func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) (*RequestOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "RequestOTP")
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

	chal, code, err := s.openChallenge(ctx, ident, entity.ChannelSMS, in.Phone)
	if err != nil {
		return nil, err
	}

	if s.debugOTP {
		return &RequestOTPOutput{ExpiresAt: chal.ExpiresAt, DebugCode: code}, nil
	}

	if err := s.smsSender.Deliver(ctx, in.Phone, code, s.otpTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to deliver passcode over sms", "user_id", ident.ID, "error", err)
		return nil, goerror.NewBusiness("sms channel unavailable", goerror.CodeTimeout)
	}

	return &RequestOTPOutput{ExpiresAt: chal.ExpiresAt}, nil
}

// resolveIdentity finds the identity for a phone or creates it. Two first
// requests racing on the same new phone both end up on the same row: the
// unique phone index rejects the loser, which retries as a lookup.
func (s *Usecase) resolveIdentity(ctx context.Context, phoneNum, email, name string) (ident entity.Identity, err error) {
	backoff := retry.WithMaxRetries(3, retry.NewConstant(50*time.Millisecond))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var lErr error
		ident, lErr = s.repoDB.GetIdentityByPhone(ctx, phoneNum)
		if lErr == nil {
			return nil
		}
		if !errors.Is(lErr, goerror.ErrNotFound) {
			return lErr
		}

		ident = entity.Identity{ID: s.uid.Generate(), Name: name, Phone: phoneNum, Email: email}
		cErr := s.repoDB.CreateIdentity(ctx, entity.NewIdentity{
			ID:    ident.ID,
			Name:  ident.Name,
			Phone: ident.Phone,
			Email: ident.Email,
		})
		if errors.Is(cErr, goerror.ErrConflict) {
			return retry.RetryableError(cErr)
		}
		return cErr
	})
	if err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			slog.ErrorContext(ctx, "identity create race did not settle", "phone", phoneNum, "error", err)
			return ident, goerror.NewBusiness("identity already exists", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to repo resolve identity", "phone", phoneNum, "error", err)
		return ident, goerror.NewServer(err)
	}

	if (name != "" && ident.Name == "") || (email != "" && ident.Email == "") {
		if err := s.repoDB.EnrichIdentity(ctx, entity.EnrichIdentity{ID: ident.ID, Name: name, Email: email}); err != nil {
			slog.ErrorContext(ctx, "failed to repo enrich identity", "user_id", ident.ID, "error", err)
			return ident, goerror.NewServer(err)
		}
		if ident.Name == "" {
			ident.Name = name
		}
		if ident.Email == "" {
			ident.Email = email
		}
	}

	return ident, nil
}

// openChallenge appends a fresh challenge row and returns it with the plain
// code. The code never touches storage; only its salted digest does.
func (s *Usecase) openChallenge(ctx context.Context, ident entity.Identity, ch entity.Channel, destination string) (entity.NewChallenge, string, error) {
	code, err := s.codes.Code()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate passcode", "user_id", ident.ID, "error", err)
		return entity.NewChallenge{}, "", goerror.NewServer(err)
	}

	salt, err := s.codes.Salt()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate salt", "user_id", ident.ID, "error", err)
		return entity.NewChallenge{}, "", goerror.NewServer(err)
	}

	chal := entity.NewChallenge{
		ID:          s.uid.Generate(),
		UserID:      ident.ID,
		Channel:     ch,
		Destination: destination,
		CodeHash:    s.digest.Digest(code, salt),
		Salt:        salt,
		ExpiresAt:   s.clock.Now().Add(s.otpTTL()),
	}

	if err := s.repoDB.CreateChallenge(ctx, chal); err != nil {
		slog.ErrorContext(ctx, "failed to repo create challenge", "user_id", ident.ID, "error", err)
		return entity.NewChallenge{}, "", goerror.NewServer(err)
	}

	return chal, code, nil
}
