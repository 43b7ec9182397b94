package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/outbound/sender"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/otpcode"
	"github.com/otpgate/otpgate/internal/pkg/rate"
	"github.com/otpgate/otpgate/internal/pkg/rolecache"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/trace"
)

type UserVerifiedEvent struct {
	UserID    int64
	Phone     string
	Email     string
	Channel   string
	Role      string
	SessionID int64
}

type repoMessaging interface {
	PublishUserVerified(ctx context.Context, msg UserVerifiedEvent) error
}

type repoDB interface {
	GetIdentityByPhone(ctx context.Context, phone string) (entity.Identity, error)
	GetIdentityByID(ctx context.Context, id int64) (entity.Identity, error)
	CreateIdentity(ctx context.Context, user entity.NewIdentity) error
	EnrichIdentity(ctx context.Context, enrich entity.EnrichIdentity) error
	MarkIdentityVerified(ctx context.Context, id int64) error

	CreateChallenge(ctx context.Context, chal entity.NewChallenge) error
	GetLatestChallenge(ctx context.Context, userID int64, ch entity.Channel) (entity.Challenge, error)
	ConsumeChallenge(ctx context.Context, id int64, at time.Time) error
	ConsumeChallengePair(ctx context.Context, firstID, secondID int64, at time.Time) error
	IncrementChallengeAttempts(ctx context.Context, id int64) (int32, error)

	CreateSession(ctx context.Context, sess entity.Session) error
	GetSessionByTokenID(ctx context.Context, tokenID string) (entity.Session, error)
	RevokeSession(ctx context.Context, tokenID string, at time.Time) error

	GetAllowlistEntry(ctx context.Context, email string) (entity.AllowlistEntry, error)
	UpsertAllowlistEntry(ctx context.Context, entry entity.AllowlistEntry) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	smsSender     sender.Sender
	emailSender   sender.Sender
	limiter       rate.Limiter
	roles         *rolecache.Cache[entity.Role]
	codes         otpcode.Generator
	digest        *hash.SaltedSHA256
	hmac          hash.Hash
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
	debugOTP      bool
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	SMSSender     sender.Sender
	EmailSender   sender.Sender
	Limiter       rate.Limiter
	RoleCache     *rolecache.Cache[entity.Role]
	Codes         otpcode.Generator
	Digest        *hash.SaltedSHA256
	HMAC          hash.Hash
	UID           uid.NumberID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager

	// DebugOTP echoes generated codes in responses instead of dispatching
	// them. Wiring force-clears it outside of development environments.
	DebugOTP bool
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		smsSender:     dep.SMSSender,
		emailSender:   dep.EmailSender,
		limiter:       dep.Limiter,
		roles:         dep.RoleCache,
		codes:         dep.Codes,
		digest:        dep.Digest,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		debugOTP:      dep.DebugOTP,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

func (s *Usecase) otpTTL() time.Duration {
	return s.cfg.GetSecond("modules.auth.otp_ttl_seconds")
}

func (s *Usecase) maxAttempts() int32 {
	return s.cfg.GetInt32("modules.auth.max_attempts")
}

func (s *Usecase) allowRequest(ctx context.Context, key string) error {
	err := s.limiter.Allow(ctx, key)
	if errors.Is(err, rate.ErrLimited) {
		slog.WarnContext(ctx, "client is over its request budget", "key", key)
		return goerror.NewBusiness("too many requests, try again later", goerror.CodeTooManyRequest)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to check rate limit", "key", key, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// resolveRole decides the authorization level for an identity. Admin status
// comes from the allowlist table; the configured bootstrap emails are upserted
// into it first so operators can promote by config alone. Lookup failures
// degrade to client, never to admin.
func (s *Usecase) resolveRole(ctx context.Context, ident entity.Identity) entity.Role {
	if role, ok := s.roles.Get(ident.ID); ok {
		return role
	}

	role := entity.RoleClient
	email := strings.ToLower(strings.TrimSpace(ident.Email))

	if email != "" {
		admins := lo.Map(s.cfg.GetArray("modules.auth.admin_emails"), func(e string, _ int) string {
			return strings.ToLower(strings.TrimSpace(e))
		})

		if lo.Contains(admins, email) {
			if err := s.repoDB.UpsertAllowlistEntry(ctx, entity.AllowlistEntry{Email: email, IsActive: true}); err != nil {
				slog.ErrorContext(ctx, "failed to repo upsert allowlist entry", "email", email, "error", err)
			}
			role = entity.RoleAdmin
		} else {
			entry, err := s.repoDB.GetAllowlistEntry(ctx, email)
			switch {
			case errors.Is(err, goerror.ErrNotFound):
			case err != nil:
				slog.ErrorContext(ctx, "failed to repo get allowlist entry", "email", email, "error", err)
			case entry.IsActive:
				role = entity.RoleAdmin
			}
		}
	}

	s.roles.Put(ident.ID, role)
	return role
}

// issueSession signs a token for the identity, records the session audit row
// and publishes the verified event. Audit and publish failures are logged and
// swallowed; the caller already holds a valid token.
func (s *Usecase) issueSession(ctx context.Context, ident entity.Identity, ch entity.Channel) (string, error) {
	role := s.resolveRole(ctx, ident)

	token, tokenID, expiresAt, err := s.jwt.Generate(jwt.Payload{
		UserID: ident.ID,
		Email:  ident.Email,
		Name:   ident.Name,
		Phone:  ident.Phone,
		Role:   role.String(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate session token", "user_id", ident.ID, "error", err)
		return "", goerror.NewServer(err)
	}

	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash session token", "user_id", ident.ID, "error", err)
		return "", goerror.NewServer(err)
	}

	sessID := s.uid.Generate()
	if err := s.repoDB.CreateSession(ctx, entity.Session{
		ID:        sessID,
		UserID:    ident.ID,
		TokenID:   tokenID,
		TokenHash: string(tokenHash),
		IssuedAt:  s.clock.Now(),
		ExpiresAt: expiresAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create session audit", "user_id", ident.ID, "error", err)
		sessID = 0
	}

	msg := UserVerifiedEvent{
		UserID:    ident.ID,
		Phone:     ident.Phone,
		Email:     ident.Email,
		Channel:   ch.String(),
		Role:      role.String(),
		SessionID: sessID,
	}
	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishUserVerified(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to publish user verified event", "user_id", msg.UserID, "error", err)
		}
		return nil
	})

	return token, nil
}
