package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/auth/inbound"
	"github.com/otpgate/otpgate/internal/auth/outbound/db"
	"github.com/otpgate/otpgate/internal/auth/outbound/mq"
	"github.com/otpgate/otpgate/internal/auth/outbound/sender"
	"github.com/otpgate/otpgate/internal/auth/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/goroutine"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/pkg/otpcode"
	"github.com/otpgate/otpgate/internal/pkg/rate"
	"github.com/otpgate/otpgate/internal/pkg/rolecache"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type Dependency struct {
	DBConn      *pgxpool.Pool                 `validate:"required"`
	Goroutine   *goroutine.Manager            `validate:"required"`
	Router      *router.Router                `validate:"required"`
	Messaging   messaging.Messaging           `validate:"required"`
	Config      config.Config                 `validate:"required"`
	Instrument  instrument.Instrumentation    `validate:"required"`
	Limiter     rate.Limiter                  `validate:"required"`
	RoleCache   *rolecache.Cache[entity.Role] `validate:"required"`
	SMSSender   sender.Sender                 `validate:"required"`
	EmailSender sender.Sender                 `validate:"required"`
	UID         uid.NumberID                  `validate:"required"`
	HMAC        hash.Hash                     `validate:"required"`
	Clock       clock.Clocker                 `validate:"required"`
	Validator   validator.Validator           `validate:"required"`
	JWT         jwt.JWT                       `validate:"required"`
	DebugOTP    bool
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		SMSSender:     dep.SMSSender,
		EmailSender:   dep.EmailSender,
		Limiter:       dep.Limiter,
		RoleCache:     dep.RoleCache,
		Codes:         otpcode.NewNumeric(),
		Digest:        hash.NewSaltedSHA256(),
		HMAC:          dep.HMAC,
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
		DebugOTP:      dep.DebugOTP,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
