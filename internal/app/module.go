package app

import (
	"log/slog"
	"os"

	"github.com/otpgate/otpgate/internal/auth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		// Debug echo is force-cleared outside development-like environments,
		// so no config mistake can leak plain codes from production.
		debugOTP := a.config.GetBool("modules.auth.debug_otp")
		if a.config.GetString("app.env") == "production" {
			debugOTP = false
		}

		if err := auth.New(auth.Dependency{
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			HMAC:        a.hmac,
			Clock:       a.clock,
			Validator:   a.validator,
			Router:      a.router,
			DBConn:      a.dbConn,
			Limiter:     a.limiter,
			RoleCache:   a.roleCache,
			SMSSender:   a.smsSender,
			EmailSender: a.emailSender,
			Messaging:   a.messaging,
			Goroutine:   a.goroutine,
			JWT:         a.jwt,
			DebugOTP:    debugOTP,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}
}
