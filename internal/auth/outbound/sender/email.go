package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

type Email struct {
	client mail.Mail
	from   string
	ins    instrument.Instrumentation
}

func NewEmail(client mail.Mail, from string, ins instrument.Instrumentation) *Email {
	return &Email{client: client, from: from, ins: ins}
}

func (e *Email) Deliver(ctx context.Context, destination, code string, ttl time.Duration) (err error) {
	ctx, span := e.ins.Tracer("auth.outbound.sender").Start(ctx, "Email.Deliver")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	msg := mail.Message{
		From:    e.from,
		To:      []string{destination},
		Subject: "Your verification code",
		TextBody: fmt.Sprintf(
			"Your verification code is %s.\n\nIt expires in %d minutes. If you did not request it, ignore this message.",
			code, int(ttl.Minutes()),
		),
	}

	if err := e.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return nil
}
