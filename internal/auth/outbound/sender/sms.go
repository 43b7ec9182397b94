package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
)

// SMSConfig holds the HTTP SMS gateway settings.
type SMSConfig struct {
	BaseURL string
	APIKey  string
	From    string
	Timeout time.Duration
}

type SMS struct {
	cfg    SMSConfig
	client *http.Client
	ins    instrument.Instrumentation
}

func NewSMS(cfg SMSConfig, ins instrument.Instrumentation) *SMS {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &SMS{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		ins:    ins,
	}
}

type smsPayload struct {
	To   string `json:"to"`
	From string `json:"from"`
	Body string `json:"body"`
}

func (s *SMS) Deliver(ctx context.Context, destination, code string, ttl time.Duration) (err error) {
	ctx, span := s.ins.Tracer("auth.outbound.sender").Start(ctx, "SMS.Deliver")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(smsPayload{
		To:   destination,
		From: s.cfg.From,
		Body: fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, int(ttl.Minutes())),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: gateway responded %d", ErrUnavailable, resp.StatusCode)
	}

	return nil
}
