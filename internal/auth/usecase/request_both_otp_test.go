package usecase

import (
	"context"
	"testing"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestRequestBothOTP_HappyPath(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.codes.queue = []string{"111111", "222222"}

	// Act
	out, err := f.uc.RequestBothOTP(context.Background(), RequestBothOTPInput{
		Phone: "+6281234567890",
		Email: "ana@example.com",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.SMSSent || !out.EmailSent {
		t.Fatalf("expected both channels sent, got %+v", out)
	}

	ident, err := f.repo.GetIdentityByPhone(context.Background(), "+6281234567890")
	if err != nil {
		t.Fatalf("expected identity created, got %v", err)
	}

	smsChal := f.repo.latest(ident.ID, entity.ChannelSMS)
	emailChal := f.repo.latest(ident.ID, entity.ChannelEmail)
	if smsChal == nil || emailChal == nil {
		t.Fatalf("expected one challenge per channel")
	}
	if smsChal.CodeHash == emailChal.CodeHash {
		t.Fatalf("channels must carry independent codes")
	}

	sms := f.sms.deliveries()
	email := f.email.deliveries()
	if len(sms) != 1 || sms[0].Code != "111111" {
		t.Fatalf("unexpected sms deliveries %+v", sms)
	}
	if len(email) != 1 || email[0].Code != "222222" {
		t.Fatalf("unexpected email deliveries %+v", email)
	}
}

func TestRequestBothOTP_EmailRequired(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RequestBothOTP(context.Background(), RequestBothOTPInput{Phone: "+6281234567890"})

	assertCode(t, err, goerror.CodeInvalidInput)
}

func TestRequestBothOTP_PartialFailureReportsFlags(t *testing.T) {
	// One dead provider degrades the response, not the request. Both ledger
	// rows exist either way.
	f := newFixture(t)
	f.sms.err = errSenderDown

	out, err := f.uc.RequestBothOTP(context.Background(), RequestBothOTPInput{
		Phone: "+6281234567890",
		Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}

	if out.SMSSent {
		t.Fatalf("sms flag must be false when the provider is down")
	}
	if !out.EmailSent {
		t.Fatalf("email flag must be true")
	}
	if len(f.repo.challenges) != 2 {
		t.Fatalf("expected 2 challenge rows, got %d", len(f.repo.challenges))
	}
}

func TestRequestBothOTP_AllChannelsDown(t *testing.T) {
	f := newFixture(t)
	f.sms.err = errSenderDown
	f.email.err = errSenderDown

	_, err := f.uc.RequestBothOTP(context.Background(), RequestBothOTPInput{
		Phone: "+6281234567890",
		Email: "ana@example.com",
	})

	assertCode(t, err, goerror.CodeTimeout)
}

func TestRequestBothOTP_DebugEchoesBothCodes(t *testing.T) {
	f := newFixture(t)
	f.uc.debugOTP = true
	f.codes.queue = []string{"111111", "222222"}

	out, err := f.uc.RequestBothOTP(context.Background(), RequestBothOTPInput{
		Phone: "+6281234567890",
		Email: "ana@example.com",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.DebugSMSCode != "111111" || out.DebugEmailCode != "222222" {
		t.Fatalf("unexpected debug codes %+v", out)
	}
	if len(f.sms.deliveries()) != 0 || len(f.email.deliveries()) != 0 {
		t.Fatalf("debug echo must not dispatch")
	}
}
