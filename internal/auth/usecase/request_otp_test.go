package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestRequestOTP_NewIdentity(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
		Phone: "+62 812-3456-7890",
		Email: "ana@example.com",
		Name:  "Ana Widodo",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.DebugCode != "" {
		t.Fatalf("expected no debug code, got %q", out.DebugCode)
	}

	wantExpiry := f.clock.Now().Add(5 * time.Minute)
	if !out.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, out.ExpiresAt)
	}

	ident, err := f.repo.GetIdentityByPhone(context.Background(), "+6281234567890")
	if err != nil {
		t.Fatalf("expected identity created for normalized phone, got %v", err)
	}
	if ident.Name != "Ana Widodo" || ident.Email != "ana@example.com" {
		t.Fatalf("unexpected identity %+v", ident)
	}

	chal := f.repo.latest(ident.ID, entity.ChannelSMS)
	if chal == nil {
		t.Fatalf("expected a challenge row")
	}
	if chal.CodeHash == "123456" || chal.CodeHash == "" {
		t.Fatalf("challenge must store a digest, got %q", chal.CodeHash)
	}
	if !f.uc.digest.Compare(chal.CodeHash, "123456", chal.Salt) {
		t.Fatalf("stored digest does not match the generated code")
	}

	sent := f.sms.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sms delivery, got %d", len(sent))
	}
	if sent[0].Destination != "+6281234567890" || sent[0].Code != "123456" {
		t.Fatalf("unexpected delivery %+v", sent[0])
	}
	if len(f.email.deliveries()) != 0 {
		t.Fatalf("single-channel request must not touch email")
	}
}

func TestRequestOTP_InvalidPhone(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "not-a-phone"})

	assertCode(t, err, goerror.CodeInvalidInput)
	if len(f.repo.challenges) != 0 {
		t.Fatalf("invalid input must not open a challenge")
	}
}

func TestRequestOTP_RateLimited(t *testing.T) {
	f := newFixture(t)
	f.withLimiter(1)

	if _, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"}); err != nil {
		t.Fatalf("first request should pass, got %v", err)
	}

	_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"})

	assertCode(t, err, goerror.CodeTooManyRequest)
	if len(f.sms.deliveries()) != 1 {
		t.Fatalf("limited request must not deliver")
	}
}

func TestRequestOTP_CreateRaceRetriesAsLookup(t *testing.T) {
	// The unique phone index rejects the second writer; the loser must pick up
	// the winner's row instead of failing the request.
	f := newFixture(t)
	f.repo.conflictOnCreate = 1
	f.repo.racedIdentity = &entity.Identity{ID: 900, Phone: "+6281234567890", Email: "winner@example.com"}

	out, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"})
	if err != nil {
		t.Fatalf("expected race to settle, got %v", err)
	}
	if out == nil {
		t.Fatalf("expected output")
	}

	chal := f.repo.latest(900, entity.ChannelSMS)
	if chal == nil {
		t.Fatalf("challenge must belong to the winner's identity row")
	}
}

func TestRequestOTP_EnrichesMissingFields(t *testing.T) {
	// Coalesce semantics: empty columns fill in, populated columns survive.
	f := newFixture(t)
	f.seedIdentity(entity.Identity{ID: 10, Name: "Original Name", Phone: "+6281234567890"})

	_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
		Phone: "+6281234567890",
		Email: "late@example.com",
		Name:  "Other Name",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ident, _ := f.repo.GetIdentityByID(context.Background(), 10)
	if ident.Email != "late@example.com" {
		t.Fatalf("expected email enriched, got %q", ident.Email)
	}
	if ident.Name != "Original Name" {
		t.Fatalf("existing name must not be overwritten, got %q", ident.Name)
	}
}

func TestRequestOTP_SecondEmailNeverOverwrites(t *testing.T) {
	f := newFixture(t)

	if _, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
		Phone: "+6281234567890",
		Email: "first@example.com",
	}); err != nil {
		t.Fatalf("first request: %v", err)
	}

	if _, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{
		Phone: "+6281234567890",
		Email: "second@example.com",
	}); err != nil {
		t.Fatalf("second request: %v", err)
	}

	ident, _ := f.repo.GetIdentityByPhone(context.Background(), "+6281234567890")
	if ident.Email != "first@example.com" {
		t.Fatalf("first email must stand, got %q", ident.Email)
	}
}

func TestRequestOTP_DebugEchoSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	f.uc.debugOTP = true

	out, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if out.DebugCode != "123456" {
		t.Fatalf("expected echoed code, got %q", out.DebugCode)
	}
	if len(f.sms.deliveries()) != 0 {
		t.Fatalf("debug echo must not dispatch")
	}
	if len(f.repo.challenges) != 1 {
		t.Fatalf("debug echo still records the challenge")
	}
}

func TestRequestOTP_RepoFailure(t *testing.T) {
	f := newFixture(t)
	f.repo.getIdentityErr = errSenderDown

	_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"})

	assertCode(t, err, goerror.CodeInternal)
}

func TestRequestOTP_SMSUnavailable(t *testing.T) {
	f := newFixture(t)
	f.sms.err = errSenderDown

	_, err := f.uc.RequestOTP(context.Background(), RequestOTPInput{Phone: "+6281234567890"})

	assertCode(t, err, goerror.CodeTimeout)
	// The ledger row outlives the failed dispatch.
	if len(f.repo.challenges) != 1 {
		t.Fatalf("expected challenge row to persist, got %d", len(f.repo.challenges))
	}
}
