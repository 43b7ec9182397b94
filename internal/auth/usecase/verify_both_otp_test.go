package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func seedBothChallenges(f *fixture) {
	f.seedIdentity(entity.Identity{ID: 10, Phone: "+6281234567890", Email: "ana@example.com"})
	f.seedChallenge(100, 10, entity.ChannelSMS, "111111", f.clock.Now().Add(5*time.Minute))
	f.seedChallenge(101, 10, entity.ChannelEmail, "222222", f.clock.Now().Add(5*time.Minute))
}

func TestVerifyBothOTP_HappyPath(t *testing.T) {
	// Arrange
	f := newFixture(t)
	seedBothChallenges(f)

	// Act
	out, err := f.uc.VerifyBothOTP(context.Background(), VerifyBothOTPInput{
		Phone:     "+6281234567890",
		SMSCode:   "111111",
		EmailCode: "222222",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Token == "" {
		t.Fatalf("expected a session token")
	}

	if !f.repo.challengeByID(100).Consumed() || !f.repo.challengeByID(101).Consumed() {
		t.Fatalf("both challenges must be consumed")
	}

	ident, _ := f.repo.GetIdentityByID(context.Background(), 10)
	if !ident.IsVerified {
		t.Fatalf("identity must be marked verified")
	}
}

func TestVerifyBothOTP_WrongEmailLeavesSMSOpen(t *testing.T) {
	// A failing leg must not burn the other: nothing is consumed until both
	// codes have passed their checks.
	f := newFixture(t)
	seedBothChallenges(f)

	_, err := f.uc.VerifyBothOTP(context.Background(), VerifyBothOTPInput{
		Phone:     "+6281234567890",
		SMSCode:   "111111",
		EmailCode: "999999",
	})

	assertCode(t, err, goerror.CodeUnauthorized)
	if f.repo.challengeByID(100).Consumed() {
		t.Fatalf("sms challenge must stay open after an email miss")
	}
	if got := f.repo.challengeByID(101).Attempts; got != 1 {
		t.Fatalf("expected email attempt recorded, got %d", got)
	}
	if f.repo.challengeByID(100).Attempts != 0 {
		t.Fatalf("matching sms code must not cost an attempt")
	}

	// Both codes still verify afterwards.
	if _, err := f.uc.VerifyBothOTP(context.Background(), VerifyBothOTPInput{
		Phone:     "+6281234567890",
		SMSCode:   "111111",
		EmailCode: "222222",
	}); err != nil {
		t.Fatalf("expected retry to pass, got %v", err)
	}
}

func TestVerifyBothOTP_WrongSMSSkipsEmailCheck(t *testing.T) {
	f := newFixture(t)
	seedBothChallenges(f)

	_, err := f.uc.VerifyBothOTP(context.Background(), VerifyBothOTPInput{
		Phone:     "+6281234567890",
		SMSCode:   "999999",
		EmailCode: "222222",
	})

	assertCode(t, err, goerror.CodeUnauthorized)
	if got := f.repo.challengeByID(100).Attempts; got != 1 {
		t.Fatalf("expected sms attempt recorded, got %d", got)
	}
	if f.repo.challengeByID(101).Attempts != 0 {
		t.Fatalf("email leg must not be charged when sms already failed")
	}
}

func TestVerifyBothOTP_MissingEmailChallenge(t *testing.T) {
	f := newFixture(t)
	f.seedIdentity(entity.Identity{ID: 10, Phone: "+6281234567890"})
	f.seedChallenge(100, 10, entity.ChannelSMS, "111111", f.clock.Now().Add(5*time.Minute))

	_, err := f.uc.VerifyBothOTP(context.Background(), VerifyBothOTPInput{
		Phone:     "+6281234567890",
		SMSCode:   "111111",
		EmailCode: "222222",
	})

	assertCode(t, err, goerror.CodeNotFound)
	if f.repo.challengeByID(100).Consumed() {
		t.Fatalf("sms challenge must stay open")
	}
}

func TestVerifyBothOTP_SecondCallConflicts(t *testing.T) {
	f := newFixture(t)
	seedBothChallenges(f)

	in := VerifyBothOTPInput{Phone: "+6281234567890", SMSCode: "111111", EmailCode: "222222"}
	if _, err := f.uc.VerifyBothOTP(context.Background(), in); err != nil {
		t.Fatalf("first verification should pass, got %v", err)
	}

	_, err := f.uc.VerifyBothOTP(context.Background(), in)

	assertCode(t, err, goerror.CodeConflict)
}
