package entity

import (
	"testing"
	"time"
)

func TestChannelRoundTrip(t *testing.T) {
	cases := []struct {
		in   string
		want Channel
	}{
		{"sms", ChannelSMS},
		{"email", ChannelEmail},
		{"carrier-pigeon", ChannelUnknown},
	}

	for _, c := range cases {
		if got := ChannelFromString(c.in); got != c.want {
			t.Fatalf("ChannelFromString(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	if ChannelSMS.String() != "sms" || ChannelEmail.String() != "email" {
		t.Fatalf("unexpected channel strings %q %q", ChannelSMS.String(), ChannelEmail.String())
	}
}

func TestRoleRoundTrip(t *testing.T) {
	if RoleFromString("admin") != RoleAdmin {
		t.Fatalf("expected admin role")
	}
	// Anything unrecognized is a client, never an admin.
	if RoleFromString("superuser") != RoleClient {
		t.Fatalf("unknown role must map to client")
	}
	if RoleAdmin.String() != "admin" || RoleClient.String() != "client" {
		t.Fatalf("unexpected role strings")
	}
}

func TestChallengeExpiredAndConsumed(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	chal := Challenge{ExpiresAt: at}

	if chal.Expired(at) {
		t.Fatalf("challenge is valid up to and including its expiry instant")
	}
	if !chal.Expired(at.Add(time.Second)) {
		t.Fatalf("challenge must expire after the deadline")
	}

	if chal.Consumed() {
		t.Fatalf("fresh challenge must not be consumed")
	}
	chal.ConsumedAt = &at
	if !chal.Consumed() {
		t.Fatalf("challenge with a consumption time is consumed")
	}
}

func TestIdentityHasContact(t *testing.T) {
	if (Identity{}).HasContact() {
		t.Fatalf("empty identity has no contact")
	}
	if !(Identity{Phone: "+6281234567890"}).HasContact() {
		t.Fatalf("phone counts as contact")
	}
	if !(Identity{Email: "a@b.c"}).HasContact() {
		t.Fatalf("email counts as contact")
	}
}
