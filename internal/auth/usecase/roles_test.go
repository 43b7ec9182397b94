package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/otpgate/otpgate/internal/auth/entity"
)

func TestResolveRole_ConfiguredAdminEmail(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.cfg.arrs["modules.auth.admin_emails"] = []string{" Boss@Example.COM "}

	// Act
	role := f.uc.resolveRole(context.Background(), entity.Identity{ID: 10, Email: "boss@example.com"})

	// Assert
	if role != entity.RoleAdmin {
		t.Fatalf("expected admin, got %v", role)
	}

	// The bootstrap email lands in the allowlist table.
	entry, err := f.repo.GetAllowlistEntry(context.Background(), "boss@example.com")
	if err != nil {
		t.Fatalf("expected allowlist entry, got %v", err)
	}
	if !entry.IsActive {
		t.Fatalf("bootstrap entry must be active")
	}
}

func TestResolveRole_ActiveAllowlistEntry(t *testing.T) {
	f := newFixture(t)
	f.repo.allowlist["ana@example.com"] = entity.AllowlistEntry{Email: "ana@example.com", IsActive: true}

	role := f.uc.resolveRole(context.Background(), entity.Identity{ID: 10, Email: "ana@example.com"})

	if role != entity.RoleAdmin {
		t.Fatalf("expected admin, got %v", role)
	}
}

func TestResolveRole_InactiveAllowlistEntry(t *testing.T) {
	f := newFixture(t)
	f.repo.allowlist["ana@example.com"] = entity.AllowlistEntry{Email: "ana@example.com", IsActive: false}

	role := f.uc.resolveRole(context.Background(), entity.Identity{ID: 10, Email: "ana@example.com"})

	if role != entity.RoleClient {
		t.Fatalf("expected client, got %v", role)
	}
}

func TestResolveRole_NoEmail(t *testing.T) {
	f := newFixture(t)

	role := f.uc.resolveRole(context.Background(), entity.Identity{ID: 10, Phone: "+6281234567890"})

	if role != entity.RoleClient {
		t.Fatalf("expected client, got %v", role)
	}
}

func TestResolveRole_CachesDecision(t *testing.T) {
	f := newFixture(t)
	f.repo.allowlist["ana@example.com"] = entity.AllowlistEntry{Email: "ana@example.com", IsActive: true}

	ident := entity.Identity{ID: 10, Email: "ana@example.com"}
	if got := f.uc.resolveRole(context.Background(), ident); got != entity.RoleAdmin {
		t.Fatalf("expected admin, got %v", got)
	}

	// Demotion is invisible until the cache entry is dropped.
	f.repo.allowlist["ana@example.com"] = entity.AllowlistEntry{Email: "ana@example.com", IsActive: false}
	if got := f.uc.resolveRole(context.Background(), ident); got != entity.RoleAdmin {
		t.Fatalf("expected cached admin, got %v", got)
	}

	f.roles.Invalidate(10)
	if got := f.uc.resolveRole(context.Background(), ident); got != entity.RoleClient {
		t.Fatalf("expected client after invalidation, got %v", got)
	}
}

func TestResolveRole_LookupFailureDegradesToClient(t *testing.T) {
	// A broken allowlist read must never mint an admin.
	f := newFixture(t)
	f.repo.allowlistErr = errors.New("connection reset")

	role := f.uc.resolveRole(context.Background(), entity.Identity{ID: 10, Email: "ana@example.com"})

	if role != entity.RoleClient {
		t.Fatalf("expected client on lookup failure, got %v", role)
	}
}
