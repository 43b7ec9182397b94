package entity

import (
	"time"

	"github.com/otpgate/otpgate/internal/pkg/valueobject"
)

type Identity struct {
	ID         int64
	Name       string
	Phone      string
	Email      string
	IsVerified bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasContact reports whether at least one reachable destination is set.
// An identity row must never exist without one.
func (i Identity) HasContact() bool {
	return i.Phone != "" || i.Email != ""
}

type NewIdentity struct {
	ID    int64
	Name  string
	Phone string
	Email string
}

// EnrichIdentity carries coalesce-only updates: empty fields are skipped,
// populated fields on the stored row are never overwritten.
type EnrichIdentity struct {
	ID    int64
	Name  string
	Email string
}

type Challenge struct {
	ID          int64
	UserID      int64
	Channel     Channel
	Destination string
	CodeHash    string
	Salt        string
	Attempts    int32
	CreatedAt   time.Time
	ExpiresAt   time.Time
	ConsumedAt  *time.Time
	Metadata    valueobject.JSONMap
}

// Consumed reports whether the challenge has already been spent.
func (c Challenge) Consumed() bool {
	return c.ConsumedAt != nil
}

// Expired reports whether the challenge TTL has passed at the given time.
func (c Challenge) Expired(at time.Time) bool {
	return at.After(c.ExpiresAt)
}

type NewChallenge struct {
	ID          int64
	UserID      int64
	Channel     Channel
	Destination string
	CodeHash    string
	Salt        string
	ExpiresAt   time.Time
	Metadata    valueobject.JSONMap
}

type Session struct {
	ID        int64
	UserID    int64
	TokenID   string
	TokenHash string
	IssuedAt  time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	Metadata  valueobject.JSONMap
}

type AllowlistEntry struct {
	Email    string
	IsActive bool
}
