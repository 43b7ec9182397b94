package db

import (
	"context"

	"github.com/otpgate/otpgate/internal/auth/entity"
)

const queryGetAllowlistEntry = `
SELECT email, is_active
FROM auth_admin_allowlist
WHERE email = $1`

func (s *DB) GetAllowlistEntry(ctx context.Context, email string) (entry entity.AllowlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "GetAllowlistEntry")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryGetAllowlistEntry, email)
	err = s.mapError(row.Scan(&entry.Email, &entry.IsActive))
	return entry, err
}

const queryUpsertAllowlistEntry = `
INSERT INTO auth_admin_allowlist (email, is_active)
VALUES ($1, $2)
ON CONFLICT (email) DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = now()`

func (s *DB) UpsertAllowlistEntry(ctx context.Context, entry entity.AllowlistEntry) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertAllowlistEntry")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryUpsertAllowlistEntry, entry.Email, entry.IsActive)
	return s.mapError(err)
}
