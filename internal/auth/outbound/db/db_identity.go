package db

import (
	"context"

	"github.com/otpgate/otpgate/internal/auth/entity"
)

const queryGetIdentityByPhone = `
SELECT id, full_name, phone, email, is_verified, created_at, updated_at
FROM auth_identities
WHERE phone = $1`

func (s *DB) GetIdentityByPhone(ctx context.Context, phone string) (ident entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByPhone")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryGetIdentityByPhone, phone)
	err = s.mapError(row.Scan(
		&ident.ID,
		&ident.Name,
		&ident.Phone,
		&ident.Email,
		&ident.IsVerified,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	))
	return ident, err
}

const queryGetIdentityByID = `
SELECT id, full_name, phone, email, is_verified, created_at, updated_at
FROM auth_identities
WHERE id = $1`

func (s *DB) GetIdentityByID(ctx context.Context, id int64) (ident entity.Identity, err error) {
	ctx, span := s.startSpan(ctx, "GetIdentityByID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryGetIdentityByID, id)
	err = s.mapError(row.Scan(
		&ident.ID,
		&ident.Name,
		&ident.Phone,
		&ident.Email,
		&ident.IsVerified,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	))
	return ident, err
}

const queryCreateIdentity = `
INSERT INTO auth_identities (id, full_name, phone, email)
VALUES ($1, $2, $3, $4)`

func (s *DB) CreateIdentity(ctx context.Context, user entity.NewIdentity) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateIdentity, user.ID, user.Name, user.Phone, user.Email)
	return s.mapError(err)
}

// Coalesce semantics: a stored non-empty column always wins over the
// incoming value, so repeated requests can only fill gaps.
const queryEnrichIdentity = `
UPDATE auth_identities
SET full_name  = CASE WHEN full_name = '' THEN $2 ELSE full_name END,
    email      = CASE WHEN email = '' THEN $3 ELSE email END,
    updated_at = now()
WHERE id = $1`

func (s *DB) EnrichIdentity(ctx context.Context, enrich entity.EnrichIdentity) (err error) {
	ctx, span := s.startSpan(ctx, "EnrichIdentity")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryEnrichIdentity, enrich.ID, enrich.Name, enrich.Email)
	return s.mapError(err)
}

const queryMarkIdentityVerified = `
UPDATE auth_identities
SET is_verified = TRUE, updated_at = now()
WHERE id = $1`

func (s *DB) MarkIdentityVerified(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkIdentityVerified")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryMarkIdentityVerified, id)
	return s.mapError(err)
}
