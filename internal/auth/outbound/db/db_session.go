package db

import (
	"context"
	"time"

	"github.com/otpgate/otpgate/internal/auth/entity"
)

const queryCreateSession = `
INSERT INTO auth_sessions (id, user_id, token_id, token_hash, issued_at, expires_at, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

func (s *DB) CreateSession(ctx context.Context, sess entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateSession,
		sess.ID,
		sess.UserID,
		sess.TokenID,
		sess.TokenHash,
		sess.IssuedAt,
		sess.ExpiresAt,
		sess.Metadata,
	)
	return s.mapError(err)
}

const queryGetSessionByTokenID = `
SELECT id, user_id, token_id, token_hash, issued_at, expires_at, revoked_at, metadata
FROM auth_sessions
WHERE token_id = $1`

func (s *DB) GetSessionByTokenID(ctx context.Context, tokenID string) (sess entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSessionByTokenID")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryGetSessionByTokenID, tokenID)
	err = s.mapError(row.Scan(
		&sess.ID,
		&sess.UserID,
		&sess.TokenID,
		&sess.TokenHash,
		&sess.IssuedAt,
		&sess.ExpiresAt,
		&sess.RevokedAt,
		&sess.Metadata,
	))
	return sess, err
}

const queryRevokeSession = `
UPDATE auth_sessions
SET revoked_at = $2
WHERE token_id = $1 AND revoked_at IS NULL`

func (s *DB) RevokeSession(ctx context.Context, tokenID string, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryRevokeSession, tokenID, at)
	return s.mapError(err)
}
