package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/otpgate/otpgate/internal/auth/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

const queryCreateChallenge = `
INSERT INTO auth_otp_challenges (id, user_id, channel, destination, code_hash, salt, expires_at, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (s *DB) CreateChallenge(ctx context.Context, chal entity.NewChallenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateChallenge,
		chal.ID,
		chal.UserID,
		chal.Channel,
		chal.Destination,
		chal.CodeHash,
		chal.Salt,
		chal.ExpiresAt,
		chal.Metadata,
	)
	return s.mapError(err)
}

const queryGetLatestChallenge = `
SELECT id, user_id, channel, destination, code_hash, salt, attempts, created_at, expires_at, consumed_at, metadata
FROM auth_otp_challenges
WHERE user_id = $1 AND channel = $2
ORDER BY created_at DESC, id DESC
LIMIT 1`

// GetLatestChallenge returns the most recent challenge for the (user, channel)
// pair regardless of its consumed or expired state. Older rows stay in the
// ledger but are never looked at again.
func (s *DB) GetLatestChallenge(ctx context.Context, userID int64, ch entity.Channel) (chal entity.Challenge, err error) {
	ctx, span := s.startSpan(ctx, "GetLatestChallenge")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryGetLatestChallenge, userID, ch)
	err = s.mapError(scanChallenge(row, &chal))
	return chal, err
}

const queryConsumeChallenge = `
UPDATE auth_otp_challenges
SET consumed_at = $2
WHERE id = $1 AND consumed_at IS NULL`

// ConsumeChallenge spends a challenge exactly once. The conditional update is
// the linearization point: of any number of concurrent callers holding the
// same row, exactly one sees an affected row and the rest get ErrConflict.
func (s *DB) ConsumeChallenge(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallenge")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryConsumeChallenge, id, at)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}
	return nil
}

// ConsumeChallengePair spends two challenges in a single transaction. Either
// both rows flip to consumed or neither does, so a dual verification can
// never burn one leg while the other stays open.
func (s *DB) ConsumeChallengePair(ctx context.Context, firstID, secondID int64, at time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "ConsumeChallengePair")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	for _, id := range []int64{firstID, secondID} {
		tag, err := tx.Exec(ctx, queryConsumeChallenge, id, at)
		if err != nil {
			return s.mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return goerror.ErrConflict
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

const queryIncrementChallengeAttempts = `
UPDATE auth_otp_challenges
SET attempts = attempts + 1
WHERE id = $1
RETURNING attempts`

func (s *DB) IncrementChallengeAttempts(ctx context.Context, id int64) (attempts int32, err error) {
	ctx, span := s.startSpan(ctx, "IncrementChallengeAttempts")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, queryIncrementChallengeAttempts, id)
	err = s.mapError(row.Scan(&attempts))
	return attempts, err
}

func scanChallenge(row pgx.Row, chal *entity.Challenge) error {
	return row.Scan(
		&chal.ID,
		&chal.UserID,
		&chal.Channel,
		&chal.Destination,
		&chal.CodeHash,
		&chal.Salt,
		&chal.Attempts,
		&chal.CreatedAt,
		&chal.ExpiresAt,
		&chal.ConsumedAt,
		&chal.Metadata,
	)
}
