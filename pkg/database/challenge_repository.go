// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/keycortex/wallet-service/pkg/domain"
)

// ChallengeRepository is the primary-store mirror of issued challenges.
// It uses a conditional UPDATE for consume so a concurrent pair of requests
// racing on the same nonce can only have one winner.
type ChallengeRepository struct {
	db *sql.DB
}

// NewChallengeRepository constructs a ChallengeRepository over client's pool.
func NewChallengeRepository(client *Client) *ChallengeRepository {
	return &ChallengeRepository{db: client.DB()}
}

// Persist records a freshly issued challenge.
func (r *ChallengeRepository) Persist(ctx context.Context, c domain.Challenge) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO challenges (nonce, issued_at, expires_at, used, used_at)
		VALUES ($1, $2, $3, FALSE, NULL)
		ON CONFLICT (nonce) DO NOTHING
	`, c.Nonce, c.IssuedAt, c.ExpiresAt)
	return err
}

// Consume performs the atomic compare-and-set: only an unused, unexpired
// row transitions to used=true. The returned outcome distinguishes why a
// consume failed from genuine DB errors.
func (r *ChallengeRepository) Consume(ctx context.Context, nonce string, now time.Time) (domain.ConsumeOutcome, error) {
	var used bool
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT used, expires_at FROM challenges WHERE nonce = $1
	`, nonce).Scan(&used, &expiresAt)
	if err == sql.ErrNoRows {
		return domain.ConsumeNotFound, nil
	}
	if err != nil {
		return "", err
	}
	if used {
		return domain.ConsumeAlreadyUsed, nil
	}
	if !now.Before(expiresAt) {
		return domain.ConsumeExpired, nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE challenges SET used = TRUE, used_at = $2
		WHERE nonce = $1 AND used = FALSE AND expires_at > $2
	`, nonce, now)
	if err != nil {
		return "", err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if rows == 0 {
		// Lost the race against a concurrent consumer between the read
		// above and this conditional update.
		return domain.ConsumeAlreadyUsed, nil
	}
	return domain.ConsumeOK, nil
}
