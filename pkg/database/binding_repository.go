// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/keycortex/wallet-service/pkg/domain"
)

// BindingRepository is the primary-store mirror of wallet bindings.
type BindingRepository struct {
	db *sql.DB
}

// NewBindingRepository constructs a BindingRepository over client's pool.
func NewBindingRepository(client *Client) *BindingRepository {
	return &BindingRepository{db: client.DB()}
}

// Upsert replaces any existing binding for the wallet address.
func (r *BindingRepository) Upsert(ctx context.Context, b domain.Binding) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bindings (wallet_address, user_id, chain, verified_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (wallet_address) DO UPDATE
		SET user_id = EXCLUDED.user_id, chain = EXCLUDED.chain, verified_at = EXCLUDED.verified_at
	`, b.WalletAddress, b.UserID, b.Chain, b.VerifiedAt)
	return err
}

// Get returns the binding for address, or ErrNotFound.
func (r *BindingRepository) Get(ctx context.Context, address string) (domain.Binding, error) {
	var b domain.Binding
	var verifiedAt time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT wallet_address, user_id, chain, verified_at FROM bindings WHERE wallet_address = $1
	`, address).Scan(&b.WalletAddress, &b.UserID, &b.Chain, &verifiedAt)
	if err == sql.ErrNoRows {
		return domain.Binding{}, ErrNotFound
	}
	if err != nil {
		return domain.Binding{}, err
	}
	b.VerifiedAt = verifiedAt
	return b, nil
}
