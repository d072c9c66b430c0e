// Copyright 2025 Certen Protocol

package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/keycortex/wallet-service/pkg/domain"
)

// AuditRepository is the primary-store mirror of the audit log.
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository constructs an AuditRepository over client's pool.
func NewAuditRepository(client *Client) *AuditRepository {
	return &AuditRepository{db: client.DB()}
}

// Insert appends a single audit event. Audit rows are never updated.
func (r *AuditRepository) Insert(ctx context.Context, ev domain.AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_events (event_id, event_type, wallet_address, user_id, chain, outcome, message, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`, ev.EventID, ev.EventType, ev.WalletAddress, ev.UserID, ev.Chain, string(ev.Outcome), ev.Message, ev.Timestamp)
	return err
}

// List returns events matching filter, most recent last, capped at limit
// (capped again at domain.MaxAuditLimit by the caller).
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter, limit int) ([]domain.AuditEvent, error) {
	var b strings.Builder
	b.WriteString(`SELECT event_id, event_type, wallet_address, user_id, chain, outcome, message, occurred_at FROM audit_events WHERE 1=1`)
	args := make([]interface{}, 0, 4)
	n := 0

	if filter.WalletAddress != "" {
		n++
		args = append(args, filter.WalletAddress)
		b.WriteString(" AND wallet_address = $" + strconv.Itoa(n))
	}
	if filter.UserID != "" {
		n++
		args = append(args, filter.UserID)
		b.WriteString(" AND user_id = $" + strconv.Itoa(n))
	}
	if filter.EventType != "" {
		n++
		args = append(args, filter.EventType)
		b.WriteString(" AND event_type = $" + strconv.Itoa(n))
	}
	b.WriteString(" ORDER BY occurred_at ASC, event_id ASC")
	if limit > 0 {
		n++
		args = append(args, limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(n))
	}

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		var outcome string
		if err := rows.Scan(&ev.EventID, &ev.EventType, &ev.WalletAddress, &ev.UserID, &ev.Chain, &outcome, &ev.Message, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.Outcome = domain.AuditOutcome(outcome)
		ev.Source = "primary"
		events = append(events, ev)
	}
	return events, rows.Err()
}
