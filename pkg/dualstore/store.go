// Copyright 2025 Certen Protocol
//
// DualStore is the unified facade over the optional relational primary and
// the always-present embedded secondary. Every write goes to the secondary,
// which is the source of truth for ownership and for the nonce/idempotency
// ledger; the primary is a best-effort mirror used for operator queries and
// reporting. A primary failure is absorbed and counted, never surfaced to
// the caller, per the "absorb and count" fallback contract.

package dualstore

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/keycortex/wallet-service/pkg/database"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

// bindingPrimary is the subset of *database.BindingRepository's behavior the
// dual-store layer depends on. It is an interface, rather than the concrete
// repository type, so tests can substitute a fault-injecting double and
// exercise the fallback-counter paths without a real database/sql
// connection.
type bindingPrimary interface {
	Upsert(ctx context.Context, b domain.Binding) error
	Get(ctx context.Context, address string) (domain.Binding, error)
}

// challengePrimary is the subset of *database.ChallengeRepository's
// behavior the dual-store layer depends on. See bindingPrimary.
type challengePrimary interface {
	Persist(ctx context.Context, c domain.Challenge) error
	Consume(ctx context.Context, nonce string, now time.Time) (domain.ConsumeOutcome, error)
}

// auditPrimary is the subset of *database.AuditRepository's behavior the
// dual-store layer depends on. See bindingPrimary.
type auditPrimary interface {
	Insert(ctx context.Context, ev domain.AuditEvent) error
	List(ctx context.Context, filter domain.AuditFilter, limit int) ([]domain.AuditEvent, error)
}

// DualStore composes the primary relational repositories (optional) with
// the embedded secondary store (mandatory) and tracks how often the
// primary path was bypassed.
type DualStore struct {
	client     *database.Client
	bindings   bindingPrimary
	challenges challengePrimary
	audit      auditPrimary

	secondary *secondary
	counters  *FallbackCounters
	logger    *log.Logger
}

// New constructs a DualStore. client may be nil, in which case the store
// runs in embedded-only mode and every operation class is unconditionally
// served by the secondary.
func New(kv kvdb.KV, client *database.Client, logger *log.Logger) *DualStore {
	if logger == nil {
		logger = log.New(log.Writer(), "[dualstore] ", log.LstdFlags)
	}
	ds := &DualStore{
		secondary: newSecondary(kv),
		counters:  &FallbackCounters{},
		logger:    logger,
	}
	if client != nil {
		ds.client = client
		ds.bindings = database.NewBindingRepository(client)
		ds.challenges = database.NewChallengeRepository(client)
		ds.audit = database.NewAuditRepository(client)
	}
	return ds
}

// Counters exposes the fallback counter set, surfaced via /startupz and
// /metrics.
func (d *DualStore) Counters() *FallbackCounters {
	return d.counters
}

// PrimaryHealth reports the live connectivity state of the relational
// primary, for /health. It returns nil in embedded-only mode, since there
// is no primary to report on.
func (d *DualStore) PrimaryHealth(ctx context.Context) *database.HealthStatus {
	if d.client == nil {
		return nil
	}
	status, err := d.client.Health(ctx)
	if err != nil {
		d.logger.Printf("primary health check failed: %v", err)
		return &database.HealthStatus{Healthy: false, Error: err.Error()}
	}
	return status
}

// --- bindings ---

// UpsertBinding records (or replaces) the owner of a wallet address.
func (d *DualStore) UpsertBinding(ctx context.Context, b domain.Binding) error {
	if d.bindings != nil {
		if err := d.bindings.Upsert(ctx, b); err != nil {
			d.counters.recordBindingWriteFailure()
			d.logger.Printf("primary binding upsert failed, absorbed: %v", err)
		}
	}
	return d.secondary.putBinding(b)
}

// GetBinding returns the binding for address. The primary is tried first;
// on primary failure (not merely a primary miss) the read falls through to
// the secondary and recordBindingReadFailure() is incremented to reflect
// that the primary failed and the embedded store served the request. The
// embedded store remains authoritative: a primary miss falls through
// silently, and a secondary error is returned as-is without touching the
// fallback counter, since nothing was served by either store.
func (d *DualStore) GetBinding(ctx context.Context, address string) (*domain.Binding, error) {
	if d.bindings != nil {
		b, err := d.bindings.Get(ctx, address)
		switch {
		case err == nil:
			return &b, nil
		case errors.Is(err, database.ErrNotFound):
			// Primary doesn't have it either; the secondary may still.
		default:
			d.counters.recordBindingReadFailure()
			d.logger.Printf("primary binding read failed, falling back to secondary: %v", err)
		}
	}
	return d.secondary.getBinding(address)
}

// --- challenges ---

// IssueChallenge creates a new single-use challenge with the standard TTL.
func (d *DualStore) IssueChallenge(ctx context.Context, nonce string, now time.Time) (*domain.Challenge, error) {
	c, err := d.secondary.issueChallenge(nonce, now)
	if err != nil {
		return nil, err
	}
	if d.challenges != nil {
		if err := d.challenges.Persist(ctx, *c); err != nil {
			d.counters.recordChallengePersistFailure()
			d.logger.Printf("primary challenge persist failed, absorbed: %v", err)
		}
	}
	return c, nil
}

// ConsumeChallenge atomically consumes a challenge on the embedded store
// (the authoritative path) and mirrors the consume onto the primary on a
// best-effort basis.
func (d *DualStore) ConsumeChallenge(ctx context.Context, nonce string, now time.Time) (domain.ConsumeOutcome, error) {
	outcome, err := d.secondary.consumeChallenge(nonce, now)
	if err != nil {
		return "", err
	}
	if d.challenges != nil {
		if _, err := d.challenges.Consume(ctx, nonce, now); err != nil {
			d.counters.recordChallengeMarkUsedFailure()
			d.logger.Printf("primary challenge consume failed, absorbed: %v", err)
		}
	}
	return outcome, nil
}

// --- audit ---

// AppendAudit records an audit event on both stores; the embedded copy is
// authoritative and always succeeds unless the embedded store itself is
// broken.
func (d *DualStore) AppendAudit(ctx context.Context, ev domain.AuditEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := d.secondary.appendAudit(ev); err != nil {
		return err
	}
	if d.audit != nil {
		if err := d.audit.Insert(ctx, ev); err != nil {
			d.counters.recordAuditWriteFailure()
			d.logger.Printf("primary audit insert failed, absorbed: %v", err)
		}
	}
	return nil
}

// ListAudit returns audit events matching filter, merged from both stores
// and de-duplicated by event id, ordered oldest-first, capped at limit
// (which callers must clamp to domain.MaxAuditLimit).
func (d *DualStore) ListAudit(ctx context.Context, filter domain.AuditFilter, limit int) ([]domain.AuditEvent, error) {
	events, err := d.secondary.listAudit(filter, 0)
	if err != nil {
		// The secondary itself is broken: nothing was served by either
		// store, so this is not the "primary failed, secondary served"
		// event the fallback counters track. Return the bare error.
		return nil, err
	}

	if d.audit != nil {
		primaryEvents, err := d.audit.List(ctx, filter, 0)
		if err != nil {
			d.counters.recordAuditReadFailure()
			d.logger.Printf("primary audit list failed, absorbed: %v", err)
		} else {
			events = mergeAuditEvents(events, primaryEvents)
		}
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// mergeAuditEvents de-duplicates by event id, preferring the secondary
// (authoritative) copy of any event present in both stores but tagging its
// Source "union" to record that the primary mirror had it too.
func mergeAuditEvents(secondaryEvents, primaryEvents []domain.AuditEvent) []domain.AuditEvent {
	indexByID := make(map[string]int, len(secondaryEvents))
	merged := make([]domain.AuditEvent, 0, len(secondaryEvents)+len(primaryEvents))
	for _, ev := range secondaryEvents {
		indexByID[ev.EventID] = len(merged)
		merged = append(merged, ev)
	}
	for _, ev := range primaryEvents {
		if idx, ok := indexByID[ev.EventID]; ok {
			merged[idx].Source = "union"
			continue
		}
		indexByID[ev.EventID] = len(merged)
		merged = append(merged, ev)
	}
	sortAuditEvents(merged)
	return merged
}

func sortAuditEvents(events []domain.AuditEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].EventID < events[j].EventID
	})
}
