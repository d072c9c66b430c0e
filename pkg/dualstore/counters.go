// Copyright 2025 Certen Protocol

package dualstore

import "sync/atomic"

// FallbackCounters are monotonically non-decreasing counts of how many
// times the primary store failed and the secondary served the request,
// partitioned by operation class.
type FallbackCounters struct {
	primaryUnavailable        atomic.Uint64
	bindingReadFailures       atomic.Uint64
	bindingWriteFailures      atomic.Uint64
	auditReadFailures         atomic.Uint64
	auditWriteFailures        atomic.Uint64
	challengePersistFailures  atomic.Uint64
	challengeMarkUsedFailures atomic.Uint64
}

// FallbackCounterSnapshot is a point-in-time, JSON-serializable view.
type FallbackCounterSnapshot struct {
	PrimaryUnavailable        uint64 `json:"primary_unavailable"`
	BindingReadFailures       uint64 `json:"binding_read_failures"`
	BindingWriteFailures      uint64 `json:"binding_write_failures"`
	AuditReadFailures         uint64 `json:"audit_read_failures"`
	AuditWriteFailures        uint64 `json:"audit_write_failures"`
	ChallengePersistFailures  uint64 `json:"challenge_persist_failures"`
	ChallengeMarkUsedFailures uint64 `json:"challenge_mark_used_failures"`
	Total                     uint64 `json:"total"`
}

func (f *FallbackCounters) recordPrimaryUnavailable()       { f.primaryUnavailable.Add(1) }
func (f *FallbackCounters) recordBindingReadFailure()       { f.bindingReadFailures.Add(1) }
func (f *FallbackCounters) recordBindingWriteFailure()      { f.bindingWriteFailures.Add(1) }
func (f *FallbackCounters) recordAuditReadFailure()         { f.auditReadFailures.Add(1) }
func (f *FallbackCounters) recordAuditWriteFailure()        { f.auditWriteFailures.Add(1) }
func (f *FallbackCounters) recordChallengePersistFailure()  { f.challengePersistFailures.Add(1) }
func (f *FallbackCounters) recordChallengeMarkUsedFailure() { f.challengeMarkUsedFailures.Add(1) }

// Snapshot returns the current counter values plus their sum.
func (f *FallbackCounters) Snapshot() FallbackCounterSnapshot {
	s := FallbackCounterSnapshot{
		PrimaryUnavailable:        f.primaryUnavailable.Load(),
		BindingReadFailures:       f.bindingReadFailures.Load(),
		BindingWriteFailures:      f.bindingWriteFailures.Load(),
		AuditReadFailures:         f.auditReadFailures.Load(),
		AuditWriteFailures:        f.auditWriteFailures.Load(),
		ChallengePersistFailures:  f.challengePersistFailures.Load(),
		ChallengeMarkUsedFailures: f.challengeMarkUsedFailures.Load(),
	}
	s.Total = s.PrimaryUnavailable + s.BindingReadFailures + s.BindingWriteFailures +
		s.AuditReadFailures + s.AuditWriteFailures + s.ChallengePersistFailures +
		s.ChallengeMarkUsedFailures
	return s
}
