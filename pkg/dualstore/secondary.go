// Copyright 2025 Certen Protocol
//
// The embedded secondary store. Prefixed-key layout per the wire spec:
//   wallet-binding:{addr}   -> Binding
//   challenge:{nonce}       -> Challenge
//   audit:{ts}:{uuid}       -> AuditEvent
//
// Challenge consume is made atomic with a per-nonce critical section (a
// sharded set of mutexes keyed by nonce), never a bare read-then-write.

package dualstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

const (
	prefixBinding   = "wallet-binding:"
	prefixChallenge = "challenge:"
	prefixAudit     = "audit:"
)

type secondary struct {
	kv kvdb.KV

	nonceLocksMu sync.Mutex
	nonceLocks   map[string]*sync.Mutex
}

func newSecondary(kv kvdb.KV) *secondary {
	return &secondary{kv: kv, nonceLocks: make(map[string]*sync.Mutex)}
}

func (s *secondary) lockForNonce(nonce string) *sync.Mutex {
	s.nonceLocksMu.Lock()
	defer s.nonceLocksMu.Unlock()
	m, ok := s.nonceLocks[nonce]
	if !ok {
		m = &sync.Mutex{}
		s.nonceLocks[nonce] = m
	}
	return m
}

// --- bindings ---

func (s *secondary) getBinding(addr string) (*domain.Binding, error) {
	raw, err := s.kv.Get([]byte(prefixBinding + addr))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var b domain.Binding
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *secondary) putBinding(b domain.Binding) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.kv.Set([]byte(prefixBinding+b.WalletAddress), raw)
}

// --- challenges ---

func (s *secondary) issueChallenge(nonce string, now time.Time) (*domain.Challenge, error) {
	c := domain.Challenge{Nonce: nonce, IssuedAt: now, ExpiresAt: now.Add(domain.ChallengeTTL)}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := s.kv.Set([]byte(prefixChallenge+nonce), raw); err != nil {
		return nil, err
	}
	return &c, nil
}

// consumeChallenge atomically checks existence, expiry, and used-state, and
// marks the challenge used in the same per-nonce critical section.
func (s *secondary) consumeChallenge(nonce string, now time.Time) (domain.ConsumeOutcome, error) {
	lock := s.lockForNonce(nonce)
	lock.Lock()
	defer lock.Unlock()

	raw, err := s.kv.Get([]byte(prefixChallenge + nonce))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return domain.ConsumeNotFound, nil
	}
	var c domain.Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return "", err
	}
	if c.Used {
		return domain.ConsumeAlreadyUsed, nil
	}
	if !now.Before(c.ExpiresAt) {
		return domain.ConsumeExpired, nil
	}

	c.Used = true
	c.UsedAt = now
	updated, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set([]byte(prefixChallenge+nonce), updated); err != nil {
		return "", err
	}
	return domain.ConsumeOK, nil
}

// --- audit ---

func auditKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixAudit, ts.UnixNano(), id))
}

func (s *secondary) appendAudit(ev domain.AuditEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.kv.Set(auditKey(ev.Timestamp, ev.EventID), raw)
}

func (s *secondary) listAudit(filter domain.AuditFilter, limit int) ([]domain.AuditEvent, error) {
	pairs, err := s.kv.Scan([]byte(prefixAudit))
	if err != nil {
		return nil, err
	}
	events := make([]domain.AuditEvent, 0, len(pairs))
	for _, p := range pairs {
		var ev domain.AuditEvent
		if err := json.Unmarshal(p.Value, &ev); err != nil {
			continue
		}
		if !matchesFilter(ev, filter) {
			continue
		}
		ev.Source = "secondary"
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].EventID < events[j].EventID
	})
	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

func matchesFilter(ev domain.AuditEvent, f domain.AuditFilter) bool {
	if f.WalletAddress != "" && ev.WalletAddress != f.WalletAddress {
		return false
	}
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && ev.EventType != f.EventType {
		return false
	}
	return true
}
