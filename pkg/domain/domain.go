// Copyright 2025 Certen Protocol
//
// Package domain holds the shared entity types and closed-set enums used
// across the keystore, dual-store layer, and primary repositories. Keeping
// them in a leaf package lets pkg/database (primary SQL repositories) and
// pkg/dualstore (the unified facade) both depend on the same shapes without
// an import cycle.
package domain

import "time"

// WalletRecord is the keystore's persisted mapping from address to key
// material and metadata.
type WalletRecord struct {
	Address   string    `json:"wallet_address"`
	PublicKey []byte    `json:"public_key"`
	Label     string    `json:"label,omitempty"`
	Chain     string    `json:"chain"`
	CreatedAt time.Time `json:"created_at"`
}

// Binding is a wallet-to-user-to-chain mapping.
type Binding struct {
	WalletAddress string    `json:"wallet_address"`
	UserID        string    `json:"user_id"`
	Chain         string    `json:"chain"`
	VerifiedAt    time.Time `json:"verified_at"`
}

// ChallengeTTL is the fixed lifetime of an issued challenge.
const ChallengeTTL = 300 * time.Second

// Challenge is a single-use, TTL-bounded auth nonce.
type Challenge struct {
	Nonce     string    `json:"nonce"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used"`
	UsedAt    time.Time `json:"used_at,omitempty"`
}

// ConsumeOutcome is the result of attempting to consume a challenge.
type ConsumeOutcome string

const (
	ConsumeOK          ConsumeOutcome = "ok"
	ConsumeNotFound    ConsumeOutcome = "not_found"
	ConsumeExpired     ConsumeOutcome = "expired"
	ConsumeAlreadyUsed ConsumeOutcome = "already_used"
)

// AuditOutcome is the closed set of outcomes an audit event may record.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditDenied  AuditOutcome = "denied"
	AuditError   AuditOutcome = "error"
)

// Closed set of audit event types.
const (
	EventAuthBind              = "auth_bind"
	EventAuthVerify            = "auth_verify"
	EventOpsAccess             = "ops_access"
	EventProofCortexCommitment = "proofcortex_commitment"
)

// AuditEvent is an append-only record of a mutating or privileged operation.
type AuditEvent struct {
	EventID       string       `json:"event_id"`
	EventType     string       `json:"event_type"`
	WalletAddress string       `json:"wallet_address,omitempty"`
	UserID        string       `json:"user_id,omitempty"`
	Chain         string       `json:"chain,omitempty"`
	Outcome       AuditOutcome `json:"outcome"`
	Message       string       `json:"message,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`

	// Source records which store an event was read back from during a
	// dual-store union read ("primary", "secondary", or "union" once
	// de-duplicated). It is set by the dual-store layer, never by a
	// caller, and is never serialized to API responses.
	Source string `json:"-"`
}

// AuditFilter narrows an audit query.
type AuditFilter struct {
	WalletAddress string
	UserID        string
	EventType     string
}

// MaxAuditLimit is the hard cap on a single audit query's result size.
const MaxAuditLimit = 500

// TransactionStatus is the lifecycle state of a submitted transaction.
// Status transitions only forward: submitted -> confirmed | failed.
type TransactionStatus string

const (
	TxSubmitted TransactionStatus = "submitted"
	TxConfirmed TransactionStatus = "confirmed"
	TxFailed    TransactionStatus = "failed"
)

// SubmittedTransaction is a record of a transaction accepted by the chain
// adapter.
type SubmittedTransaction struct {
	TxHash      string            `json:"tx_hash"`
	From        string            `json:"from"`
	To          string            `json:"to"`
	Amount      string            `json:"amount"`
	Asset       string            `json:"asset"`
	Chain       string            `json:"chain"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Status      TransactionStatus `json:"status"`
	Accepted    bool              `json:"accepted"`
}
