// Copyright 2025 Certen Protocol
//
// Package chainadapter defines the interface every configured-chain backend
// implements, plus a single deterministic, in-process implementation for
// `flowcortex-l1`. A real RPC-backed adapter (e.g. an ethclient-style
// client) can be substituted later without changing callers.

package chainadapter

import "context"

// Status is the lifecycle state of a submitted transaction.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// SubmitRequest carries an already-signed transaction: canonical payload,
// hex signature, and typed fields, as handed off by the submit ledger.
type SubmitRequest struct {
	From      string
	To        string
	Amount    string
	Asset     string
	Chain     string
	Nonce     uint64
	Payload   string
	Signature string
}

// Adapter is the contract a chain backend must satisfy.
type Adapter interface {
	// ChainID is the constant slug this adapter serves.
	ChainID() string
	// SubmitTransaction must be idempotent on the same nonce: resubmitting
	// an already-accepted nonce returns the same tx hash.
	SubmitTransaction(ctx context.Context, req SubmitRequest) (txHash string, accepted bool, err error)
	// GetBalance returns a decimal string in smallest units; "0" for
	// unknown address/asset combinations.
	GetBalance(ctx context.Context, address, asset string) (string, error)
	// GetTransactionStatus reports the current lifecycle state.
	GetTransactionStatus(ctx context.Context, txHash string) (Status, bool, error)
}
