// Copyright 2025 Certen Protocol

package chainadapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// FlowCortexChainID is the one chain slug enabled in the MVP.
const FlowCortexChainID = "flowcortex-l1"

// FlowCortex is a deterministic, in-process simulation of the
// flowcortex-l1 chain: no RPC, no consensus, just enough bookkeeping to
// exercise the submit/balance/status contract end to end.
type FlowCortex struct {
	mu sync.Mutex

	// seenNonce maps "from:nonce" to the tx hash already produced for it,
	// making SubmitTransaction idempotent on (from, nonce).
	seenNonce map[string]string
	txs       map[string]*txRecord
	balances  map[string]string
}

type txRecord struct {
	from, to, amount, asset string
	status                  Status
	accepted                bool
}

// NewFlowCortex constructs an empty simulated chain.
func NewFlowCortex() *FlowCortex {
	return &FlowCortex{
		seenNonce: make(map[string]string),
		txs:       make(map[string]*txRecord),
		balances:  make(map[string]string),
	}
}

// ChainID implements Adapter.
func (c *FlowCortex) ChainID() string { return FlowCortexChainID }

// SubmitTransaction derives a deterministic hash from the canonical
// payload and signature, records the transaction as submitted, and
// returns the same hash for a repeat call with the same from/nonce.
func (c *FlowCortex) SubmitTransaction(_ context.Context, req SubmitRequest) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := fmt.Sprintf("%s:%d", req.From, req.Nonce)
	if hash, ok := c.seenNonce[key]; ok {
		return hash, true, nil
	}

	sum := sha256.Sum256([]byte(req.Payload + req.Signature))
	txHash := "0x" + hex.EncodeToString(sum[:])

	c.seenNonce[key] = txHash
	c.txs[txHash] = &txRecord{
		from:     req.From,
		to:       req.To,
		amount:   req.Amount,
		asset:    req.Asset,
		status:   StatusSubmitted,
		accepted: true,
	}
	return txHash, true, nil
}

// GetBalance returns "0" for any address/asset never credited.
func (c *FlowCortex) GetBalance(_ context.Context, address, asset string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bal, ok := c.balances[address+":"+asset]
	if !ok {
		return "0", nil
	}
	return bal, nil
}

// SetBalance is a test/ops seam for crediting a simulated balance; it has
// no corresponding HTTP surface.
func (c *FlowCortex) SetBalance(address, asset, amount string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances[address+":"+asset] = amount
}

// GetTransactionStatus reports submitted for any transaction this adapter
// has not been told to advance.
func (c *FlowCortex) GetTransactionStatus(_ context.Context, txHash string) (Status, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.txs[txHash]
	if !ok {
		return "", false, nil
	}
	return rec.status, rec.accepted, nil
}

// AdvanceStatus moves a known transaction to confirmed or failed; used by
// tests and by an operator seam that is not part of the public API.
func (c *FlowCortex) AdvanceStatus(txHash string, status Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.txs[txHash]; ok {
		rec.status = status
	}
}
