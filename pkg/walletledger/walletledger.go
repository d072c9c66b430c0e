// Copyright 2025 Certen Protocol
//
// Package walletledger validates and submits signed transactions: it owns
// the per-wallet monotonic nonce, the idempotency cache keyed by caller
// Idempotency-Key, and the submitted-transaction records. All three are
// embedded-only state (no relational mirror), consistent with the
// dual-store layer treating this ledger as secondary-is-truth.

package walletledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

const (
	prefixNonce       = "wallet-nonce:"
	prefixIdempotency = "idempotency:"
	prefixSubmittedTx = "submitted-tx:"
)

// SupportedAssets is the closed set of assets accepted for the MVP.
var SupportedAssets = map[string]bool{"PROOF": true, "FloweR": true}

// Failure taxonomy for submit-pipeline operations.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletKeyMismatch   = errors.New("wallet key mismatch")
	ErrNonceReplay         = errors.New("nonce replay detected")
	ErrChainUnsupported    = errors.New("unsupported chain for MVP; only flowcortex-l1 is enabled")
	ErrAssetUnsupported    = errors.New("unsupported asset for MVP; only PROOF and FloweR are enabled")
	ErrChainSubmitFailed   = errors.New("chain adapter submit failed")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// SubmitRequest is the caller-facing submit input.
type SubmitRequest struct {
	From           string
	To             string
	Amount         string
	Asset          string
	Chain          string
	Nonce          uint64
	IdempotencyKey string
}

// SubmitResponse is the frozen, idempotency-cacheable submit result.
type SubmitResponse struct {
	TxHash   string `json:"tx_hash"`
	Accepted bool   `json:"accepted"`
}

// Ledger owns the nonce, idempotency, and submitted-transaction state for
// every custodied wallet.
type Ledger struct {
	kv              kvdb.KV
	keys            *keystore.Store
	chain           chainadapter.Adapter
	configuredChain string

	walletLocksMu sync.Mutex
	walletLocks   map[string]*sync.Mutex
}

// New constructs a Ledger bound to a single configured chain adapter.
func New(kv kvdb.KV, keys *keystore.Store, chain chainadapter.Adapter, configuredChain string) *Ledger {
	return &Ledger{
		kv:              kv,
		keys:            keys,
		chain:           chain,
		configuredChain: configuredChain,
		walletLocks:     make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) lockForWallet(address string) *sync.Mutex {
	l.walletLocksMu.Lock()
	defer l.walletLocksMu.Unlock()
	m, ok := l.walletLocks[address]
	if !ok {
		m = &sync.Mutex{}
		l.walletLocks[address] = m
	}
	return m
}

// NextNonce returns the nonce the wallet must use on its next submit.
func (l *Ledger) NextNonce(address string) (uint64, error) {
	last, err := l.lastNonce(address)
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (l *Ledger) lastNonce(address string) (uint64, error) {
	raw, err := l.kv.Get([]byte(prefixNonce + address))
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 0, nil
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Submit validates and executes a transaction submission. The entire
// critical section (read nonce, validate, check/persist idempotency,
// submit, persist nonce, persist tx record) runs under a per-wallet lock
// so concurrent submits for one wallet observe a total order.
func (l *Ledger) Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error) {
	if req.From == "" || req.To == "" || req.Amount == "" || req.Nonce == 0 {
		return SubmitResponse{}, ErrInvalidInput
	}
	if req.Chain != l.configuredChain {
		return SubmitResponse{}, ErrChainUnsupported
	}
	if !SupportedAssets[req.Asset] {
		return SubmitResponse{}, ErrAssetUnsupported
	}

	lock := l.lockForWallet(req.From)
	lock.Lock()
	defer lock.Unlock()

	if req.IdempotencyKey != "" {
		if resp, ok, err := l.getIdempotent(req.IdempotencyKey); err != nil {
			return SubmitResponse{}, err
		} else if ok {
			return resp, nil
		}
	}

	wallet, err := l.keys.Get(req.From)
	if err != nil {
		if errors.Is(err, keystore.ErrWalletNotFound) {
			return SubmitResponse{}, ErrWalletNotFound
		}
		return SubmitResponse{}, err
	}
	if cryptokit.Address(wallet.PublicKey) != req.From {
		return SubmitResponse{}, ErrWalletKeyMismatch
	}

	last, err := l.lastNonce(req.From)
	if err != nil {
		return SubmitResponse{}, err
	}
	if req.Nonce <= last {
		return SubmitResponse{}, ErrNonceReplay
	}

	payload := canonicalPayload(req)
	seed, err := l.keys.OpenSeed(req.From)
	if err != nil {
		return SubmitResponse{}, err
	}
	sig, err := cryptokit.Sign(cryptokit.PurposeTransaction, []byte(payload), seed)
	if err != nil {
		return SubmitResponse{}, err
	}

	txHash, accepted, err := l.chain.SubmitTransaction(ctx, chainadapter.SubmitRequest{
		From:      req.From,
		To:        req.To,
		Amount:    req.Amount,
		Asset:     req.Asset,
		Chain:     req.Chain,
		Nonce:     req.Nonce,
		Payload:   payload,
		Signature: fmt.Sprintf("%x", sig),
	})
	if err != nil {
		return SubmitResponse{}, fmt.Errorf("%w: %v", ErrChainSubmitFailed, err)
	}

	resp := SubmitResponse{TxHash: txHash, Accepted: accepted}

	if req.IdempotencyKey != "" {
		if err := l.putIdempotent(req.IdempotencyKey, resp); err != nil {
			return SubmitResponse{}, err
		}
	}
	if err := l.putNonce(req.From, req.Nonce); err != nil {
		return SubmitResponse{}, err
	}
	record := domain.SubmittedTransaction{
		TxHash:      txHash,
		From:        req.From,
		To:          req.To,
		Amount:      req.Amount,
		Asset:       req.Asset,
		Chain:       req.Chain,
		SubmittedAt: time.Now().UTC(),
		Status:      domain.TxSubmitted,
		Accepted:    accepted,
	}
	if err := l.putTx(record); err != nil {
		return SubmitResponse{}, err
	}
	return resp, nil
}

// GetTransaction refreshes the status from the chain adapter and persists
// the updated record before responding.
func (l *Ledger) GetTransaction(ctx context.Context, txHash string) (domain.SubmittedTransaction, error) {
	raw, err := l.kv.Get([]byte(prefixSubmittedTx + txHash))
	if err != nil {
		return domain.SubmittedTransaction{}, err
	}
	if raw == nil {
		return domain.SubmittedTransaction{}, ErrTransactionNotFound
	}
	var rec domain.SubmittedTransaction
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.SubmittedTransaction{}, err
	}

	status, accepted, err := l.chain.GetTransactionStatus(ctx, txHash)
	if err != nil {
		return domain.SubmittedTransaction{}, err
	}
	if status != "" {
		rec.Status = domain.TransactionStatus(status)
		rec.Accepted = accepted
		if err := l.putTx(rec); err != nil {
			return domain.SubmittedTransaction{}, err
		}
	}
	return rec, nil
}

func (l *Ledger) putNonce(address string, nonce uint64) error {
	raw, err := json.Marshal(nonce)
	if err != nil {
		return err
	}
	return l.kv.Set([]byte(prefixNonce+address), raw)
}

func (l *Ledger) putTx(rec domain.SubmittedTransaction) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.kv.Set([]byte(prefixSubmittedTx+rec.TxHash), raw)
}

func (l *Ledger) getIdempotent(key string) (SubmitResponse, bool, error) {
	raw, err := l.kv.Get([]byte(prefixIdempotency + key))
	if err != nil {
		return SubmitResponse{}, false, err
	}
	if raw == nil {
		return SubmitResponse{}, false, nil
	}
	var resp SubmitResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return SubmitResponse{}, false, err
	}
	return resp, true, nil
}

func (l *Ledger) putIdempotent(key string, resp SubmitResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return l.kv.Set([]byte(prefixIdempotency+key), raw)
}

// canonicalPayload renders the fixed, signed wire format for a submission.
func canonicalPayload(req SubmitRequest) string {
	return fmt.Sprintf("from=%s;to=%s;amount=%s;asset=%s;chain=%s;nonce=%d",
		req.From, req.To, req.Amount, req.Asset, req.Chain, req.Nonce)
}
