// Copyright 2025 Certen Protocol
//
// Wallet Custody API Handlers
// Provides HTTP endpoints for wallet creation, restore, signing, balance,
// nonce, and transaction submission.

package server

import (
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/metrics"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

// WalletHandlers serves the /wallet/* surface.
type WalletHandlers struct {
	keys    *keystore.Store
	ledger  *walletledger.Ledger
	chain   chainadapter.Adapter
	metrics *metrics.Registry
}

// NewWalletHandlers constructs the wallet custody handlers.
func NewWalletHandlers(keys *keystore.Store, ledger *walletledger.Ledger, chain chainadapter.Adapter, m *metrics.Registry) *WalletHandlers {
	return &WalletHandlers{keys: keys, ledger: ledger, chain: chain, metrics: m}
}

type walletResponse struct {
	WalletAddress  string `json:"wallet_address"`
	PublicKey      string `json:"public_key"`
	Label          string `json:"label,omitempty"`
	Chain          string `json:"chain"`
	AlreadyExisted bool   `json:"already_existed,omitempty"`
}

func toWalletResponse(rec domain.WalletRecord, alreadyExisted bool) walletResponse {
	return walletResponse{
		WalletAddress:  rec.Address,
		PublicKey:      hex.EncodeToString(rec.PublicKey),
		Label:          rec.Label,
		Chain:          rec.Chain,
		AlreadyExisted: alreadyExisted,
	}
}

// HandleCreate handles POST /wallet/create. A passphrase present in the body
// is restored deterministically (idempotent on collision); otherwise a
// fresh random keypair is generated.
func (h *WalletHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label      string `json:"label"`
		Passphrase string `json:"passphrase"`
		Chain      string `json:"chain"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	chain := req.Chain
	if chain == "" {
		chain = chainadapter.FlowCortexChainID
	}

	if req.Passphrase != "" {
		rec, existed, err := h.keys.Restore(chain, req.Passphrase, req.Label)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toWalletResponse(rec, existed))
		return
	}

	rec, err := h.keys.Create(chain, req.Label)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(rec, false))
}

// HandleRestore handles POST /wallet/restore.
func (h *WalletHandlers) HandleRestore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
		Label      string `json:"label"`
		Chain      string `json:"chain"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	chain := req.Chain
	if chain == "" {
		chain = chainadapter.FlowCortexChainID
	}
	rec, existed, err := h.keys.Restore(chain, req.Passphrase, req.Label)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(rec, existed))
}

// HandleRename handles POST /wallet/rename.
func (h *WalletHandlers) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Label         string `json:"label"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "wallet_address required")
		return
	}
	if err := h.keys.Rename(req.WalletAddress, req.Label); err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := h.keys.Get(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletResponse(rec, false))
}

// HandleList handles GET /wallet/list.
func (h *WalletHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	recs, err := h.keys.List()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]walletResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toWalletResponse(rec, false))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"wallets": out})
}

// HandleSign handles POST /wallet/sign. payload_base64 is the raw payload
// to sign; purpose must be one of auth, transaction, proof.
func (h *WalletHandlers) HandleSign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Purpose       string `json:"purpose"`
		PayloadBase64 string `json:"payload_base64"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	purpose := cryptokit.Purpose(strings.ToLower(req.Purpose))
	switch purpose {
	case cryptokit.PurposeAuth, cryptokit.PurposeTransaction, cryptokit.PurposeProof:
	default:
		writeError(w, http.StatusBadRequest, "unsupported purpose")
		return
	}
	payload, err := base64.StdEncoding.DecodeString(req.PayloadBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "payload_base64 must be valid base64")
		return
	}

	rec, err := h.keys.Get(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	seed, err := h.keys.OpenSeed(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sig, err := cryptokit.Sign(purpose, payload, seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet_address": rec.Address,
		"public_key":     hex.EncodeToString(rec.PublicKey),
		"signature":      hex.EncodeToString(sig[:]),
	})
}

// HandleBalance handles GET /wallet/balance?address=...&asset=...
func (h *WalletHandlers) HandleBalance(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	asset := r.URL.Query().Get("asset")
	if address == "" || asset == "" {
		writeError(w, http.StatusBadRequest, "address and asset are required")
		return
	}
	if _, err := h.keys.Get(address); err != nil {
		writeDomainError(w, err)
		return
	}
	bal, err := h.chain.GetBalance(r.Context(), address, asset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"wallet_address": address,
		"asset":          asset,
		"balance":        bal,
	})
}

// HandleNonce handles GET /wallet/nonce?address=...
func (h *WalletHandlers) HandleNonce(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	next, err := h.ledger.NextNonce(address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"next_nonce": next})
}

// HandleSubmit handles POST /wallet/submit, honoring the Idempotency-Key
// header.
func (h *WalletHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Asset  string `json:"asset"`
		Chain  string `json:"chain"`
		Nonce  uint64 `json:"nonce"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	start := time.Now()
	resp, err := h.ledger.Submit(r.Context(), walletledger.SubmitRequest{
		From:           req.From,
		To:             req.To,
		Amount:         req.Amount,
		Asset:          req.Asset,
		Chain:          req.Chain,
		Nonce:          req.Nonce,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	outcome := "success"
	if err != nil {
		outcome = classifyOutcome(err)
	}
	if h.metrics != nil {
		h.metrics.RecordSubmit(time.Since(start).Seconds(), outcome)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case strings.Contains(err.Error(), "nonce replay"):
		return "nonce_replay"
	case strings.Contains(err.Error(), "unsupported chain"):
		return "chain_unsupported"
	case strings.Contains(err.Error(), "unsupported asset"):
		return "asset_unsupported"
	case strings.Contains(err.Error(), "chain adapter submit failed"):
		return "chain_submit_failed"
	default:
		return "error"
	}
}

// HandleGetTx handles GET /wallet/tx/{tx_hash}.
func (h *WalletHandlers) HandleGetTx(w http.ResponseWriter, r *http.Request) {
	txHash := strings.TrimPrefix(r.URL.Path, "/wallet/tx/")
	if txHash == "" {
		writeError(w, http.StatusBadRequest, "tx_hash is required")
		return
	}
	rec, err := h.ledger.GetTransaction(r.Context(), txHash)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
