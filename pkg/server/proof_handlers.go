// Copyright 2025 Certen Protocol
//
// Downstream Signal API Handlers
// Supplies enriched wallet signals to downstream policy and proof
// subsystems: deterministic commitments for proofcortex, and risk/context
// enrichment for fortressdigital.

package server

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/keycortex/wallet-service/pkg/commitment"
	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/keystore"
)

// SignalHandlers serves /proofcortex/* and /fortressdigital/*.
type SignalHandlers struct {
	keys  *keystore.Store
	store *dualstore.DualStore
}

// NewSignalHandlers constructs the downstream signal handlers.
func NewSignalHandlers(keys *keystore.Store, store *dualstore.DualStore) *SignalHandlers {
	return &SignalHandlers{keys: keys, store: store}
}

// HandleCommitment handles POST /proofcortex/commitment: a deterministic
// SHA-256 commitment over wallet verification facts, used as the public
// input to a downstream proof circuit. Every call that passes request
// validation emits a proofcortex_commitment audit event.
func (h *SignalHandlers) HandleCommitment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress      string `json:"wallet_address"`
		Challenge          string `json:"challenge"`
		VerificationResult bool   `json:"verification_result"`
		Chain              string `json:"chain"`
		TxHash             string `json:"tx_hash"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.WalletAddress == "" || req.Challenge == "" || req.Chain == "" {
		writeError(w, http.StatusBadRequest, "wallet_address, challenge, and chain are required")
		return
	}

	commit := commitment.WalletProofCommitment(req.WalletAddress, req.Challenge, req.VerificationResult, req.Chain, req.TxHash)

	_ = h.store.AppendAudit(r.Context(), domain.AuditEvent{
		EventType:     domain.EventProofCortexCommitment,
		WalletAddress: req.WalletAddress,
		Outcome:       domain.AuditSuccess,
		Timestamp:     time.Now().UTC(),
	})

	writeJSON(w, http.StatusOK, map[string]string{"commitment": commit})
}

// HandleWalletStatus handles POST /fortressdigital/wallet-status: risk
// signals for a custodied wallet. The risk score is a deterministic
// placeholder derived from the wallet address and whether it is bound —
// no external risk engine is specified (see DESIGN.md).
func (h *SignalHandlers) HandleWalletStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rec, err := h.keys.Get(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	binding, err := h.store.GetBinding(r.Context(), req.WalletAddress)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	verified := binding != nil
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_address": rec.Address,
		"chain":          rec.Chain,
		"verified":       verified,
		"bound_user_id":  bindingUserID(binding),
		"risk_score":     riskScore(rec.Address, verified),
	})
}

func bindingUserID(b *domain.Binding) string {
	if b == nil {
		return ""
	}
	return b.UserID
}

// riskScore derives a stable 0-99 placeholder score from the address bytes
// so responses are deterministic and testable without a live risk engine.
func riskScore(address string, verified bool) int {
	sum := 0
	for _, c := range address {
		sum += int(c)
	}
	score := sum % 100
	if verified && score > 20 {
		score -= 20
	}
	return score
}

// HandleContext handles POST /fortressdigital/context: a signed context
// payload binding a wallet, user, and chain, signed by the wallet's own key
// under purpose proof so the receiver can verify provenance.
func (h *SignalHandlers) HandleContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		UserID        string `json:"user_id"`
		Chain         string `json:"chain"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	rec, err := h.keys.Get(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now().UTC()
	ctxPayload := canonicalContext(req.WalletAddress, req.UserID, req.Chain, now)

	seed, err := h.keys.OpenSeed(req.WalletAddress)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	sig, err := cryptokit.Sign(cryptokit.PurposeProof, []byte(ctxPayload), seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"context":        ctxPayload,
		"signature":      hex.EncodeToString(sig[:]),
		"public_key":     hex.EncodeToString(rec.PublicKey),
		"wallet_address": rec.Address,
	})
}

func canonicalContext(address, userID, chain string, at time.Time) string {
	return "wallet=" + address + ";user=" + userID + ";chain=" + chain + ";ts=" + at.Format(time.RFC3339)
}
