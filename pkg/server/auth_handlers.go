// Copyright 2025 Certen Protocol
//
// Auth API Handlers
// Implements the challenge -> sign -> verify -> bind surface that proves
// wallet ownership and binds a wallet to an identity-provider user.

package server

import (
	"encoding/hex"
	"net/http"

	"github.com/keycortex/wallet-service/pkg/authadapter"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
)

// AuthHandlers serves the /auth/* surface.
type AuthHandlers struct {
	auth      *authadapter.Adapter
	validator *jwtauth.Validator
}

// NewAuthHandlers constructs the auth state-machine handlers.
func NewAuthHandlers(auth *authadapter.Adapter, validator *jwtauth.Validator) *AuthHandlers {
	return &AuthHandlers{auth: auth, validator: validator}
}

// HandleChallenge handles POST /auth/challenge.
func (h *AuthHandlers) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	nonce, expiresIn, err := h.auth.Issue(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"nonce":           nonce,
		"expires_in_secs": int(expiresIn.Seconds()),
	})
}

// HandleVerify handles POST /auth/verify.
func (h *AuthHandlers) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"wallet_address"`
		Nonce         string `json:"nonce"`
		Signature     string `json:"signature"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, "signature must be valid hex")
		return
	}

	result, err := h.auth.Verify(r.Context(), req.WalletAddress, req.Nonce, sig)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":                result.Valid,
		"wallet_address":       result.WalletAddress,
		"verified_at_epoch_ms": result.VerifiedAtEpochMS,
	})
}

// HandleBind handles POST /auth/bind. Requires a valid bearer JWT; the
// bound user id is the token's subject.
func (h *AuthHandlers) HandleBind(w http.ResponseWriter, r *http.Request) {
	claims, err := h.validator.ValidateRequest(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req struct {
		WalletAddress string `json:"wallet_address"`
		Chain         string `json:"chain"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if err := h.auth.Bind(r.Context(), claims.Subject, req.WalletAddress, req.Chain); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"wallet_address": req.WalletAddress,
		"user_id":        claims.Subject,
		"chain":          req.Chain,
		"bound":          true,
	})
}
