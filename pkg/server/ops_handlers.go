// Copyright 2025 Certen Protocol
//
// Operator API Handlers
// Every call here is gated behind a valid bearer JWT carrying the
// ops-admin role and emits an ops_access audit event regardless of outcome.

package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
)

// OpsHandlers serves the /ops/* surface.
type OpsHandlers struct {
	store     *dualstore.DualStore
	validator *jwtauth.Validator
}

// NewOpsHandlers constructs the operator query handlers.
func NewOpsHandlers(store *dualstore.DualStore, validator *jwtauth.Validator) *OpsHandlers {
	return &OpsHandlers{store: store, validator: validator}
}

// authorizeOps validates the bearer token and the ops-admin role, emitting
// an ops_access audit event with the outcome either way. It returns the
// validated subject and whether the caller may proceed.
func (h *OpsHandlers) authorizeOps(w http.ResponseWriter, r *http.Request, walletAddress string) (subject string, ok bool) {
	claims, err := h.validator.ValidateRequest(r)
	if err != nil {
		_ = h.store.AppendAudit(r.Context(), domain.AuditEvent{
			EventType:     domain.EventOpsAccess,
			WalletAddress: walletAddress,
			Outcome:       domain.AuditDenied,
			Message:       err.Error(),
			Timestamp:     time.Now().UTC(),
		})
		writeDomainError(w, err)
		return "", false
	}

	outcome := domain.AuditSuccess
	var respErr error
	if roleErr := jwtauth.RequireOpsAdmin(claims); roleErr != nil {
		outcome = domain.AuditDenied
		respErr = roleErr
	}

	_ = h.store.AppendAudit(r.Context(), domain.AuditEvent{
		EventType:     domain.EventOpsAccess,
		WalletAddress: walletAddress,
		UserID:        claims.Subject,
		Outcome:       outcome,
		Timestamp:     time.Now().UTC(),
	})

	if respErr != nil {
		writeDomainError(w, respErr)
		return "", false
	}
	return claims.Subject, true
}

// HandleGetBinding handles GET /ops/bindings/{address}.
func (h *OpsHandlers) HandleGetBinding(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimPrefix(r.URL.Path, "/ops/bindings/")
	if _, ok := h.authorizeOps(w, r, address); !ok {
		return
	}
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	binding, err := h.store.GetBinding(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if binding == nil {
		writeError(w, http.StatusBadRequest, "binding not found")
		return
	}
	writeJSON(w, http.StatusOK, binding)
}

// HandleAudit handles GET /ops/audit?wallet_address=...&user_id=...&event_type=...&limit=...
func (h *OpsHandlers) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorizeOps(w, r, ""); !ok {
		return
	}

	limit := domain.MaxAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	filter := domain.AuditFilter{
		WalletAddress: r.URL.Query().Get("wallet_address"),
		UserID:        r.URL.Query().Get("user_id"),
		EventType:     r.URL.Query().Get("event_type"),
	}
	events, err := h.store.ListAudit(r.Context(), filter, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
