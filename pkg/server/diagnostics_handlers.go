// Copyright 2025 Certen Protocol
//
// Diagnostics API Handlers
// Aggregates state from JWKS, the dual-store layer, and fallback counters
// for /health, /readyz, /startupz, /chain/config, and /version.

package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/database"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

// ServiceVersion is the service identity reported by /version.
const ServiceVersion = "keycortex-wallet-service/0.1.0"

// PostgresStartup captures the outcome of the migration runner at startup,
// surfaced via /startupz.
type PostgresStartup struct {
	Enabled   bool   `json:"enabled"`
	Applied   int    `json:"applied,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// DiagnosticsHandlers serves the ambient ops surface.
type DiagnosticsHandlers struct {
	store           *dualstore.DualStore
	jwks            *jwtauth.Cache
	startedAt       time.Time
	configuredChain string

	postgres PostgresStartup
	ready    atomic.Bool
}

// NewDiagnosticsHandlers constructs the diagnostics handlers. postgres
// describes whether the primary store came up and applied its migrations
// at startup; it never changes afterward.
func NewDiagnosticsHandlers(store *dualstore.DualStore, jwks *jwtauth.Cache, configuredChain string, postgres PostgresStartup) *DiagnosticsHandlers {
	return &DiagnosticsHandlers{
		store:           store,
		jwks:            jwks,
		startedAt:       time.Now().UTC(),
		configuredChain: configuredChain,
		postgres:        postgres,
	}
}

// MarkReady flips readiness to true. Readiness requires the embedded store
// and the auth validator to both be initialized, which by the time main
// calls this has already happened.
func (h *DiagnosticsHandlers) MarkReady() {
	h.ready.Store(true)
}

// HandleHealth handles GET /health: storage mode, auth mode, JWKS state,
// fallback counters.
func (h *DiagnosticsHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	storageMode := "embedded-only"
	if h.postgres.Enabled {
		storageMode = "dual-store"
	}
	authMode := "hmac"
	jwksDiag := h.jwks.Diagnostics()
	if jwksDiag.Configured {
		authMode = "jwks"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"storage_mode":       storageMode,
		"auth_mode":          authMode,
		"jwks":               jwksDiag,
		"primary_health":     h.store.PrimaryHealth(r.Context()),
		"fallback_counters":  h.store.Counters().Snapshot(),
		"uptime_seconds":     int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleReadyz handles GET /readyz.
func (h *DiagnosticsHandlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ready := h.ready.Load()
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]bool{"ready": ready})
}

// HandleStartupz handles GET /startupz: detailed startup and fallback
// diagnostics.
func (h *DiagnosticsHandlers) HandleStartupz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready":              h.ready.Load(),
		"postgres_startup":   h.postgres,
		"jwks":               h.jwks.Diagnostics(),
		"db_fallback_counters": h.store.Counters().Snapshot(),
		"configured_chain":   h.configuredChain,
		"started_at":         h.startedAt,
	})
}

// HandleVersion handles GET /version.
func (h *DiagnosticsHandlers) HandleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": ServiceVersion})
}

// HandleChainConfig handles GET /chain/config: chain identity and asset
// metadata.
func (h *DiagnosticsHandlers) HandleChainConfig(w http.ResponseWriter, r *http.Request) {
	assets := make([]string, 0, len(walletledger.SupportedAssets))
	for a := range walletledger.SupportedAssets {
		assets = append(assets, a)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chain":  chainadapter.FlowCortexChainID,
		"assets": assets,
	})
}

// PostgresStartupFromMigration converts a migration result and connectivity
// outcome into the PostgresStartup shape surfaced at /startupz.
func PostgresStartupFromMigration(enabled bool, result database.MigrationResult, connectErr error) PostgresStartup {
	if !enabled {
		ps := PostgresStartup{Enabled: false}
		if connectErr != nil {
			ps.LastError = connectErr.Error()
		}
		return ps
	}
	return PostgresStartup{Enabled: true, Applied: result.Applied, LastError: result.LastError}
}
