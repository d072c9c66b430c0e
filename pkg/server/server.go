// Copyright 2025 Certen Protocol
//
// Route registration for the orchestration API surface. Handler structs
// live in the sibling *_handlers.go files, grouped by resource, following
// the teacher's ledger/batch/proof handler split; this file only wires
// them onto a *http.ServeMux.

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keycortex/wallet-service/pkg/authadapter"
	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/metrics"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

// Dependencies bundles every constructed component the API surface needs.
// It is built once at startup and handed to NewMux.
type Dependencies struct {
	Keys      *keystore.Store
	Ledger    *walletledger.Ledger
	Chain     chainadapter.Adapter
	Auth      *authadapter.Adapter
	Validator *jwtauth.Validator
	JWKS      *jwtauth.Cache
	Store     *dualstore.DualStore
	Metrics   *metrics.Registry
	Diag      *DiagnosticsHandlers
}

// NewMux builds the HTTP surface described in the external interfaces
// section: wallet custody, auth state machine, operator queries, downstream
// signals, chain/diagnostics, and the Prometheus scrape endpoint.
func NewMux(deps Dependencies) *http.ServeMux {
	mux := http.NewServeMux()

	wallet := NewWalletHandlers(deps.Keys, deps.Ledger, deps.Chain, deps.Metrics)
	mux.HandleFunc("/wallet/create", wallet.HandleCreate)
	mux.HandleFunc("/wallet/restore", wallet.HandleRestore)
	mux.HandleFunc("/wallet/rename", wallet.HandleRename)
	mux.HandleFunc("/wallet/list", wallet.HandleList)
	mux.HandleFunc("/wallet/sign", wallet.HandleSign)
	mux.HandleFunc("/wallet/balance", wallet.HandleBalance)
	mux.HandleFunc("/wallet/nonce", wallet.HandleNonce)
	mux.HandleFunc("/wallet/submit", wallet.HandleSubmit)
	mux.HandleFunc("/wallet/tx/", wallet.HandleGetTx)

	auth := NewAuthHandlers(deps.Auth, deps.Validator)
	mux.HandleFunc("/auth/challenge", auth.HandleChallenge)
	mux.HandleFunc("/auth/verify", auth.HandleVerify)
	mux.HandleFunc("/auth/bind", auth.HandleBind)

	ops := NewOpsHandlers(deps.Store, deps.Validator)
	mux.HandleFunc("/ops/bindings/", ops.HandleGetBinding)
	mux.HandleFunc("/ops/audit", ops.HandleAudit)

	signals := NewSignalHandlers(deps.Keys, deps.Store)
	mux.HandleFunc("/proofcortex/commitment", signals.HandleCommitment)
	mux.HandleFunc("/fortressdigital/wallet-status", signals.HandleWalletStatus)
	mux.HandleFunc("/fortressdigital/context", signals.HandleContext)

	mux.HandleFunc("/chain/config", deps.Diag.HandleChainConfig)
	mux.HandleFunc("/health", deps.Diag.HandleHealth)
	mux.HandleFunc("/readyz", deps.Diag.HandleReadyz)
	mux.HandleFunc("/startupz", deps.Diag.HandleStartupz)
	mux.HandleFunc("/version", deps.Diag.HandleVersion)

	if deps.Metrics != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registerer, promhttp.HandlerOpts{}))
	}

	return mux
}
