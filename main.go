// Copyright 2025 Certen Protocol
//
// keycortex wallet service: self-custody wallet custody, challenge/verify/
// bind authentication, and nonce-ordered transaction submission against a
// single configured chain.

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keycortex/wallet-service/pkg/authadapter"
	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/config"
	"github.com/keycortex/wallet-service/pkg/database"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/kvdb"
	"github.com/keycortex/wallet-service/pkg/metrics"
	"github.com/keycortex/wallet-service/pkg/server"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	showHelp := flag.Bool("help", false, "Show help message")
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	log.Printf("starting keycortex wallet service (%s)", server.ServiceVersion)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// Startup order: embedded store -> crypto keys -> relational migrations
	// -> JWKS -> network listener.
	kv, err := kvdb.NewEmbeddedStore("keycortex", cfg.DataDir)
	if err != nil {
		log.Fatalf("open embedded store: %v", err)
	}
	defer kv.Close()
	log.Printf("embedded store ready at %s", cfg.DataDir)

	serverEncKey, err := loadOrGenerateServerKey(cfg)
	if err != nil {
		log.Fatalf("load server encryption key: %v", err)
	}

	keys := keystore.New(kv, serverEncKey, cfg.KDFRounds)

	var dbClient *database.Client
	postgresEnabled := false
	var migrationResult database.MigrationResult
	var connectErr error
	if cfg.DatabaseURL != "" {
		dbLogger := log.New(log.Writer(), "[database] ", log.LstdFlags)
		dbClient, connectErr = database.NewClient(cfg, database.WithLogger(dbLogger))
		if dbClient != nil {
			defer dbClient.Close()
		}
		if connectErr != nil {
			// The client handle stays live (database/sql connects lazily) even
			// though the initial ping failed, so the dual-store layer still
			// attempts primary reads/writes per operation and counts the
			// failures, instead of running in embedded-only mode forever.
			log.Printf("primary store unreachable at startup, continuing with the embedded store as fallback: %v", connectErr)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			migrationResult, err = dbClient.MigrateUp(ctx)
			cancel()
			if err != nil {
				log.Printf("primary store migrations failed, continuing with the embedded store as fallback: %v", err)
				connectErr = err
			} else {
				postgresEnabled = true
				log.Printf("primary store migrations applied: %d", migrationResult.Applied)
			}
		}
	} else {
		log.Printf("no DATABASE_URL configured; running in single-store (embedded-only) mode")
	}

	dsLogger := log.New(log.Writer(), "[dualstore] ", log.LstdFlags)
	store := dualstore.New(kv, dbClient, dsLogger)

	chain := chainadapter.NewFlowCortex()
	ledger := walletledger.New(kv, keys, chain, cfg.ConfiguredChain)

	jwks := jwtauth.NewCache(cfg.JWKSURL, cfg.JWKSFilePath, cfg.JWKSInlineJSON, time.Duration(cfg.JWKSRefreshSecs)*time.Second)
	stop := make(chan struct{})
	jwks.StartBackground(stop)
	defer close(stop)
	validator := jwtauth.NewValidator(jwks, cfg.HMACSecret, cfg.ExpectedIssuer, cfg.ExpectedAudience)

	authSvc := authadapter.New(store, keys, cfg.BindCallbackURL)

	metricsRegistry := metrics.New()
	go publishMetricsPeriodically(stop, metricsRegistry, store, jwks)

	diag := server.NewDiagnosticsHandlers(store, jwks, cfg.ConfiguredChain,
		server.PostgresStartupFromMigration(postgresEnabled, migrationResult, connectErr))
	diag.MarkReady()

	mux := server.NewMux(server.Dependencies{
		Keys:      keys,
		Ledger:    ledger,
		Chain:     chain,
		Auth:      authSvc,
		Validator: validator,
		JWKS:      jwks,
		Store:     store,
		Metrics:   metricsRegistry,
		Diag:      diag,
	})

	httpLogger := log.New(log.Writer(), "[http] ", log.LstdFlags)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.WithRequestLogging(httpLogger, mux),
	}

	go func() {
		log.Printf("wallet service API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down wallet service...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Printf("wallet service stopped")
}

// publishMetricsPeriodically republishes the dual-store fallback counters
// and the JWKS-loaded gauge onto the Prometheus registry every few seconds,
// until stop is closed. The counters and the cache are otherwise read only
// from request handlers; this is the one place that turns them into a
// scrape-able time series.
func publishMetricsPeriodically(stop <-chan struct{}, reg *metrics.Registry, store *dualstore.DualStore, jwks *jwtauth.Cache) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	publishOnce := func() {
		snap := store.Counters().Snapshot()
		reg.ObserveFallbackSnapshot(map[string]uint64{
			"primary_unavailable":          snap.PrimaryUnavailable,
			"binding_read_failures":        snap.BindingReadFailures,
			"binding_write_failures":       snap.BindingWriteFailures,
			"audit_read_failures":          snap.AuditReadFailures,
			"audit_write_failures":         snap.AuditWriteFailures,
			"challenge_persist_failures":   snap.ChallengePersistFailures,
			"challenge_mark_used_failures": snap.ChallengeMarkUsedFailures,
			"total":                        snap.Total,
		})
		reg.SetJWKSLoaded(jwks.EverLoaded())
	}
	publishOnce()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			publishOnce()
		}
	}
}

// loadOrGenerateServerKey reads the server-scoped encryption key from
// config, generating a fresh one if none was configured. A generated key
// does not survive a restart; operators who need durable secrets across
// restarts must set SERVER_ENC_KEY.
func loadOrGenerateServerKey(cfg *config.Config) ([]byte, error) {
	if cfg.ServerEncKeyHex != "" {
		return hex.DecodeString(cfg.ServerEncKeyHex)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	log.Printf("warning: SERVER_ENC_KEY not configured; generated an ephemeral key for this process only")
	return key, nil
}

func printHelp() {
	log.Printf("keycortex wallet service")
	log.Printf("  -help    show this message")
	log.Printf("environment: see pkg/config for the recognised variable list")
}
