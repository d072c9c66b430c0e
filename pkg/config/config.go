// Package config loads the closed set of environment inputs the wallet
// service recognises: listen address, keystore path, primary-store
// connection string, migration directory, JWKS sources, and callback URL.
// An optional CONFIG_FILE may point at a YAML file (see yaml_overlay.go)
// supplying defaults for the subset of these listed in fileOverlay; an
// explicit environment variable always takes precedence over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the keycortex wallet service.
type Config struct {
	// Server configuration
	ListenAddr  string
	MetricsAddr string

	// Keystore / crypto configuration
	DataDir          string // base directory for the embedded store
	ServerEncKeyHex  string // hex-encoded server-scoped encryption key (32 bytes)
	KDFRounds        int    // passphrase stretch round count, reference value 1000

	// Primary relational store (absent => single-store mode)
	DatabaseURL         string
	DatabaseMaxConns    int
	DatabaseMinConns    int
	DatabaseMaxIdleTime time.Duration
	DatabaseMaxLifetime time.Duration
	MigrationDir        string

	// JWT / JWKS configuration
	HMACSecret        string
	JWKSURL           string
	JWKSFilePath      string
	JWKSInlineJSON    string
	JWKSRefreshSecs   int
	ExpectedIssuer    string
	ExpectedAudience  string

	// Auth adapter
	BindCallbackURL string

	// Chain configuration
	ConfiguredChain string

	LogLevel string
}

// Load reads configuration from environment variables. Only the variable
// names documented below are recognised; every other input is ignored.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:  getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("API_PORT", "8080"),
		MetricsAddr: getEnv("API_HOST", "0.0.0.0") + ":" + getEnv("METRICS_PORT", "9090"),

		DataDir:         getEnv("DATA_DIR", "./data"),
		ServerEncKeyHex: getEnv("SERVER_ENC_KEY", ""),
		KDFRounds:       getEnvInt("KDF_ROUNDS", 1000),

		DatabaseURL:         getEnv("DATABASE_URL", ""),
		DatabaseMaxConns:    getEnvInt("DATABASE_MAX_CONNS", 25),
		DatabaseMinConns:    getEnvInt("DATABASE_MIN_CONNS", 5),
		DatabaseMaxIdleTime: getEnvDuration("DATABASE_MAX_IDLE_TIME", 300),
		DatabaseMaxLifetime: getEnvDuration("DATABASE_MAX_LIFETIME", 3600),
		MigrationDir:        getEnv("MIGRATION_DIR", ""),

		HMACSecret:       getEnv("HMAC_SECRET", ""),
		JWKSURL:          getEnv("JWKS_URL", ""),
		JWKSFilePath:     getEnv("JWKS_FILE_PATH", ""),
		JWKSInlineJSON:   getEnv("JWKS_INLINE_JSON", ""),
		JWKSRefreshSecs:  getEnvInt("JWKS_REFRESH_SECONDS", 60),
		ExpectedIssuer:   getEnv("JWT_ISSUER", ""),
		ExpectedAudience: getEnv("JWT_AUDIENCE", ""),

		BindCallbackURL: getEnv("BIND_CALLBACK_URL", ""),

		ConfiguredChain: getEnv("CONFIGURED_CHAIN", "flowcortex-l1"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.JWKSRefreshSecs < 10 {
		cfg.JWKSRefreshSecs = 10
	}

	if configFile := getEnv("CONFIG_FILE", ""); configFile != "" {
		if err := applyFileOverlay(cfg, configFile); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks configuration invariants that must hold regardless of
// which store mode is active. It does not require a primary store to be
// configured — single-store mode is a supported deployment shape.
func (c *Config) Validate() error {
	var errs []string

	if c.DatabaseURL != "" && strings.Contains(c.DatabaseURL, "sslmode=disable") {
		// Not fatal: a local development primary is allowed to disable TLS,
		// but it's worth surfacing since the default expectation is sslmode=require.
		fmt.Println("WARNING: DATABASE_URL uses sslmode=disable")
	}

	if c.HMACSecret == "" && c.JWKSURL == "" && c.JWKSFilePath == "" && c.JWKSInlineJSON == "" {
		errs = append(errs, "at least one of HMAC_SECRET or a JWKS source must be configured")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvDuration reads an integer-seconds environment variable (the same
// format every other DATABASE_* setting uses) and returns it pre-converted
// to a time.Duration, so callers like database.NewClient can pass it
// straight to db.SetConnMaxIdleTime/SetConnMaxLifetime without a manual
// "* time.Second" at the call site.
func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
