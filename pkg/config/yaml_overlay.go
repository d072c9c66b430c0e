// Copyright 2025 Certen Protocol
//
// Optional YAML configuration overlay, grounded on the teacher's
// pkg/config/anchor_config.go YAML-file-plus-env-substitution loader. The
// wallet service's recognised inputs are still the closed set of
// environment variables in config.go; CONFIG_FILE only supplies defaults
// for fields the environment did not already set, and it is entirely
// optional.

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// fileOverlay mirrors the subset of Config an operator may want to pin in
// a checked-in YAML file instead of the process environment. Every field
// is a pointer so "absent from the file" is distinguishable from "zero
// value in the file".
type fileOverlay struct {
	ListenAddr       *string `yaml:"listen_addr"`
	DataDir          *string `yaml:"data_dir"`
	KDFRounds        *int    `yaml:"kdf_rounds"`
	DatabaseURL      *string `yaml:"database_url"`
	MigrationDir     *string `yaml:"migration_dir"`
	JWKSURL          *string `yaml:"jwks_url"`
	JWKSRefreshSecs  *int    `yaml:"jwks_refresh_seconds"`
	ExpectedIssuer   *string `yaml:"jwt_issuer"`
	ExpectedAudience *string `yaml:"jwt_audience"`
	BindCallbackURL  *string `yaml:"bind_callback_url"`
	ConfiguredChain  *string `yaml:"configured_chain"`
	LogLevel         *string `yaml:"log_level"`
}

var envSubstitutionPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// applyFileOverlay reads path as YAML (performing ${VAR} environment
// substitution first, as the teacher's anchor config loader does) and
// copies any field the file sets into cfg, but only for fields whose
// value is still at its env-derived default — an explicit environment
// variable always wins over the file.
func applyFileOverlay(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	substituted := envSubstitutionPattern.ReplaceAllStringFunc(string(raw), func(token string) string {
		name := envSubstitutionPattern.FindStringSubmatch(token)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return token
	})

	var overlay fileOverlay
	if err := yaml.Unmarshal([]byte(substituted), &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if overlay.ListenAddr != nil && os.Getenv("API_PORT") == "" && os.Getenv("API_HOST") == "" {
		cfg.ListenAddr = *overlay.ListenAddr
	}
	if overlay.DataDir != nil && os.Getenv("DATA_DIR") == "" {
		cfg.DataDir = *overlay.DataDir
	}
	if overlay.KDFRounds != nil && os.Getenv("KDF_ROUNDS") == "" {
		cfg.KDFRounds = *overlay.KDFRounds
	}
	if overlay.DatabaseURL != nil && os.Getenv("DATABASE_URL") == "" {
		cfg.DatabaseURL = *overlay.DatabaseURL
	}
	if overlay.MigrationDir != nil && os.Getenv("MIGRATION_DIR") == "" {
		cfg.MigrationDir = *overlay.MigrationDir
	}
	if overlay.JWKSURL != nil && os.Getenv("JWKS_URL") == "" {
		cfg.JWKSURL = *overlay.JWKSURL
	}
	if overlay.JWKSRefreshSecs != nil && os.Getenv("JWKS_REFRESH_SECONDS") == "" {
		cfg.JWKSRefreshSecs = *overlay.JWKSRefreshSecs
	}
	if overlay.ExpectedIssuer != nil && os.Getenv("JWT_ISSUER") == "" {
		cfg.ExpectedIssuer = *overlay.ExpectedIssuer
	}
	if overlay.ExpectedAudience != nil && os.Getenv("JWT_AUDIENCE") == "" {
		cfg.ExpectedAudience = *overlay.ExpectedAudience
	}
	if overlay.BindCallbackURL != nil && os.Getenv("BIND_CALLBACK_URL") == "" {
		cfg.BindCallbackURL = *overlay.BindCallbackURL
	}
	if overlay.ConfiguredChain != nil && os.Getenv("CONFIGURED_CHAIN") == "" {
		cfg.ConfiguredChain = *overlay.ConfiguredChain
	}
	if overlay.LogLevel != nil && os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = *overlay.LogLevel
	}
	return nil
}
