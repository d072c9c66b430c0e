// Copyright 2025 Certen Protocol

package cryptokit

import "errors"

// Sentinel errors for crypto primitive operations.
var (
	// ErrKeyMaterialInvalid is returned when a decrypted secret is not 32 bytes.
	ErrKeyMaterialInvalid = errors.New("key material invalid")

	// ErrSignatureInvalid is returned when signature verification rejects.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrEncryptedSecretMalformed is returned when ciphertext framing cannot be parsed.
	ErrEncryptedSecretMalformed = errors.New("encrypted secret malformed")

	// ErrServerKeyNotConfigured is returned when at-rest encryption is attempted
	// before a server-scoped encryption key has been injected.
	ErrServerKeyNotConfigured = errors.New("server encryption key not configured")
)
