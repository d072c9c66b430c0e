// Copyright 2025 Certen Protocol

package cryptokit

import "crypto/ed25519"

// Sign applies domain separation and signs payload under purpose using the
// given 32-byte secret seed. The seed bytes (and the expanded private key
// derived from them) are wiped before Sign returns, on every return path.
func Sign(purpose Purpose, payload []byte, secret []byte) (signature [SignatureSize]byte, err error) {
	defer Zero(secret)
	if !purpose.valid() {
		return signature, ErrKeyMaterialInvalid
	}
	if len(secret) != SeedSize {
		return signature, ErrKeyMaterialInvalid
	}

	priv := ed25519.NewKeyFromSeed(secret)
	defer Zero(priv)

	framed := framePayload(purpose, payload)
	sig := ed25519.Sign(priv, framed)
	copy(signature[:], sig)
	return signature, nil
}

// Verify mirrors the domain-separated framing applied by Sign and checks
// the signature against the wallet's public key.
func Verify(purpose Purpose, payload []byte, pub []byte, signature []byte) error {
	if !purpose.valid() {
		return ErrSignatureInvalid
	}
	if len(pub) != PublicKeySize || len(signature) != SignatureSize {
		return ErrSignatureInvalid
	}
	framed := framePayload(purpose, payload)
	if !ed25519.Verify(pub, framed, signature) {
		return ErrSignatureInvalid
	}
	return nil
}
