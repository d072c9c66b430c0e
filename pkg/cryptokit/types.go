// Copyright 2025 Certen Protocol
//
// Package cryptokit implements the wallet's Ed25519 keypair generation,
// domain-separated signing, and at-rest secret encryption.

package cryptokit

// Purpose is the domain-separation tag applied before signing or verifying.
type Purpose string

const (
	PurposeAuth        Purpose = "auth"
	PurposeTransaction Purpose = "transaction"
	PurposeProof       Purpose = "proof"
)

// domainPrefix is the fixed byte prefix shared by every signing purpose.
const domainPrefix = "keycortex:v1:"

// SeedSize is the length in bytes of an Ed25519 seed (the "secret key" the
// keystore persists — not the 64-byte expanded ed25519.PrivateKey).
const SeedSize = 32

// PublicKeySize is the length in bytes of an Ed25519 public key.
const PublicKeySize = 32

// SignatureSize is the length in bytes of an Ed25519 signature.
const SignatureSize = 64

func (p Purpose) valid() bool {
	switch p {
	case PurposeAuth, PurposeTransaction, PurposeProof:
		return true
	default:
		return false
	}
}

func framePayload(purpose Purpose, payload []byte) []byte {
	out := make([]byte, 0, len(domainPrefix)+len(purpose)+1+len(payload))
	out = append(out, domainPrefix...)
	out = append(out, purpose...)
	out = append(out, ':')
	out = append(out, payload...)
	return out
}
