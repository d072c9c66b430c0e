// Copyright 2025 Certen Protocol
//
// Package commitment computes the deterministic, domain-prefixed commitment
// published to downstream policy and proof consumers (proofcortex) after a
// wallet verify or submit.

package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// WalletProofCommitment computes the deterministic commitment published to
// downstream policy/proof consumers after a verify or submit:
//
//	SHA-256("keycortex:proof:v1" + ":" + wallet_address + ":" + challenge +
//	        ":" + ("verified"|"unverified") + ":" + chain + (":" + tx_hash)?)
//
// rendered as 64 lowercase hex (no 0x prefix, per the wire format).
func WalletProofCommitment(walletAddress, challenge string, verified bool, chain, txHash string) string {
	verdict := "unverified"
	if verified {
		verdict = "verified"
	}
	parts := []string{"keycortex:proof:v1", walletAddress, challenge, verdict, chain}
	if txHash != "" {
		parts = append(parts, txHash)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}