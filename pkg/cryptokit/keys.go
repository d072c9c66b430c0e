// Copyright 2025 Certen Protocol

package cryptokit

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// Keypair is a generated Ed25519 seed and its derived public key. Seed is
// the 32-byte value the keystore encrypts at rest; it is never the full
// 64-byte ed25519.PrivateKey.
type Keypair struct {
	Seed      [SeedSize]byte
	PublicKey [PublicKeySize]byte
}

// GenerateKeypair derives a fresh Ed25519 keypair from crypto/rand.
func GenerateKeypair() (Keypair, error) {
	var seed [SeedSize]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return Keypair{}, err
	}
	return keypairFromSeed(seed), nil
}

// DeriveFromPassphrase produces a deterministic keypair from a passphrase.
// The passphrase is hashed with `rounds` rounds of SHA-256 to derive the
// seed; identical (passphrase, rounds) always yields the identical keypair.
// rounds must be >= 1; the reference value is 1000.
func DeriveFromPassphrase(passphrase string, rounds int) Keypair {
	if rounds < 1 {
		rounds = 1
	}
	h := sha256.Sum256([]byte(passphrase))
	for i := 1; i < rounds; i++ {
		h = sha256.Sum256(h[:])
	}
	return keypairFromSeed(h)
}

func keypairFromSeed(seed [SeedSize]byte) Keypair {
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	kp := Keypair{Seed: seed}
	copy(kp.PublicKey[:], pub)
	Zero(priv)
	return kp
}

// Address derives the wallet address: "0x" + lowercase hex of the first 20
// bytes of SHA-256(public key).
func Address(pub []byte) string {
	sum := sha256.Sum256(pub)
	return "0x" + hex.EncodeToString(sum[:20])
}
