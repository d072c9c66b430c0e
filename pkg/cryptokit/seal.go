// Copyright 2025 Certen Protocol
//
// At-rest wrapping of the 32-byte Ed25519 seed. The keystream is derived by
// hashing the server-scoped encryption key together with a block counter;
// the secret is XORed against that stream. This is the minimum viable
// format described by the spec and is NOT authenticated encryption — see
// DESIGN.md for the open question this leaves unresolved.

package cryptokit

import (
	"crypto/sha256"
	"encoding/binary"
)

// EncryptedSecret is the at-rest representation of a wallet's signing seed.
type EncryptedSecret struct {
	Ciphertext []byte // len == SeedSize
}

// keystream derives len(out) bytes of keystream from serverKey by hashing
// serverKey concatenated with an incrementing big-endian counter, one
// SHA-256 block per 32 bytes of output.
func keystream(serverKey []byte, n int) []byte {
	out := make([]byte, 0, n)
	var counter uint64
	buf := make([]byte, 8)
	for len(out) < n {
		binary.BigEndian.PutUint64(buf, counter)
		h := sha256.New()
		h.Write(serverKey)
		h.Write(buf)
		out = append(out, h.Sum(nil)...)
		counter++
	}
	return out[:n]
}

func xor(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}
	return out
}

// SealSecret wraps a 32-byte seed with the keystream derived from serverKey.
func SealSecret(serverKey []byte, secret []byte) (EncryptedSecret, error) {
	if len(serverKey) == 0 {
		return EncryptedSecret{}, ErrServerKeyNotConfigured
	}
	if len(secret) != SeedSize {
		return EncryptedSecret{}, ErrKeyMaterialInvalid
	}
	ks := keystream(serverKey, len(secret))
	defer Zero(ks)
	return EncryptedSecret{Ciphertext: xor(secret, ks)}, nil
}

// OpenSecret reverses SealSecret. The returned slice is the caller's to
// wipe immediately after use (e.g. via cryptokit.Sign, which zeroes it).
func OpenSecret(serverKey []byte, enc EncryptedSecret) ([]byte, error) {
	if len(serverKey) == 0 {
		return nil, ErrServerKeyNotConfigured
	}
	if len(enc.Ciphertext) != SeedSize {
		return nil, ErrEncryptedSecretMalformed
	}
	ks := keystream(serverKey, len(enc.Ciphertext))
	defer Zero(ks)
	secret := xor(enc.Ciphertext, ks)
	if len(secret) != SeedSize {
		return nil, ErrKeyMaterialInvalid
	}
	return secret, nil
}
