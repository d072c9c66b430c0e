// Copyright 2025 Certen Protocol

package cryptokit

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveFromPassphraseDeterministic(t *testing.T) {
	a := DeriveFromPassphrase("alpha", 1000)
	b := DeriveFromPassphrase("alpha", 1000)
	require.Equal(t, a.Seed, b.Seed)
	require.Equal(t, a.PublicKey, b.PublicKey)

	c := DeriveFromPassphrase("beta", 1000)
	require.NotEqual(t, a.Seed, c.Seed)
}

func TestAddressDerivation(t *testing.T) {
	kp, err := GenerateKeypair()
	require.NoError(t, err)
	addr := Address(kp.PublicKey[:])
	require.Len(t, addr, 42)
	require.Equal(t, "0x", addr[:2])
}

func TestSignVerifyRoundTrip(t *testing.T) {
	kp := DeriveFromPassphrase("gamma", 10)
	seed := kp.Seed[:]
	seedCopy := append([]byte(nil), seed...)

	sig, err := Sign(PurposeAuth, []byte("nonce-123"), seedCopy)
	require.NoError(t, err)

	err = Verify(PurposeAuth, []byte("nonce-123"), kp.PublicKey[:], sig[:])
	require.NoError(t, err)

	err = Verify(PurposeTransaction, []byte("nonce-123"), kp.PublicKey[:], sig[:])
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestSignZeroesSecret(t *testing.T) {
	kp := DeriveFromPassphrase("delta", 10)
	seed := append([]byte(nil), kp.Seed[:]...)

	_, err := Sign(PurposeProof, []byte("payload"), seed)
	require.NoError(t, err)

	for _, b := range seed {
		require.Zero(t, b)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	serverKey := []byte("a-server-scoped-encryption-key!")
	kp := DeriveFromPassphrase("epsilon", 10)
	secret := append([]byte(nil), kp.Seed[:]...)

	enc, err := SealSecret(serverKey, secret)
	require.NoError(t, err)
	require.NotEqual(t, kp.Seed[:], enc.Ciphertext)

	opened, err := OpenSecret(serverKey, enc)
	require.NoError(t, err)
	require.Equal(t, kp.Seed[:], opened)
}

func TestOpenSecretRejectsWrongLength(t *testing.T) {
	_, err := OpenSecret([]byte("key"), EncryptedSecret{Ciphertext: []byte("short")})
	require.ErrorIs(t, err, ErrEncryptedSecretMalformed)
}
