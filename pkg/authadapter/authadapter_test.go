// Copyright 2025 Certen Protocol

package authadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

func newTestAdapter(t *testing.T) (*Adapter, *keystore.Store) {
	t.Helper()
	kv := kvdb.NewMemoryStore()
	keys := keystore.New(kv, []byte("test-server-key-0123456789abcdef"), 4)
	store := dualstore.New(kv, nil, nil)
	return New(store, keys, ""), keys
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	a, keys := newTestAdapter(t)
	ctx := context.Background()

	rec, err := keys.Create("flowcortex-l1", "")
	require.NoError(t, err)

	nonce, _, err := a.Issue(ctx)
	require.NoError(t, err)

	seed, err := keys.OpenSeed(rec.Address)
	require.NoError(t, err)
	sig, err := cryptokit.Sign(cryptokit.PurposeAuth, []byte(nonce), seed)
	require.NoError(t, err)

	result, err := a.Verify(ctx, rec.Address, nonce, sig[:])
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.Equal(t, rec.Address, result.WalletAddress)
}

func TestVerifyRejectsReuse(t *testing.T) {
	a, keys := newTestAdapter(t)
	ctx := context.Background()

	rec, err := keys.Create("flowcortex-l1", "")
	require.NoError(t, err)
	nonce, _, err := a.Issue(ctx)
	require.NoError(t, err)
	seed, err := keys.OpenSeed(rec.Address)
	require.NoError(t, err)
	sig, err := cryptokit.Sign(cryptokit.PurposeAuth, []byte(nonce), seed)
	require.NoError(t, err)

	_, err = a.Verify(ctx, rec.Address, nonce, sig[:])
	require.NoError(t, err)

	_, err = a.Verify(ctx, rec.Address, nonce, sig[:])
	require.ErrorIs(t, err, ErrChallengeAlreadyUsed)
}

func TestVerifyRejectsUnknownChallenge(t *testing.T) {
	a, keys := newTestAdapter(t)
	ctx := context.Background()

	rec, err := keys.Create("flowcortex-l1", "")
	require.NoError(t, err)
	seed, err := keys.OpenSeed(rec.Address)
	require.NoError(t, err)
	sig, err := cryptokit.Sign(cryptokit.PurposeAuth, []byte("never-issued"), seed)
	require.NoError(t, err)

	_, err = a.Verify(ctx, rec.Address, "never-issued", sig[:])
	require.ErrorIs(t, err, ErrChallengeNotFound)
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	a, keys := newTestAdapter(t)
	ctx := context.Background()

	rec, err := keys.Create("flowcortex-l1", "")
	require.NoError(t, err)
	nonce, _, err := a.Issue(ctx)
	require.NoError(t, err)

	_, err = a.Verify(ctx, rec.Address, nonce, make([]byte, cryptokit.SignatureSize))
	require.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestBindUpsertsBinding(t *testing.T) {
	a, keys := newTestAdapter(t)
	ctx := context.Background()

	rec, err := keys.Create("flowcortex-l1", "")
	require.NoError(t, err)

	require.NoError(t, a.Bind(ctx, "user-1", rec.Address, "flowcortex-l1"))

	binding, err := a.store.GetBinding(ctx, rec.Address)
	require.NoError(t, err)
	require.Equal(t, "user-1", binding.UserID)
}

func TestBindRejectsUnknownWallet(t *testing.T) {
	a, _ := newTestAdapter(t)
	err := a.Bind(context.Background(), "user-1", "0xnope", "flowcortex-l1")
	require.ErrorIs(t, err, ErrWalletNotFound)
}
