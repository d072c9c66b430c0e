// Copyright 2025 Certen Protocol

package keystore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

func newTestStore() *Store {
	return New(kvdb.NewMemoryStore(), []byte("0123456789abcdef0123456789abcdef"), 4)
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore()
	rec, err := s.Create("flowcortex-l1", "primary")
	require.NoError(t, err)
	require.NotEmpty(t, rec.Address)

	got, err := s.Get(rec.Address)
	require.NoError(t, err)
	require.Equal(t, "primary", got.Label)
	require.Equal(t, rec.PublicKey, got.PublicKey)
}

func TestRestoreIsDeterministic(t *testing.T) {
	s := newTestStore()
	a, existed, err := s.Restore("flowcortex-l1", "correct horse battery staple", "")
	require.NoError(t, err)
	require.False(t, existed)
	b, existed, err := s.Restore("flowcortex-l1", "correct horse battery staple", "")
	require.NoError(t, err)
	require.True(t, existed)
	require.Equal(t, a.Address, b.Address)
	require.Equal(t, a.PublicKey, b.PublicKey)
}

func TestRestoreRequiresPassphrase(t *testing.T) {
	s := newTestStore()
	_, _, err := s.Restore("flowcortex-l1", "", "")
	require.ErrorIs(t, err, ErrPassphraseRequired)
}

func TestRenameUnknownWallet(t *testing.T) {
	s := newTestStore()
	err := s.Rename("0xdeadbeef", "label")
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestRenameRequiresNonEmptyLabel(t *testing.T) {
	s := newTestStore()
	rec, err := s.Create("flowcortex-l1", "")
	require.NoError(t, err)
	err = s.Rename(rec.Address, "")
	require.ErrorIs(t, err, ErrLabelRequired)
}

func TestListOrdersByAddress(t *testing.T) {
	s := newTestStore()
	_, err := s.Create("flowcortex-l1", "a")
	require.NoError(t, err)
	_, err = s.Create("flowcortex-l1", "b")
	require.NoError(t, err)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].Address < list[1].Address)
}

func TestOpenSeedRoundTripsThroughSign(t *testing.T) {
	s := newTestStore()
	rec, err := s.Create("flowcortex-l1", "")
	require.NoError(t, err)

	seed, err := s.OpenSeed(rec.Address)
	require.NoError(t, err)
	require.Len(t, seed, cryptokit.SeedSize)

	sig, err := cryptokit.Sign(cryptokit.PurposeTransaction, []byte("payload"), seed)
	require.NoError(t, err)
	require.NoError(t, cryptokit.Verify(cryptokit.PurposeTransaction, []byte("payload"), rec.PublicKey, sig[:]))
}

func TestGetMissingWallet(t *testing.T) {
	s := newTestStore()
	_, err := s.Get("0xnope")
	require.ErrorIs(t, err, ErrWalletNotFound)
}
