// Copyright 2025 Certen Protocol

package kvdb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetHasDelete(t *testing.T) {
	a := NewMemoryStore()

	has, err := a.Has([]byte("k1"))
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, a.Set([]byte("k1"), []byte("v1")))

	has, err = a.Has([]byte("k1"))
	require.NoError(t, err)
	require.True(t, has)

	v, err := a.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)

	require.NoError(t, a.Delete([]byte("k1")))

	has, err = a.Has([]byte("k1"))
	require.NoError(t, err)
	require.False(t, has)
}

func TestScanReturnsOnlyMatchingPrefixInOrder(t *testing.T) {
	a := NewMemoryStore()
	require.NoError(t, a.Set([]byte("wallet:0xaaa"), []byte("1")))
	require.NoError(t, a.Set([]byte("wallet:0xbbb"), []byte("2")))
	require.NoError(t, a.Set([]byte("challenge:nonce1"), []byte("3")))

	pairs, err := a.Scan([]byte("wallet:"))
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	require.Equal(t, "wallet:0xaaa", string(pairs[0].Key))
	require.Equal(t, "wallet:0xbbb", string(pairs[1].Key))
}

func TestScanWithPrefixOfAllFFBytesScansToEnd(t *testing.T) {
	a := NewMemoryStore()
	require.NoError(t, a.Set([]byte{0xff, 0xff}, []byte("v")))
	require.NoError(t, a.Set([]byte{0xff, 0xff, 0x01}, []byte("v2")))

	pairs, err := a.Scan([]byte{0xff, 0xff})
	require.NoError(t, err)
	require.Len(t, pairs, 2)
}

func TestPrefixUpperBound(t *testing.T) {
	require.Equal(t, []byte("wallet;"), prefixUpperBound([]byte("wallet:")))
	require.Nil(t, prefixUpperBound([]byte{0xff, 0xff}))
	require.Equal(t, []byte{0x01}, prefixUpperBound([]byte{0x00}))
}

func TestAdapterWithNilUnderlyingDBIsSafe(t *testing.T) {
	a := &Adapter{}
	require.NoError(t, a.Close())
	require.NoError(t, a.Set([]byte("k"), []byte("v")))

	v, err := a.Get([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, v)

	pairs, err := a.Scan([]byte("k"))
	require.NoError(t, err)
	require.Nil(t, pairs)
}
