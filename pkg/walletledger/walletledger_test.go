// Copyright 2025 Certen Protocol

package walletledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

func newTestLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	kv := kvdb.NewMemoryStore()
	keys := keystore.New(kv, []byte("0123456789abcdef0123456789abcdef"), 4)
	rec, err := keys.Create(chainadapter.FlowCortexChainID, "")
	require.NoError(t, err)
	chain := chainadapter.NewFlowCortex()
	return New(kv, keys, chain, chainadapter.FlowCortexChainID), rec.Address
}

func baseRequest(from string) SubmitRequest {
	return SubmitRequest{
		From:   from,
		To:     "0xrecipient",
		Amount: "100",
		Asset:  "PROOF",
		Chain:  chainadapter.FlowCortexChainID,
		Nonce:  1,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	l, addr := newTestLedger(t)
	resp, err := l.Submit(context.Background(), baseRequest(addr))
	require.NoError(t, err)
	require.True(t, resp.Accepted)
	require.NotEmpty(t, resp.TxHash)

	next, err := l.NextNonce(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
}

func TestSubmitRejectsNonceReplay(t *testing.T) {
	l, addr := newTestLedger(t)
	_, err := l.Submit(context.Background(), baseRequest(addr))
	require.NoError(t, err)

	_, err = l.Submit(context.Background(), baseRequest(addr))
	require.ErrorIs(t, err, ErrNonceReplay)
}

func TestSubmitRejectsZeroNonce(t *testing.T) {
	l, addr := newTestLedger(t)
	req := baseRequest(addr)
	req.Nonce = 0
	_, err := l.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubmitRejectsUnsupportedChain(t *testing.T) {
	l, addr := newTestLedger(t)
	req := baseRequest(addr)
	req.Chain = "ethereum-mainnet"
	_, err := l.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrChainUnsupported)
}

func TestSubmitRejectsUnsupportedAsset(t *testing.T) {
	l, addr := newTestLedger(t)
	req := baseRequest(addr)
	req.Asset = "USDC"
	_, err := l.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrAssetUnsupported)
}

func TestSubmitRejectsUnknownWallet(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.Submit(context.Background(), baseRequest("0xnotcustodied"))
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestSubmitIdempotencyKeyReturnsSameResponse(t *testing.T) {
	l, addr := newTestLedger(t)
	req := baseRequest(addr)
	req.IdempotencyKey = "key-1"

	first, err := l.Submit(context.Background(), req)
	require.NoError(t, err)

	second, err := l.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, first, second)

	next, err := l.NextNonce(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(2), next)
}

func TestSubmitSameNonceAgainWithoutIdempotencyKeyReplays(t *testing.T) {
	l, addr := newTestLedger(t)
	req := baseRequest(addr)
	req.IdempotencyKey = "key-1"
	_, err := l.Submit(context.Background(), req)
	require.NoError(t, err)

	req.IdempotencyKey = ""
	_, err = l.Submit(context.Background(), req)
	require.ErrorIs(t, err, ErrNonceReplay)
}

func TestGetTransactionRefreshesStatus(t *testing.T) {
	l, addr := newTestLedger(t)
	resp, err := l.Submit(context.Background(), baseRequest(addr))
	require.NoError(t, err)

	tx, err := l.GetTransaction(context.Background(), resp.TxHash)
	require.NoError(t, err)
	require.Equal(t, resp.TxHash, tx.TxHash)
}

func TestGetTransactionNotFound(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.GetTransaction(context.Background(), "0xmissing")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

// TestConcurrentSubmitsForSameWalletAreTotallyOrdered races several submits
// carrying distinct nonces against one wallet. Whatever order the per-wallet
// lock admits them in, a submit whose nonce is not above the last accepted
// one fails with ErrNonceReplay, the highest nonce always succeeds, and the
// ledger ends up advanced to it, matching the per-wallet critical-section
// ordering guarantee.
func TestConcurrentSubmitsForSameWalletAreTotallyOrdered(t *testing.T) {
	l, addr := newTestLedger(t)

	const n = 10
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := baseRequest(addr)
			req.Nonce = uint64(i + 1)
			_, results[i] = l.Submit(context.Background(), req)
		}(i)
	}
	wg.Wait()

	for i, err := range results {
		if err != nil {
			require.ErrorIsf(t, err, ErrNonceReplay, "submit with nonce %d failed with an unexpected error", i+1)
		}
	}
	require.NoErrorf(t, results[n-1], "submit with the highest nonce %d should have succeeded", n)

	next, err := l.NextNonce(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(n+1), next)
}
