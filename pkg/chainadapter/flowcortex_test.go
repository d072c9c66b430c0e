// Copyright 2025 Certen Protocol

package chainadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubmitTransactionIsIdempotentOnNonce(t *testing.T) {
	c := NewFlowCortex()
	req := SubmitRequest{From: "0xabc", To: "0xdef", Amount: "10", Asset: "PROOF", Chain: FlowCortexChainID, Nonce: 1, Payload: "p", Signature: "s"}

	hash1, accepted1, err := c.SubmitTransaction(context.Background(), req)
	require.NoError(t, err)
	require.True(t, accepted1)

	hash2, accepted2, err := c.SubmitTransaction(context.Background(), req)
	require.NoError(t, err)
	require.True(t, accepted2)
	require.Equal(t, hash1, hash2)
}

func TestGetBalanceDefaultsToZero(t *testing.T) {
	c := NewFlowCortex()
	bal, err := c.GetBalance(context.Background(), "0xabc", "PROOF")
	require.NoError(t, err)
	require.Equal(t, "0", bal)
}

func TestGetTransactionStatusUnknownHash(t *testing.T) {
	c := NewFlowCortex()
	_, accepted, err := c.GetTransactionStatus(context.Background(), "0xnope")
	require.NoError(t, err)
	require.False(t, accepted)
}

func TestSetBalanceSeedsGetBalance(t *testing.T) {
	c := NewFlowCortex()
	c.SetBalance("0xabc", "PROOF", "500")

	bal, err := c.GetBalance(context.Background(), "0xabc", "PROOF")
	require.NoError(t, err)
	require.Equal(t, "500", bal)
}

func TestAdvanceStatus(t *testing.T) {
	c := NewFlowCortex()
	req := SubmitRequest{From: "0xabc", To: "0xdef", Amount: "10", Asset: "PROOF", Chain: FlowCortexChainID, Nonce: 1, Payload: "p", Signature: "s"}
	hash, _, err := c.SubmitTransaction(context.Background(), req)
	require.NoError(t, err)

	c.AdvanceStatus(hash, StatusConfirmed)
	status, accepted, err := c.GetTransactionStatus(context.Background(), hash)
	require.NoError(t, err)
	require.True(t, accepted)
	require.Equal(t, StatusConfirmed, status)
}
