// Copyright 2025 Certen Protocol

package commitment

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWalletProofCommitmentMatchesReferenceVector(t *testing.T) {
	addr := "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"
	challenge := "550e8400-e29b-41d4-a716-446655440000"

	got := WalletProofCommitment(addr, challenge, true, "flowcortex-l1", "")

	expectedInput := "keycortex:proof:v1:" + addr + ":" + challenge + ":verified:flowcortex-l1"
	sum := sha256.Sum256([]byte(expectedInput))
	want := hex.EncodeToString(sum[:])

	require.Equal(t, want, got)
}

func TestWalletProofCommitmentIsPureFunctionOfInputs(t *testing.T) {
	a := WalletProofCommitment("0xabc", "chal-1", false, "flowcortex-l1", "0xhash")
	b := WalletProofCommitment("0xabc", "chal-1", false, "flowcortex-l1", "0xhash")
	require.Equal(t, a, b)
}

func TestWalletProofCommitmentDiffersByTxHashPresence(t *testing.T) {
	withoutHash := WalletProofCommitment("0xabc", "chal-1", true, "flowcortex-l1", "")
	withHash := WalletProofCommitment("0xabc", "chal-1", true, "flowcortex-l1", "0xhash")
	require.NotEqual(t, withoutHash, withHash)
}
