// Copyright 2025 Certen Protocol
//
// Unit tests for the orchestration API surface. Exercises the HTTP surface
// end to end against in-memory/embedded-only backing stores, matching the
// teacher's no-database handler test style.

package server

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/keycortex/wallet-service/pkg/authadapter"
	"github.com/keycortex/wallet-service/pkg/chainadapter"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/kvdb"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

func newTestMux(t *testing.T) *http.ServeMux {
	t.Helper()
	kv := kvdb.NewMemoryStore()
	keys := keystore.New(kv, []byte("0123456789abcdef0123456789abcdef"), 4)
	store := dualstore.New(kv, nil, nil)
	chain := chainadapter.NewFlowCortex()
	ledger := walletledger.New(kv, keys, chain, chainadapter.FlowCortexChainID)
	jwks := jwtauth.NewCache("", "", "", 0)
	validator := jwtauth.NewValidator(jwks, "test-hmac-secret", "", "")
	auth := authadapter.New(store, keys, "")
	diag := NewDiagnosticsHandlers(store, jwks, chainadapter.FlowCortexChainID, PostgresStartup{Enabled: false})
	diag.MarkReady()

	return NewMux(Dependencies{
		Keys:      keys,
		Ledger:    ledger,
		Chain:     chain,
		Auth:      auth,
		Validator: validator,
		JWKS:      jwks,
		Store:     store,
		Diag:      diag,
	})
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestWalletCreateAndList(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodPost, "/wallet/create", map[string]string{"label": "primary"}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var created walletResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.WalletAddress == "" {
		t.Fatal("expected non-empty wallet address")
	}

	rr = doJSON(t, mux, http.MethodGet, "/wallet/list", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestWalletCreateWithPassphraseIsIdempotent(t *testing.T) {
	mux := newTestMux(t)

	body := map[string]string{"passphrase": "correct horse battery staple"}
	first := doJSON(t, mux, http.MethodPost, "/wallet/create", body, nil)
	second := doJSON(t, mux, http.MethodPost, "/wallet/create", body, nil)

	var a, b walletResponse
	_ = json.Unmarshal(first.Body.Bytes(), &a)
	_ = json.Unmarshal(second.Body.Bytes(), &b)

	if a.WalletAddress != b.WalletAddress {
		t.Fatalf("expected same address, got %s and %s", a.WalletAddress, b.WalletAddress)
	}
	if b.AlreadyExisted != true {
		t.Fatal("expected already_existed=true on second create")
	}
}

func TestAuthChallengeVerifyRoundTrip(t *testing.T) {
	mux := newTestMux(t)

	createRR := doJSON(t, mux, http.MethodPost, "/wallet/create", map[string]string{}, nil)
	var wallet walletResponse
	_ = json.Unmarshal(createRR.Body.Bytes(), &wallet)

	challengeRR := doJSON(t, mux, http.MethodPost, "/auth/challenge", map[string]string{}, nil)
	var challenge struct {
		Nonce string `json:"nonce"`
	}
	_ = json.Unmarshal(challengeRR.Body.Bytes(), &challenge)

	pub, _ := hex.DecodeString(wallet.PublicKey)
	_ = pub // public key not needed client-side for this test; signing happens via /wallet/sign

	signRR := doJSON(t, mux, http.MethodPost, "/wallet/sign", map[string]string{
		"wallet_address": wallet.WalletAddress,
		"purpose":        "auth",
		"payload_base64": b64(challenge.Nonce),
	}, nil)
	var signed struct {
		Signature string `json:"signature"`
	}
	_ = json.Unmarshal(signRR.Body.Bytes(), &signed)

	verifyRR := doJSON(t, mux, http.MethodPost, "/auth/verify", map[string]string{
		"wallet_address": wallet.WalletAddress,
		"nonce":          challenge.Nonce,
		"signature":      signed.Signature,
	}, nil)
	if verifyRR.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", verifyRR.Code, verifyRR.Body.String())
	}

	replayRR := doJSON(t, mux, http.MethodPost, "/auth/verify", map[string]string{
		"wallet_address": wallet.WalletAddress,
		"nonce":          challenge.Nonce,
		"signature":      signed.Signature,
	}, nil)
	if replayRR.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on replay, got %d", replayRR.Code)
	}
}

func TestOpsAuditWithoutAuthorizationIsDenied(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodGet, "/ops/audit", nil, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestSubmitRejectsUnsupportedChain(t *testing.T) {
	mux := newTestMux(t)
	createRR := doJSON(t, mux, http.MethodPost, "/wallet/create", map[string]string{}, nil)
	var wallet walletResponse
	_ = json.Unmarshal(createRR.Body.Bytes(), &wallet)

	rr := doJSON(t, mux, http.MethodPost, "/wallet/submit", map[string]interface{}{
		"from":   wallet.WalletAddress,
		"to":     "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		"amount": "100",
		"asset":  "PROOF",
		"chain":  "ethereum-mainnet",
		"nonce":  1,
	}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndReadyz(t *testing.T) {
	mux := newTestMux(t)

	rr := doJSON(t, mux, http.MethodGet, "/health", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = doJSON(t, mux, http.MethodGet, "/readyz", nil, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestProofCommitmentDeterministic(t *testing.T) {
	mux := newTestMux(t)

	body := map[string]interface{}{
		"wallet_address":      "0xa1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2",
		"challenge":           "550e8400-e29b-41d4-a716-446655440000",
		"verification_result": true,
		"chain":               "flowcortex-l1",
	}
	rr := doJSON(t, mux, http.MethodPost, "/proofcortex/commitment", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Commitment string `json:"commitment"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if len(resp.Commitment) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(resp.Commitment))
	}

	rr2 := doJSON(t, mux, http.MethodPost, "/proofcortex/commitment", body, nil)
	var resp2 struct {
		Commitment string `json:"commitment"`
	}
	_ = json.Unmarshal(rr2.Body.Bytes(), &resp2)
	if resp.Commitment != resp2.Commitment {
		t.Fatal("expected commitment to be a deterministic function of its inputs")
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
