// Copyright 2025 Certen Protocol
//
// Package authadapter implements the challenge -> sign -> verify -> bind
// state machine that proves wallet ownership to an external identity
// provider and records the resulting user binding.

package authadapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/dualstore"
	"github.com/keycortex/wallet-service/pkg/keystore"
)

// Failure taxonomy for the verify step.
var (
	ErrChallengeNotFound    = errors.New("challenge not found")
	ErrChallengeExpired     = errors.New("challenge expired")
	ErrChallengeAlreadyUsed = errors.New("challenge already used")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrWalletKeyMismatch    = errors.New("wallet key mismatch")
	ErrSignatureInvalid     = errors.New("signature invalid")
)

// VerifyResult is returned on a successful verify.
type VerifyResult struct {
	Valid             bool
	WalletAddress     string
	VerifiedAtEpochMS int64
}

// Adapter drives the auth state machine over a dual-store and keystore.
type Adapter struct {
	store       *dualstore.DualStore
	keys        *keystore.Store
	callbackURL string
	httpClient  *http.Client
}

// New constructs an Adapter. callbackURL may be empty, in which case bind
// never attempts a notification.
func New(store *dualstore.DualStore, keys *keystore.Store, callbackURL string) *Adapter {
	return &Adapter{
		store:       store,
		keys:        keys,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Issue creates a fresh challenge nonce with the standard TTL.
func (a *Adapter) Issue(ctx context.Context) (nonce string, expiresIn time.Duration, err error) {
	nonce = uuid.NewString()
	now := time.Now().UTC()
	c, err := a.store.IssueChallenge(ctx, nonce, now)
	if err != nil {
		return "", 0, err
	}
	return c.Nonce, c.ExpiresAt.Sub(now), nil
}

// Verify checks signature against the wallet's public key under purpose
// auth, with the nonce as the signed payload, and atomically consumes the
// challenge on success. On any failure the challenge state is unchanged.
func (a *Adapter) Verify(ctx context.Context, address, nonce string, signature []byte) (VerifyResult, error) {
	wallet, err := a.keys.Get(address)
	if err != nil {
		if errors.Is(err, keystore.ErrWalletNotFound) {
			return VerifyResult{}, ErrWalletNotFound
		}
		return VerifyResult{}, err
	}
	if cryptokit.Address(wallet.PublicKey) != address {
		return VerifyResult{}, ErrWalletKeyMismatch
	}

	if err := cryptokit.Verify(cryptokit.PurposeAuth, []byte(nonce), wallet.PublicKey, signature); err != nil {
		return VerifyResult{}, ErrSignatureInvalid
	}

	now := time.Now().UTC()
	outcome, err := a.store.ConsumeChallenge(ctx, nonce, now)
	if err != nil {
		return VerifyResult{}, err
	}
	switch outcome {
	case domain.ConsumeNotFound:
		return VerifyResult{}, ErrChallengeNotFound
	case domain.ConsumeExpired:
		return VerifyResult{}, ErrChallengeExpired
	case domain.ConsumeAlreadyUsed:
		return VerifyResult{}, ErrChallengeAlreadyUsed
	case domain.ConsumeOK:
		_ = a.store.AppendAudit(ctx, domain.AuditEvent{
			EventType:     domain.EventAuthVerify,
			WalletAddress: address,
			Outcome:       domain.AuditSuccess,
			Timestamp:     now,
		})
		return VerifyResult{Valid: true, WalletAddress: address, VerifiedAtEpochMS: now.UnixMilli()}, nil
	default:
		return VerifyResult{}, fmt.Errorf("unexpected consume outcome %q", outcome)
	}
}

// Bind upserts the wallet-to-user binding after the caller has already
// been authenticated via JWT, then fires an optional, fire-and-forget
// callback notification. The callback's outcome never affects the caller.
func (a *Adapter) Bind(ctx context.Context, userID, address, chain string) error {
	_, err := a.keys.Get(address)
	if err != nil {
		if errors.Is(err, keystore.ErrWalletNotFound) {
			return ErrWalletNotFound
		}
		return err
	}

	now := time.Now().UTC()
	if err := a.store.UpsertBinding(ctx, domain.Binding{
		WalletAddress: address,
		UserID:        userID,
		Chain:         chain,
		VerifiedAt:    now,
	}); err != nil {
		return err
	}
	_ = a.store.AppendAudit(ctx, domain.AuditEvent{
		EventType:     domain.EventAuthBind,
		WalletAddress: address,
		UserID:        userID,
		Chain:         chain,
		Outcome:       domain.AuditSuccess,
		Timestamp:     now,
	})

	if a.callbackURL != "" {
		go a.notifyCallback(address, userID, chain)
	}
	return nil
}

func (a *Adapter) notifyCallback(address, userID, chain string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body := fmt.Sprintf(`{"wallet_address":%q,"user_id":%q,"chain":%q}`, address, userID, chain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.callbackURL, strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}
