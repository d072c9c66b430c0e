// Copyright 2025 Certen Protocol
//
// Package keystore manages the embedded-only inventory of wallet key
// material: address -> encrypted seed, plus a mutable human label. Unlike
// bindings and audit, wallet key material has no relational mirror; the
// embedded store is its only home.

package keystore

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/domain"
	"github.com/keycortex/wallet-service/pkg/kvdb"
)

const (
	prefixKey   = "wallet-key:"
	prefixLabel = "wallet-label:"
)

// Sentinel errors for keystore operations.
var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrLabelRequired      = errors.New("label required")
	ErrPassphraseRequired = errors.New("passphrase required")
)

// Store is the embedded wallet key inventory.
type Store struct {
	kv           kvdb.KV
	serverEncKey []byte
	kdfRounds    int
}

// New constructs a Store. serverEncKey is the server-scoped encryption key
// used to seal/open every wallet's signing seed at rest; kdfRounds is the
// passphrase stretch round count applied by Restore (reference value 1000).
func New(kv kvdb.KV, serverEncKey []byte, kdfRounds int) *Store {
	return &Store{kv: kv, serverEncKey: serverEncKey, kdfRounds: kdfRounds}
}

// Create generates a fresh Ed25519 keypair, seals its seed, and persists it
// under the derived address. label may be empty.
func (s *Store) Create(chain, label string) (domain.WalletRecord, error) {
	kp, err := cryptokit.GenerateKeypair()
	if err != nil {
		return domain.WalletRecord{}, err
	}
	return s.persist(kp, chain, label)
}

// Restore derives a keypair deterministically from passphrase and persists
// it. If a record already exists at the derived address, it is left
// untouched (the label is never overwritten by a restore) and
// alreadyExisted is true.
func (s *Store) Restore(chain, passphrase, label string) (rec domain.WalletRecord, alreadyExisted bool, err error) {
	if passphrase == "" {
		return domain.WalletRecord{}, false, ErrPassphraseRequired
	}
	kp := cryptokit.DeriveFromPassphrase(passphrase, s.kdfRounds)
	addr := cryptokit.Address(kp.PublicKey[:])

	if existing, getErr := s.Get(addr); getErr == nil {
		return existing, true, nil
	} else if !errors.Is(getErr, ErrWalletNotFound) {
		return domain.WalletRecord{}, false, getErr
	}

	rec, err = s.persist(kp, chain, label)
	return rec, false, err
}

func (s *Store) persist(kp cryptokit.Keypair, chain, label string) (domain.WalletRecord, error) {
	seed := append([]byte(nil), kp.Seed[:]...)
	enc, err := cryptokit.SealSecret(s.serverEncKey, seed)
	cryptokit.Zero(seed)
	if err != nil {
		return domain.WalletRecord{}, err
	}

	addr := cryptokit.Address(kp.PublicKey[:])
	rec := walletRow{
		Address:    addr,
		Ciphertext: enc.Ciphertext,
		PublicKey:  append([]byte(nil), kp.PublicKey[:]...),
		Chain:      chain,
		CreatedAt:  time.Now().UTC(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return domain.WalletRecord{}, err
	}
	if err := s.kv.Set([]byte(prefixKey+addr), raw); err != nil {
		return domain.WalletRecord{}, err
	}
	if label != "" {
		if err := s.kv.Set([]byte(prefixLabel+addr), []byte(label)); err != nil {
			return domain.WalletRecord{}, err
		}
	}

	return domain.WalletRecord{
		Address:   addr,
		PublicKey: rec.PublicKey,
		Label:     label,
		Chain:     chain,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// Rename overwrites the label for an existing wallet. An empty label is
// rejected with ErrLabelRequired. The address must already exist.
func (s *Store) Rename(address, label string) error {
	if label == "" {
		return ErrLabelRequired
	}
	has, err := s.kv.Has([]byte(prefixKey + address))
	if err != nil {
		return err
	}
	if !has {
		return ErrWalletNotFound
	}
	return s.kv.Set([]byte(prefixLabel+address), []byte(label))
}

// Get returns the wallet record for address, including its current label.
func (s *Store) Get(address string) (domain.WalletRecord, error) {
	raw, err := s.kv.Get([]byte(prefixKey + address))
	if err != nil {
		return domain.WalletRecord{}, err
	}
	if raw == nil {
		return domain.WalletRecord{}, ErrWalletNotFound
	}
	var rec walletRow
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.WalletRecord{}, err
	}
	label, err := s.label(address)
	if err != nil {
		return domain.WalletRecord{}, err
	}
	return domain.WalletRecord{
		Address:   rec.Address,
		PublicKey: rec.PublicKey,
		Label:     label,
		Chain:     rec.Chain,
		CreatedAt: rec.CreatedAt,
	}, nil
}

// List returns every wallet record, ordered by address.
func (s *Store) List() ([]domain.WalletRecord, error) {
	pairs, err := s.kv.Scan([]byte(prefixKey))
	if err != nil {
		return nil, err
	}
	out := make([]domain.WalletRecord, 0, len(pairs))
	for _, p := range pairs {
		var rec walletRow
		if err := json.Unmarshal(p.Value, &rec); err != nil {
			continue
		}
		label, err := s.label(rec.Address)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WalletRecord{
			Address:   rec.Address,
			PublicKey: rec.PublicKey,
			Label:     label,
			Chain:     rec.Chain,
			CreatedAt: rec.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// OpenSeed returns the decrypted 32-byte signing seed for address. Callers
// must zero the returned slice as soon as they are done with it.
func (s *Store) OpenSeed(address string) ([]byte, error) {
	raw, err := s.kv.Get([]byte(prefixKey + address))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrWalletNotFound
	}
	var rec walletRow
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return cryptokit.OpenSecret(s.serverEncKey, cryptokit.EncryptedSecret{Ciphertext: rec.Ciphertext})
}

func (s *Store) label(address string) (string, error) {
	raw, err := s.kv.Get([]byte(prefixLabel + address))
	if err != nil {
		return "", err
	}
	if raw == nil {
		return "", nil
	}
	return string(raw), nil
}

// walletRow is the JSON shape actually stored; kept distinct from
// domain.WalletRecord since the ciphertext must never leave this package.
type walletRow struct {
	Address    string    `json:"wallet_address"`
	Ciphertext []byte    `json:"ciphertext"`
	PublicKey  []byte    `json:"public_key"`
	Chain      string    `json:"chain"`
	CreatedAt  time.Time `json:"created_at"`
}
