// Copyright 2025 Certen Protocol
//
// Shared JSON request/response helpers for the orchestration API surface.
// Every error body follows the closed wire shape {"error": "<message>"}.

package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keycortex/wallet-service/pkg/authadapter"
	"github.com/keycortex/wallet-service/pkg/cryptokit"
	"github.com/keycortex/wallet-service/pkg/jwtauth"
	"github.com/keycortex/wallet-service/pkg/keystore"
	"github.com/keycortex/wallet-service/pkg/walletledger"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

// writeDomainError classifies a component-level sentinel error into the
// closed HTTP status taxonomy from the error handling design and writes the
// response. Unrecognised errors are treated as dependency errors (500).
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, keystore.ErrWalletNotFound),
		errors.Is(err, authadapter.ErrWalletNotFound),
		errors.Is(err, walletledger.ErrWalletNotFound),
		errors.Is(err, walletledger.ErrTransactionNotFound),
		errors.Is(err, authadapter.ErrChallengeNotFound):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, keystore.ErrLabelRequired),
		errors.Is(err, keystore.ErrPassphraseRequired),
		errors.Is(err, walletledger.ErrInvalidInput),
		errors.Is(err, walletledger.ErrChainUnsupported),
		errors.Is(err, walletledger.ErrAssetUnsupported),
		errors.Is(err, walletledger.ErrNonceReplay),
		errors.Is(err, walletledger.ErrWalletKeyMismatch),
		errors.Is(err, authadapter.ErrWalletKeyMismatch),
		errors.Is(err, authadapter.ErrChallengeExpired),
		errors.Is(err, authadapter.ErrChallengeAlreadyUsed),
		errors.Is(err, authadapter.ErrSignatureInvalid):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, jwtauth.ErrMissingAuthorization),
		errors.Is(err, jwtauth.ErrMalformedToken),
		errors.Is(err, jwtauth.ErrUnsupportedAlgorithm),
		errors.Is(err, jwtauth.ErrUnknownKid),
		errors.Is(err, jwtauth.ErrExpired),
		errors.Is(err, jwtauth.ErrInvalidIssuer),
		errors.Is(err, jwtauth.ErrInvalidAudience),
		errors.Is(err, jwtauth.ErrInvalidSubject),
		errors.Is(err, jwtauth.ErrOpsAccessDenied):
		writeError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, cryptokit.ErrKeyMaterialInvalid),
		errors.Is(err, cryptokit.ErrSignatureInvalid),
		errors.Is(err, cryptokit.ErrEncryptedSecretMalformed):
		writeError(w, http.StatusInternalServerError, err.Error())

	case errors.Is(err, walletledger.ErrChainSubmitFailed):
		writeError(w, http.StatusInternalServerError, err.Error())

	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
