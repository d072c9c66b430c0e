// Copyright 2025 Certen Protocol

package jwtauth

import "errors"

// Error taxonomy for bearer-token validation and the ops-admin gate.
var (
	ErrMissingAuthorization = errors.New("missing Authorization header")
	ErrMalformedToken       = errors.New("malformed token")
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")
	ErrUnknownKid           = errors.New("unknown kid")
	ErrExpired              = errors.New("token expired")
	ErrInvalidIssuer        = errors.New("invalid issuer")
	ErrInvalidAudience      = errors.New("invalid audience")
	ErrInvalidSubject       = errors.New("invalid subject")
	ErrOpsAccessDenied      = errors.New("ops access denied")
)
