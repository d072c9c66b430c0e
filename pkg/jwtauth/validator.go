// Copyright 2025 Certen Protocol
//
// Package jwtauth validates bearer tokens against an RS256 JWKS (preferred)
// or a single configured HS256 secret (used only if a JWKS has never been
// successfully loaded), and gates operator endpoints behind an ops-admin
// role drawn from the union of a token's `role` and `roles` claims.

package jwtauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OpsAdminRole is the role required by operator endpoints.
const OpsAdminRole = "ops-admin"

// Claims is the validated, canonicalized view of a bearer token.
type Claims struct {
	Subject  string
	Issuer   string
	Audience string
	Roles    RoleSet
	Expiry   time.Time
}

// RoleSet is the canonical role representation built by unioning the
// `roles` array and the comma-separated `role` string.
type RoleSet map[string]bool

// Has reports whether role is present.
func (r RoleSet) Has(role string) bool { return r[role] }

// Validator verifies bearer tokens for the configured issuer/audience.
type Validator struct {
	jwks             *Cache
	hmacSecret       []byte
	expectedIssuer   string
	expectedAudience string
}

// NewValidator constructs a Validator. hmacSecret may be empty if only a
// JWKS is configured; jwks may have no source configured if only HMAC is
// used.
func NewValidator(jwks *Cache, hmacSecret, expectedIssuer, expectedAudience string) *Validator {
	return &Validator{
		jwks:             jwks,
		hmacSecret:       []byte(hmacSecret),
		expectedIssuer:   expectedIssuer,
		expectedAudience: expectedAudience,
	}
}

// ValidateRequest extracts and validates the bearer token from an HTTP
// request's Authorization header.
func (v *Validator) ValidateRequest(r *http.Request) (Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Claims{}, ErrMissingAuthorization
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return Claims{}, ErrMalformedToken
	}
	return v.Validate(strings.TrimPrefix(header, prefix))
}

// Validate parses and validates a raw bearer token string.
func (v *Validator) Validate(tokenString string) (Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrMalformedToken
	}

	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if errors.Is(err, ErrUnknownKid) || errors.Is(err, ErrUnsupportedAlgorithm) {
			return Claims{}, err
		}
		return Claims{}, ErrMalformedToken
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformedToken
	}

	sub, _ := mapClaims["sub"].(string)
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return Claims{}, ErrInvalidSubject
	}

	expFloat, ok := mapClaims["exp"].(float64)
	if !ok {
		return Claims{}, ErrExpired
	}
	exp := time.Unix(int64(expFloat), 0)
	if !exp.After(time.Now()) {
		return Claims{}, ErrExpired
	}

	iss, _ := mapClaims["iss"].(string)
	if v.expectedIssuer != "" && iss != v.expectedIssuer {
		return Claims{}, ErrInvalidIssuer
	}

	aud := audienceClaim(mapClaims["aud"])
	if v.expectedAudience != "" && !containsString(aud, v.expectedAudience) {
		return Claims{}, ErrInvalidAudience
	}

	return Claims{
		Subject:  sub,
		Issuer:   iss,
		Audience: v.expectedAudience,
		Roles:    rolesFromClaims(mapClaims),
		Expiry:   exp,
	}, nil
}

// keyfunc implements jwt.Keyfunc: RS256 tokens must resolve their kid in
// the JWKS cache or are rejected outright, even if HS256 is configured.
// HS256 is accepted only when no JWKS has ever loaded successfully.
func (v *Validator) keyfunc(token *jwt.Token) (interface{}, error) {
	switch token.Method.Alg() {
	case "RS256":
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKid
		}
		snap := v.jwks.Snapshot()
		key, ok := snap.keys[kid]
		if !ok {
			return nil, ErrUnknownKid
		}
		return key, nil
	case "HS256":
		if v.jwks.EverLoaded() {
			return nil, ErrUnsupportedAlgorithm
		}
		if len(v.hmacSecret) == 0 {
			return nil, ErrUnsupportedAlgorithm
		}
		return v.hmacSecret, nil
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// RequireOpsAdmin checks claims for the ops-admin role.
func RequireOpsAdmin(claims Claims) error {
	if !claims.Roles.Has(OpsAdminRole) {
		return ErrOpsAccessDenied
	}
	return nil
}

func rolesFromClaims(claims jwt.MapClaims) RoleSet {
	set := make(RoleSet)
	if arr, ok := claims["roles"].([]interface{}); ok {
		for _, r := range arr {
			if s, ok := r.(string); ok && s != "" {
				set[s] = true
			}
		}
	}
	if s, ok := claims["role"].(string); ok {
		for _, part := range strings.Split(s, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				set[part] = true
			}
		}
	}
	return set
}

func audienceClaim(raw interface{}) []string {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
