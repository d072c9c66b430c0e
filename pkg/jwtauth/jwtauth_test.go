// Copyright 2025 Certen Protocol

package jwtauth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func encodeRSAComponents(pub *rsa.PublicKey) (n, e string) {
	eBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(eBytes, uint64(pub.E))
	for len(eBytes) > 1 && eBytes[0] == 0 {
		eBytes = eBytes[1:]
	}
	return base64.RawURLEncoding.EncodeToString(pub.N.Bytes()), base64.RawURLEncoding.EncodeToString(eBytes)
}

func newRSAJWKSCache(t *testing.T, kid string, pub *rsa.PublicKey) *Cache {
	t.Helper()
	n, e := encodeRSAComponents(pub)
	doc := jwksDoc{Keys: []jwk{{Kty: "RSA", Kid: kid, N: n, E: e}}}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	c := NewCache("", "", string(raw), 10*time.Second)
	require.NoError(t, c.Refresh())
	return c
}

func signRS256(t *testing.T, priv *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(priv)
	require.NoError(t, err)
	return signed
}

func TestValidateRS256HappyPath(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "", "")

	token := signRS256(t, priv, "key-1", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestValidateRejectsUnknownKid(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "", "")

	token := signRS256(t, priv, "key-unknown", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = v.Validate(token)
	require.ErrorIs(t, err, ErrUnknownKid)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "", "")

	token := signRS256(t, priv, "key-1", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	_, err = v.Validate(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsMissingSubject(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "", "")

	token := signRS256(t, priv, "key-1", jwt.MapClaims{
		"sub": "   ",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err = v.Validate(token)
	require.ErrorIs(t, err, ErrInvalidSubject)
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "https://expected.example", "")

	token := signRS256(t, priv, "key-1", jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
		"iss": "https://other.example",
	})

	_, err = v.Validate(token)
	require.ErrorIs(t, err, ErrInvalidIssuer)
}

func TestHS256UsedOnlyWithoutJWKS(t *testing.T) {
	cache := NewCache("", "", "", 10*time.Second)
	v := NewValidator(cache, "topsecret", "", "")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("topsecret"))
	require.NoError(t, err)

	claims, err := v.Validate(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestRoleUnionFromArrayAndString(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cache := newRSAJWKSCache(t, "key-1", &priv.PublicKey)
	v := NewValidator(cache, "", "", "")

	token := signRS256(t, priv, "key-1", jwt.MapClaims{
		"sub":   "user-1",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": []interface{}{"ops-admin"},
		"role":  "billing-viewer",
	})

	claims, err := v.Validate(token)
	require.NoError(t, err)
	require.True(t, claims.Roles.Has("ops-admin"))
	require.True(t, claims.Roles.Has("billing-viewer"))
	require.NoError(t, RequireOpsAdmin(claims))
}

func TestRequireOpsAdminDenied(t *testing.T) {
	claims := Claims{Roles: RoleSet{"billing-viewer": true}}
	require.ErrorIs(t, RequireOpsAdmin(claims), ErrOpsAccessDenied)
}

func TestValidateRejectsMissingAuthorization(t *testing.T) {
	cache := NewCache("", "", "", 10*time.Second)
	v := NewValidator(cache, "", "", "")
	req := httptest.NewRequest("GET", "/ops/audit", nil)
	_, err := v.ValidateRequest(req)
	require.ErrorIs(t, err, ErrMissingAuthorization)
}
