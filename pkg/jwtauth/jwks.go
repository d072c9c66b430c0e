// Copyright 2025 Certen Protocol
//
// JWKS acquisition and refresh. Reads are lock-free against an immutable
// snapshot; refresh builds a new snapshot and atomically publishes it.

package jwtauth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// snapshot is the immutable, atomically published view of the active
// verification keys.
type snapshot struct {
	keys        map[string]*rsa.PublicKey
	loadedAt    time.Time
	source      string
	lastError   string
	everLoaded  bool
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDoc struct {
	Keys []jwk `json:"keys"`
}

// Cache holds the current JWKS snapshot and knows how to refresh itself
// from whichever source was configured, in priority order: HTTPS URL,
// local file, inline JSON.
type Cache struct {
	url          string
	filePath     string
	inlineJSON   string
	refreshEvery time.Duration
	httpClient   *http.Client

	current atomic.Pointer[snapshot]
}

// minRefreshInterval is the floor enforced on the configured refresh
// interval regardless of caller input.
const minRefreshInterval = 10 * time.Second

// NewCache constructs a Cache. refreshEvery is clamped to a 10-second
// floor. If no source is configured, the cache stays permanently empty
// and HS256 remains the only viable verification path.
func NewCache(url, filePath, inlineJSON string, refreshEvery time.Duration) *Cache {
	if refreshEvery < minRefreshInterval {
		refreshEvery = minRefreshInterval
	}
	c := &Cache{
		url:          url,
		filePath:     filePath,
		inlineJSON:   inlineJSON,
		refreshEvery: refreshEvery,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
	}
	c.current.Store(&snapshot{keys: map[string]*rsa.PublicKey{}})
	return c
}

// Configured reports whether any JWKS source was given.
func (c *Cache) Configured() bool {
	return c.url != "" || c.filePath != "" || c.inlineJSON != ""
}

// Snapshot returns the current immutable key set.
func (c *Cache) Snapshot() *snapshot {
	return c.current.Load()
}

// EverLoaded reports whether a JWKS has ever been successfully parsed,
// which governs whether HS256 fallback is permitted.
func (c *Cache) EverLoaded() bool {
	return c.current.Load().everLoaded
}

// Diagnostics is the JSON-serializable view of the cache's state surfaced
// via /health and /startupz: key count, source, last refresh, last error.
type Diagnostics struct {
	Configured bool      `json:"configured"`
	EverLoaded bool      `json:"ever_loaded"`
	KeyCount   int       `json:"key_count"`
	Source     string    `json:"source,omitempty"`
	LoadedAt   time.Time `json:"loaded_at,omitempty"`
	LastError  string    `json:"last_jwks_error,omitempty"`
}

// Diagnostics returns a point-in-time snapshot of the cache's health.
func (c *Cache) Diagnostics() Diagnostics {
	snap := c.current.Load()
	return Diagnostics{
		Configured: c.Configured(),
		EverLoaded: snap.everLoaded,
		KeyCount:   len(snap.keys),
		Source:     snap.source,
		LoadedAt:   snap.loadedAt,
		LastError:  snap.lastError,
	}
}

// Refresh fetches and parses the configured source, applying bounded retry
// with exponential backoff for the HTTPS path. On persistent failure the
// prior snapshot is retained and last_jwks_error is recorded.
func (c *Cache) Refresh() error {
	doc, source, err := c.fetch()
	if err != nil {
		prev := c.current.Load()
		next := *prev
		next.lastError = err.Error()
		c.current.Store(&next)
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := rsaPublicKeyFromJWK(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.current.Store(&snapshot{
		keys:       keys,
		loadedAt:   time.Now().UTC(),
		source:     source,
		everLoaded: true,
	})
	return nil
}

// StartBackground runs Refresh once immediately and then on the configured
// interval until stop is closed. Callers that only need JWKS at startup may
// call Refresh directly instead.
func (c *Cache) StartBackground(stop <-chan struct{}) {
	if !c.Configured() {
		return
	}
	_ = c.Refresh()
	ticker := time.NewTicker(c.refreshEvery)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = c.Refresh()
			}
		}
	}()
}

func (c *Cache) fetch() (jwksDoc, string, error) {
	switch {
	case c.url != "":
		return c.fetchHTTP()
	case c.filePath != "":
		return c.fetchFile()
	case c.inlineJSON != "":
		var doc jwksDoc
		if err := json.Unmarshal([]byte(c.inlineJSON), &doc); err != nil {
			return jwksDoc{}, "inline", err
		}
		return doc, "inline", nil
	default:
		return jwksDoc{}, "", fmt.Errorf("no JWKS source configured")
	}
}

func (c *Cache) fetchFile() (jwksDoc, string, error) {
	f, err := os.Open(c.filePath)
	if err != nil {
		return jwksDoc{}, "file", err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return jwksDoc{}, "file", err
	}
	var doc jwksDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return jwksDoc{}, "file", err
	}
	return doc, "file", nil
}

// fetchHTTP applies bounded retry with exponential backoff: 3 attempts,
// starting at 200ms and doubling.
func (c *Cache) fetchHTTP() (jwksDoc, string, error) {
	var lastErr error
	backoff := 200 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff *= 2
		}
		resp, err := c.httpClient.Get(c.url)
		if err != nil {
			lastErr = err
			continue
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("jwks fetch: unexpected status %d", resp.StatusCode)
			continue
		}
		var doc jwksDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			lastErr = err
			continue
		}
		return doc, "https", nil
	}
	return jwksDoc{}, "https", lastErr
}

func rsaPublicKeyFromJWK(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	padded := make([]byte, 8)
	copy(padded[8-len(eBytes):], eBytes)
	e := int(binary.BigEndian.Uint64(padded))

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
