package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const (
	defaultJWKSRefreshInterval = 5 * time.Minute
	maxJWKSBodySize            = 1 << 20
)

var errUnknownKID = errors.New("signing key not found in JWKS")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// JWKSClient caches the user pool's RSA signing keys. An unknown kid
// triggers at most one refetch per refresh interval so forged kids cannot
// drive traffic to the JWKS endpoint.
type JWKSClient struct {
	url             string
	httpClient      *http.Client
	refreshInterval time.Duration

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	lastFetch time.Time

	fetchMu sync.Mutex
}

type JWKSOption func(*JWKSClient)

func WithHTTPClient(c *http.Client) JWKSOption {
	return func(j *JWKSClient) { j.httpClient = c }
}

func WithRefreshInterval(d time.Duration) JWKSOption {
	return func(j *JWKSClient) { j.refreshInterval = d }
}

func NewJWKSClient(url string, opts ...JWKSOption) *JWKSClient {
	c := &JWKSClient{
		url:             url,
		httpClient:      &http.Client{Timeout: 10 * time.Second},
		refreshInterval: defaultJWKSRefreshInterval,
		keys:            make(map[string]*rsa.PublicKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *JWKSClient) GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if key, ok := c.cached(kid); ok {
		return key, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// A concurrent caller may have refreshed while we waited.
	if key, ok := c.cached(kid); ok {
		return key, nil
	}
	if !c.refreshDue() {
		return nil, fmt.Errorf("%w: kid %q", errUnknownKID, kid)
	}
	if err := c.refresh(ctx); err != nil {
		return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
	}

	if key, ok := c.cached(kid); ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", errUnknownKID, kid)
}

func (c *JWKSClient) cached(kid string) (*rsa.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.keys[kid]
	return key, ok
}

func (c *JWKSClient) refreshDue() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch.IsZero() || time.Since(c.lastFetch) > c.refreshInterval
}

func (c *JWKSClient) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	// Failed fetches count toward the rate limit too.
	c.mu.Lock()
	c.lastFetch = time.Now()
	c.mu.Unlock()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJWKSBodySize)).Decode(&set); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	c.mu.Lock()
	c.keys = keys
	c.mu.Unlock()
	return nil
}

func parseRSAPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, fmt.Errorf("unsupported exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
