package auth

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	applog "coffeeshop/internal/log"
)

// KeySet maps a key id to its public key.
type KeySet map[string]crypto.PublicKey

type jsonWebKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

// ParseKeySet decodes a JWKS document. Only RSA signing keys are kept; keys
// without an id or intended for encryption are skipped.
func ParseKeySet(data []byte) (KeySet, error) {
	var doc jsonWebKeySet
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode key set: %w", err)
	}

	keys := make(KeySet, len(doc.Keys))
	for _, key := range doc.Keys {
		if key.Kid == "" || key.Kty != "RSA" || (key.Use != "" && key.Use != "sig") {
			continue
		}
		pub, err := rsaPublicKey(key.N, key.E)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key.Kid, err)
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, errors.New("key set contains no usable signing keys")
	}
	return keys, nil
}

func rsaPublicKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}
	exponent := new(big.Int).SetBytes(eBytes)
	if len(nBytes) == 0 || !exponent.IsInt64() || exponent.Int64() < 2 {
		return nil, errors.New("invalid rsa parameters")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: int(exponent.Int64())}, nil
}

// KeySource resolves signing keys by id.
type KeySource interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// Fetcher retrieves the raw JWKS document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPFetcher downloads a JWKS document from a well-known URL.
type HTTPFetcher struct {
	client *resty.Client
	url    string
}

// NewHTTPFetcher builds a fetcher for url. Requests are not retried.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &HTTPFetcher{client: client, url: url}
}

// Fetch performs the GET request and returns the body.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.url)
	if err != nil {
		return nil, fmt.Errorf("fetch key set: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch key set: unexpected status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// DocumentCache shares a raw JWKS document between processes.
type DocumentCache interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, doc []byte, ttl time.Duration) error
}

// CachingKeySource keeps the decoded key set in memory for TTL. A miss on an
// unknown key id forces a refetch. Fetch attempts, failed or not, happen at
// most once per MinRefresh, and only one fetch is in flight at a time.
// Callers that still hold a usable key never wait on that fetch.
type CachingKeySource struct {
	fetcher    Fetcher
	shared     DocumentCache
	ttl        time.Duration
	minRefresh time.Duration
	now        func() time.Time
	group      singleflight.Group

	mu          sync.Mutex
	keys        KeySet
	fetchedAt   time.Time
	lastAttempt time.Time
	lastErr     error
	refreshing  bool
}

// CacheOption customises a CachingKeySource.
type CacheOption func(*CachingKeySource)

// WithSharedCache consults cache before going to the fetcher.
func WithSharedCache(cache DocumentCache) CacheOption {
	return func(s *CachingKeySource) {
		s.shared = cache
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(s *CachingKeySource) {
		s.now = now
	}
}

// NewCachingKeySource wraps fetcher with a TTL cache.
func NewCachingKeySource(fetcher Fetcher, ttl, minRefresh time.Duration, opts ...CacheOption) *CachingKeySource {
	s := &CachingKeySource{
		fetcher:    fetcher,
		ttl:        ttl,
		minRefresh: minRefresh,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the public key for kid.
func (s *CachingKeySource) Key(ctx context.Context, kid string) (crypto.PublicKey, error) {
	s.mu.Lock()
	now := s.now()
	key, known := s.keys[kid]
	fresh := s.keys != nil && now.Sub(s.fetchedAt) < s.ttl
	throttled := !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.minRefresh
	inflight := s.refreshing
	lastErr := s.lastErr
	loaded := s.keys != nil
	s.mu.Unlock()

	if known && (fresh || throttled || inflight) {
		return key, nil
	}
	if throttled && !inflight {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, lastErr)
		}
		if loaded {
			return nil, ErrUnknownSigningKey
		}
	}

	// A fresh set that lacks kid means the shared copy is stale too.
	err := s.refresh(ctx, !fresh)

	s.mu.Lock()
	key, known = s.keys[kid]
	s.mu.Unlock()

	if err != nil {
		if known {
			applog.Error(ctx, "key set refresh failed, serving cached key", "error", err, "kid", kid)
			return key, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrKeySetUnavailable, err)
	}
	if !known {
		return nil, ErrUnknownSigningKey
	}
	return key, nil
}

// refresh loads a new key set, joining a fetch already in flight. The mutex
// is only held to publish the result.
func (s *CachingKeySource) refresh(ctx context.Context, useShared bool) error {
	_, err, _ := s.group.Do("keyset", func() (any, error) {
		s.mu.Lock()
		s.refreshing = true
		s.lastAttempt = s.now()
		s.mu.Unlock()

		keys, err := s.load(ctx, useShared)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.refreshing = false
		s.lastErr = err
		if err != nil {
			return nil, err
		}
		s.keys = keys
		s.fetchedAt = s.now()
		return nil, nil
	})
	return err
}

func (s *CachingKeySource) load(ctx context.Context, useShared bool) (KeySet, error) {
	if useShared && s.shared != nil {
		doc, err := s.shared.Get(ctx)
		if err != nil {
			applog.Error(ctx, "shared key set cache unavailable", "error", err)
		} else if doc != nil {
			if keys, err := ParseKeySet(doc); err == nil {
				applog.Debug(ctx, "key set loaded from shared cache", "keys", len(keys))
				return keys, nil
			}
		}
	}

	doc, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := ParseKeySet(doc)
	if err != nil {
		return nil, err
	}
	applog.Debug(ctx, "key set fetched", "keys", len(keys))

	if s.shared != nil {
		if err := s.shared.Set(ctx, doc, s.ttl); err != nil {
			applog.Error(ctx, "failed to store key set in shared cache", "error", err)
		}
	}
	return keys, nil
}

// StaticKeySource serves a fixed key set. Useful for tests and for
// deployments that pin keys in configuration.
type StaticKeySource KeySet

// Key implements KeySource.
func (s StaticKeySource) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	key, ok := s[kid]
	if !ok {
		return nil, ErrUnknownSigningKey
	}
	return key, nil
}
