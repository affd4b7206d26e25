package webhook

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// CachedKeySource fetches a PEM-encoded RSA public key over HTTP once and
// serves it from memory afterwards. Kick publishes its webhook signing key at
// a well-known endpoint.
type CachedKeySource struct {
	url    string
	client *http.Client

	mu  sync.Mutex
	key *rsa.PublicKey
}

func NewCachedKeySource(url string) *CachedKeySource {
	return &CachedKeySource{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *CachedKeySource) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		return s.key, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key endpoint returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}

	key, err := ParsePublicKey(raw)
	if err != nil {
		return nil, err
	}

	s.key = key
	return s.key, nil
}

// ParsePublicKey decodes a PEM-encoded PKIX or PKCS#1 RSA public key.
func ParsePublicKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in key material")
	}

	if parsed, err := x509.ParsePKIXPublicKey(block.Bytes); err == nil {
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("key is not RSA")
		}
		return key, nil
	}

	return x509.ParsePKCS1PublicKey(block.Bytes)
}

// StaticKeySource serves a fixed key. Used in tests and for pinned keys.
type StaticKeySource struct {
	Key *rsa.PublicKey
}

func (s StaticKeySource) PublicKey(ctx context.Context) (*rsa.PublicKey, error) {
	return s.Key, nil
}
