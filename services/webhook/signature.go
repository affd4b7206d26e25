package webhook

import (
	"context"
	"crypto"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

var (
	ErrBadSignature   = errors.New("signature mismatch")
	ErrStaleTimestamp = errors.New("timestamp outside replay window")
	ErrBadTimestamp   = errors.New("malformed timestamp")
)

// Verifier authenticates one webhook delivery. Implementations operate on the
// exact raw bytes as received: re-serializing a parsed body changes byte
// order and whitespace and breaks verification.
type Verifier interface {
	Verify(ctx context.Context, messageID, timestamp, signature string, body []byte) error
}

func checkReplayWindow(timestamp string, window time.Duration, now time.Time) error {
	ts, err := parseTimestamp(timestamp)
	if err != nil {
		return ErrBadTimestamp
	}

	drift := now.Sub(ts)
	if drift < 0 {
		drift = -drift
	}
	if drift > window {
		return ErrStaleTimestamp
	}
	return nil
}

func parseTimestamp(timestamp string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, timestamp); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, timestamp)
}

// HMACVerifier implements the shared-secret scheme: the signature header
// carries hex(HMAC-SHA256(secret, messageId + timestamp + rawBody)), with an
// optional "sha256=" prefix.
type HMACVerifier struct {
	secret []byte
	window time.Duration
	now    func() time.Time
}

func NewHMACVerifier(secret string, window time.Duration) *HMACVerifier {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &HMACVerifier{
		secret: []byte(secret),
		window: window,
		now:    time.Now,
	}
}

func (v *HMACVerifier) Verify(ctx context.Context, messageID, timestamp, signature string, body []byte) error {
	// Staleness rejects independently of signature validity.
	if err := checkReplayWindow(timestamp, v.window, v.now()); err != nil {
		return err
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	got := strings.TrimPrefix(signature, "sha256=")
	if !hmac.Equal([]byte(expected), []byte(got)) {
		return ErrBadSignature
	}
	return nil
}

// PublicKeySource supplies the provider's signing key, fetched and cached
// out-of-band.
type PublicKeySource interface {
	PublicKey(ctx context.Context) (*rsa.PublicKey, error)
}

// RSAVerifier implements the asymmetric scheme: base64 RSA-SHA256
// (PKCS#1 v1.5) over "messageId.timestamp.rawBody".
type RSAVerifier struct {
	keys   PublicKeySource
	window time.Duration
	now    func() time.Time
}

func NewRSAVerifier(keys PublicKeySource, window time.Duration) *RSAVerifier {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &RSAVerifier{
		keys:   keys,
		window: window,
		now:    time.Now,
	}
}

func (v *RSAVerifier) Verify(ctx context.Context, messageID, timestamp, signature string, body []byte) error {
	if err := checkReplayWindow(timestamp, v.window, v.now()); err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return ErrBadSignature
	}

	pub, err := v.keys.PublicKey(ctx)
	if err != nil {
		return err
	}

	payload := make([]byte, 0, len(messageID)+len(timestamp)+len(body)+2)
	payload = append(payload, messageID...)
	payload = append(payload, '.')
	payload = append(payload, timestamp...)
	payload = append(payload, '.')
	payload = append(payload, body...)

	digest := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return ErrBadSignature
	}
	return nil
}
