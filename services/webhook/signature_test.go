package webhook

import (
	"context"
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func hmacSign(secret, messageID, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(messageID))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACVerify(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("topsecret", 10*time.Minute)
	v.now = func() time.Time { return now }

	body := []byte(`{"event":"follow"}`)
	ts := now.Format(time.RFC3339)
	sig := hmacSign("topsecret", "msg-1", ts, body)

	require.NoError(t, v.Verify(context.Background(), "msg-1", ts, sig, body))
	require.NoError(t, v.Verify(context.Background(), "msg-1", ts, "sha256="+sig, body))
}

func TestHMACVerifyRejectsTamperedBody(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("topsecret", 10*time.Minute)
	v.now = func() time.Time { return now }

	ts := now.Format(time.RFC3339)
	sig := hmacSign("topsecret", "msg-1", ts, []byte(`{"amount":1}`))

	err := v.Verify(context.Background(), "msg-1", ts, sig, []byte(`{"amount":9999}`))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestHMACVerifyRejectsWrongSecret(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("topsecret", 10*time.Minute)
	v.now = func() time.Time { return now }

	body := []byte(`{}`)
	ts := now.Format(time.RFC3339)
	sig := hmacSign("othersecret", "msg-1", ts, body)

	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", ts, sig, body), ErrBadSignature)
}

func TestHMACVerifyReplayWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewHMACVerifier("topsecret", 10*time.Minute)
	v.now = func() time.Time { return now }

	body := []byte(`{}`)

	// Stale beats a valid signature.
	stale := now.Add(-11 * time.Minute).Format(time.RFC3339)
	sig := hmacSign("topsecret", "msg-1", stale, body)
	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", stale, sig, body), ErrStaleTimestamp)

	// Future drift past the window is rejected too.
	future := now.Add(11 * time.Minute).Format(time.RFC3339)
	sig = hmacSign("topsecret", "msg-1", future, body)
	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", future, sig, body), ErrStaleTimestamp)

	// Inside the window on either side passes.
	recent := now.Add(-9 * time.Minute).Format(time.RFC3339)
	sig = hmacSign("topsecret", "msg-1", recent, body)
	require.NoError(t, v.Verify(context.Background(), "msg-1", recent, sig, body))
}

func TestHMACVerifyMalformedTimestamp(t *testing.T) {
	v := NewHMACVerifier("topsecret", 10*time.Minute)
	err := v.Verify(context.Background(), "msg-1", "yesterday", "sig", nil)
	require.ErrorIs(t, err, ErrBadTimestamp)
}

func rsaSign(t *testing.T, key *rsa.PrivateKey, messageID, timestamp string, body []byte) string {
	t.Helper()
	payload := messageID + "." + timestamp + "." + string(body)
	digest := sha256.Sum256([]byte(payload))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(sig)
}

func TestRSAVerify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewRSAVerifier(StaticKeySource{Key: &key.PublicKey}, 10*time.Minute)
	v.now = func() time.Time { return now }

	body := []byte(`{"event":"channel.followed"}`)
	ts := now.Format(time.RFC3339)
	sig := rsaSign(t, key, "msg-1", ts, body)

	require.NoError(t, v.Verify(context.Background(), "msg-1", ts, sig, body))

	// Any altered component breaks the signature.
	require.ErrorIs(t, v.Verify(context.Background(), "msg-2", ts, sig, body), ErrBadSignature)
	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", ts, sig, []byte(`{}`)), ErrBadSignature)
	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", ts, "!!not-base64!!", body), ErrBadSignature)
}

func TestRSAVerifyStaleTimestamp(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	v := NewRSAVerifier(StaticKeySource{Key: &key.PublicKey}, 10*time.Minute)
	v.now = func() time.Time { return now }

	ts := now.Add(-time.Hour).Format(time.RFC3339)
	sig := rsaSign(t, key, "msg-1", ts, []byte(`{}`))

	require.ErrorIs(t, v.Verify(context.Background(), "msg-1", ts, sig, []byte(`{}`)), ErrStaleTimestamp)
}
