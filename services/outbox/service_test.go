package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &Message{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Outbox.MaxSendAttempts = 3
	cfg.Outbox.StaleWindow = time.Minute

	return NewService(ServiceParams{DB: db, Node: node, Config: cfg}), db
}

func enqueue(t *testing.T, svc *Service) *Message {
	t.Helper()
	require.NoError(t, svc.Enqueue(context.Background(), "chan-1", "twitch", "#chan", "hello"))

	var msg Message
	require.NoError(t, svc.db.Order("created_at DESC").First(&msg).Error)
	return &msg
}

func TestEnqueuePersistsPendingRow(t *testing.T) {
	svc, db := newTestService(t)

	msg := enqueue(t, svc)
	require.Equal(t, StatusPending, msg.Status)
	require.Equal(t, "hello", msg.Text)
	require.Zero(t, msg.Attempts)

	var count int64
	require.NoError(t, db.Model(&Message{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestClaimOneTakesOwnershipOnce(t *testing.T) {
	svc, _ := newTestService(t)
	msg := enqueue(t, svc)

	got, ok, err := svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusProcessing, got.Status)
	require.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.ProcessingAt)

	// A second claimer loses the CAS.
	_, ok, err = svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClaimOneReclaimsStaleRow(t *testing.T) {
	svc, db := newTestService(t)
	msg := enqueue(t, svc)

	_, ok, err := svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.True(t, ok)

	// Simulate a claimer that died mid-send.
	stale := time.Now().Add(-2 * time.Minute)
	require.NoError(t, db.Model(&Message{}).Where("id = ?", msg.ID).
		Update("processing_at", stale).Error)

	got, ok, err := svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, got.Attempts)
}

func TestClaimBatchRespectsLimit(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 5; i++ {
		enqueue(t, svc)
	}

	claimed, err := svc.ClaimBatch(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, claimed, 3)

	rest, err := svc.ClaimBatch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rest, 2)
}

func TestMarkSentIsTerminal(t *testing.T) {
	svc, db := newTestService(t)
	msg := enqueue(t, svc)

	got, ok, err := svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.MarkSent(context.Background(), got.ID))

	var after Message
	require.NoError(t, db.First(&after, "id = ?", msg.ID).Error)
	require.Equal(t, StatusSent, after.Status)
	require.NotNil(t, after.SentAt)

	// Terminal rows are never claimable again.
	_, ok, err = svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMarkFailureRetriesThenFailsTerminally(t *testing.T) {
	svc, db := newTestService(t)
	msg := enqueue(t, svc)
	sendErr := errors.New("proxy unreachable")

	for attempt := 1; attempt <= 3; attempt++ {
		got, ok, err := svc.ClaimOne(context.Background(), msg.ID)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, attempt, got.Attempts)

		terminal, err := svc.MarkFailure(context.Background(), got, sendErr)
		require.NoError(t, err)
		require.Equal(t, attempt == 3, terminal)
	}

	var after Message
	require.NoError(t, db.First(&after, "id = ?", msg.ID).Error)
	require.Equal(t, StatusFailed, after.Status)
	require.Equal(t, 3, after.Attempts)
	require.Equal(t, "proxy unreachable", after.LastError)
	require.NotNil(t, after.FailedAt)

	_, ok, err := svc.ClaimOne(context.Background(), msg.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
