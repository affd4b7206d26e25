package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"memealerts-eventplane/pkg/platform"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type senderMock struct {
	sent []string
	err  error
}

func (m *senderMock) Send(ctx context.Context, destination, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

func newTestDispatcher(t *testing.T, sender *senderMock) (*Dispatcher, *Service, *gorm.DB) {
	t.Helper()

	svc, db := newTestService(t)
	reg := platform.NewRegistry()
	if sender != nil {
		reg.Register("twitch", sender)
	}

	return NewDispatcher(svc, reg, time.Second, 25, time.Second), svc, db
}

func TestDispatcherDeliversBatch(t *testing.T) {
	sender := &senderMock{}
	d, svc, db := newTestDispatcher(t, sender)

	enqueue(t, svc)
	enqueue(t, svc)

	d.processBatch(context.Background())

	require.Len(t, sender.sent, 2)

	var sent int64
	require.NoError(t, db.Model(&Message{}).Where("status = ?", StatusSent).Count(&sent).Error)
	require.Equal(t, int64(2), sent)
}

func TestDispatcherSendFailureReturnsRowToPending(t *testing.T) {
	sender := &senderMock{err: errors.New("proxy down")}
	d, svc, db := newTestDispatcher(t, sender)

	msg := enqueue(t, svc)
	d.processBatch(context.Background())

	var after Message
	require.NoError(t, db.First(&after, "id = ?", msg.ID).Error)
	require.Equal(t, StatusPending, after.Status)
	require.Equal(t, 1, after.Attempts)
	require.Equal(t, "proxy down", after.LastError)
}

func TestDispatcherUnknownProviderFailsRow(t *testing.T) {
	d, svc, db := newTestDispatcher(t, nil)

	msg := enqueue(t, svc)
	d.processBatch(context.Background())

	var after Message
	require.NoError(t, db.First(&after, "id = ?", msg.ID).Error)
	require.Equal(t, StatusPending, after.Status)
	require.NotEmpty(t, after.LastError)
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	svc, _ := newTestService(t)
	w := &Worker{svc: svc}

	err := w.HandleSend(context.Background(), asynq.NewTask(TypeOutboxSend, []byte("{broken")))
	require.Error(t, err)
	require.ErrorIs(t, err, asynq.SkipRetry)
}
