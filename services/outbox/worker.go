package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/platform"
	"memealerts-eventplane/pkg/task"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const leaseRetryDelay = 2 * time.Second

// Worker is the queue delivery mode: one asynq job per message. The
// per-channel lease keeps sends for one chat strictly serial; the claim CAS
// still runs afterwards because the broker itself may redeliver a job.
type Worker struct {
	svc         *Service
	senders     *platform.Registry
	lease       *ChannelLease
	limiter     *rate.Limiter
	enqueuer    task.Enqueuer
	sendTimeout time.Duration
}

type WorkerParams struct {
	fx.In
	Service  *Service
	Senders  *platform.Registry
	Lease    *ChannelLease
	Config   *config.Config
	Enqueuer task.Enqueuer
}

func NewWorker(p WorkerParams) *Worker {
	perSecond := p.Config.Outbox.SendsPerSecond
	if perSecond <= 0 {
		perSecond = 10
	}
	sendTimeout := p.Config.Outbox.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}

	return &Worker{
		svc:         p.Service,
		senders:     p.Senders,
		lease:       p.Lease,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
		enqueuer:    p.Enqueuer,
		sendTimeout: sendTimeout,
	}
}

func (w *Worker) HandleSend(ctx context.Context, t *asynq.Task) error {
	var p SendPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed send payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	release, ok, err := w.lease.Acquire(ctx, p.Provider, p.ChannelID)
	if err != nil {
		return err
	}
	if !ok {
		// Another worker is writing to this chat; come back shortly instead
		// of burning a retry attempt.
		job, err := NewSendTask(p)
		if err != nil {
			return err
		}
		if _, err := w.enqueuer.Enqueue(job, asynq.ProcessIn(leaseRetryDelay)); err != nil {
			return err
		}
		return nil
	}
	defer release()

	msg, claimed, err := w.svc.ClaimOne(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if !claimed {
		// Already sent, terminally failed, or being processed elsewhere.
		return nil
	}

	sender, err := w.senders.Resolve(msg.Provider)
	if err != nil {
		terminal, ferr := w.svc.MarkFailure(ctx, msg, err)
		if ferr != nil {
			return ferr
		}
		if terminal {
			return nil
		}
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, msg.Destination, msg.Text); err != nil {
		zap.L().Warn("outbox send failed",
			zap.String("message_id", msg.ID),
			zap.String("provider", msg.Provider),
			zap.Int("attempts", msg.Attempts),
			zap.Error(err),
		)
		terminal, ferr := w.svc.MarkFailure(ctx, msg, err)
		if ferr != nil {
			return ferr
		}
		if terminal {
			return nil
		}
		return err
	}

	return w.svc.MarkSent(ctx, msg.ID)
}

func RegisterWorker(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(TypeOutboxSend, w.HandleSend)
}
