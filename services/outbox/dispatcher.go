package outbox

import (
	"context"
	"time"

	"memealerts-eventplane/pkg/platform"

	"go.uber.org/zap"
)

// Dispatcher is the polling delivery mode: claim a bounded batch via the CAS,
// send synchronously, resolve each row. Safe to run in several processes at
// once; the claim CAS arbitrates.
type Dispatcher struct {
	svc          *Service
	senders      *platform.Registry
	pollInterval time.Duration
	batchSize    int
	sendTimeout  time.Duration
	stop         chan struct{}
}

func NewDispatcher(svc *Service, senders *platform.Registry, pollInterval time.Duration, batchSize int, sendTimeout time.Duration) *Dispatcher {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 25
	}
	if sendTimeout <= 0 {
		sendTimeout = 5 * time.Second
	}
	return &Dispatcher{
		svc:          svc,
		senders:      senders,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		sendTimeout:  sendTimeout,
		stop:         make(chan struct{}),
	}
}

// Stop requests a cooperative shutdown. In-flight sends finish; the loop
// exits at the next batch boundary.
func (d *Dispatcher) Stop() {
	close(d.stop)
}

func (d *Dispatcher) Run(ctx context.Context) {
	zap.L().Info("outbox dispatcher starting",
		zap.Duration("poll_interval", d.pollInterval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.processBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("outbox dispatcher shutting down")
			return
		case <-d.stop:
			zap.L().Info("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.processBatch(ctx)
		}
	}
}

func (d *Dispatcher) processBatch(ctx context.Context) {
	msgs, err := d.svc.ClaimBatch(ctx, d.batchSize)
	if err != nil {
		zap.L().Warn("failed to claim outbox batch", zap.Error(err))
		return
	}

	for _, msg := range msgs {
		select {
		case <-d.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		d.deliver(ctx, msg)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, msg *Message) {
	sender, err := d.senders.Resolve(msg.Provider)
	if err != nil {
		if _, ferr := d.svc.MarkFailure(ctx, msg, err); ferr != nil {
			zap.L().Error("failed to resolve and record outbox failure", zap.Error(ferr))
		}
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := sender.Send(sendCtx, msg.Destination, msg.Text); err != nil {
		zap.L().Warn("outbox send failed",
			zap.String("message_id", msg.ID),
			zap.String("provider", msg.Provider),
			zap.Int("attempts", msg.Attempts),
			zap.Error(err),
		)
		if _, ferr := d.svc.MarkFailure(ctx, msg, err); ferr != nil {
			zap.L().Error("failed to record outbox failure", zap.Error(ferr))
		}
		return
	}

	if err := d.svc.MarkSent(ctx, msg.ID); err != nil {
		zap.L().Error("failed to mark outbox message sent",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}
}
