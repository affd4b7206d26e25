package outbox

import (
	"context"
	"time"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/task"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	sentTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "outbox_sent_total"})
	failTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "outbox_failed_total"})
)

func init() {
	prometheus.MustRegister(sentTotal, failTotal)
}

type Service struct {
	db          *gorm.DB
	node        *snowflake.Node
	enqueuer    task.Enqueuer
	maxAttempts int
	staleWindow time.Duration
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Enqueuer task.Enqueuer `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	maxAttempts := p.Config.Outbox.MaxSendAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	staleWindow := p.Config.Outbox.StaleWindow
	if staleWindow <= 0 {
		staleWindow = 60 * time.Second
	}

	return &Service{
		db:          p.DB,
		node:        p.Node,
		enqueuer:    p.Enqueuer,
		maxAttempts: maxAttempts,
		staleWindow: staleWindow,
	}
}

// Enqueue persists one outbound chat message. When an asynq client is wired
// in, a send job is scheduled as well; polling deployments pick the row up on
// their own.
func (s *Service) Enqueue(ctx context.Context, channelID, provider, destination, text string) error {
	msg := &Message{
		ID:          s.node.Generate().String(),
		ChannelID:   channelID,
		Provider:    provider,
		Destination: destination,
		Text:        text,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(msg).Error; err != nil {
		return err
	}

	if s.enqueuer != nil {
		job, err := NewSendTask(SendPayload{
			MessageID: msg.ID,
			Provider:  msg.Provider,
			ChannelID: msg.ChannelID,
		})
		if err != nil {
			return err
		}
		if _, err := s.enqueuer.Enqueue(job); err != nil {
			// The row is durable; the poller or a later sweep still delivers it.
			zap.L().Warn("failed to schedule outbox send job",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// claimWhere is the CAS condition shared by both delivery modes: a row is
// claimable when pending, or when a previous claimer went silent past the
// staleness window.
func (s *Service) claimWhere(tx *gorm.DB, now time.Time) *gorm.DB {
	return tx.Where(
		"status = ? OR (status = ? AND processing_at < ?)",
		StatusPending, StatusProcessing, now.Add(-s.staleWindow),
	)
}

// ClaimBatch claims up to limit deliverable rows for this worker. Each row is
// taken by a conditional UPDATE; the affected-row count is the only proof of
// ownership, so concurrent pollers never claim the same row twice.
func (s *Service) ClaimBatch(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 25
	}
	now := time.Now()

	var candidates []*Message
	err := s.claimWhere(s.db.WithContext(ctx), now).
		Order("created_at ASC").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]*Message, 0, len(candidates))
	for _, msg := range candidates {
		got, ok, err := s.ClaimOne(ctx, msg.ID)
		if err != nil {
			return claimed, err
		}
		if ok {
			claimed = append(claimed, got)
		}
	}

	return claimed, nil
}

// ClaimOne attempts the claim CAS on a single row.
func (s *Service) ClaimOne(ctx context.Context, id string) (*Message, bool, error) {
	now := time.Now()

	res := s.claimWhere(
		s.db.WithContext(ctx).Model(&Message{}).Where("id = ?", id),
		now,
	).Updates(map[string]any{
		"status":        StatusProcessing,
		"processing_at": now,
		"attempts":      gorm.Expr("attempts + 1"),
	})
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, false, nil
	}

	var msg Message
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&msg).Error; err != nil {
		return nil, false, err
	}
	return &msg, true, nil
}

// MarkSent finalizes a successfully delivered row.
func (s *Service) MarkSent(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND status = ?", id, StatusProcessing).
		Updates(map[string]any{
			"status":  StatusSent,
			"sent_at": time.Now(),
		}).Error
	if err == nil {
		sentTotal.Inc()
	}
	return err
}

// MarkFailure records a send failure: back to pending for another attempt, or
// terminal failed once the attempt cap is reached. Returns whether the row is
// now terminal.
func (s *Service) MarkFailure(ctx context.Context, msg *Message, sendErr error) (bool, error) {
	if msg.Attempts >= s.maxAttempts {
		err := s.db.WithContext(ctx).Model(&Message{}).
			Where("id = ? AND status = ?", msg.ID, StatusProcessing).
			Updates(map[string]any{
				"status":     StatusFailed,
				"last_error": sendErr.Error(),
				"failed_at":  time.Now(),
			}).Error
		if err != nil {
			return false, err
		}
		failTotal.Inc()
		zap.L().Error("outbox message permanently failed",
			zap.String("message_id", msg.ID),
			zap.String("channel_id", msg.ChannelID),
			zap.Int("attempts", msg.Attempts),
			zap.Error(sendErr),
		)
		return true, nil
	}

	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("id = ? AND status = ?", msg.ID, StatusProcessing).
		Updates(map[string]any{
			"status":     StatusPending,
			"last_error": sendErr.Error(),
		}).Error
	return false, err
}
