package reward

import (
	"context"
	"time"

	pkgdb "memealerts-eventplane/pkg/db"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ClaimedEvent is one ledger row whose coins were credited to a wallet.
type ClaimedEvent struct {
	EventID   string
	Provider  string
	ChannelID string
	UserID    string
	Coins     int64
}

// Claim credits every still-unclaimed eligible ledger row recorded for a
// platform identity. Called inline at ingest when the identity is already
// linked, and again when a "link account" action has to sweep rewards that
// arrived before the link existed. Running it twice over the same rows is a
// no-op: the claimed_at guard inside the update is the idempotency barrier.
func (s *Service) Claim(ctx context.Context, userID, provider, providerAccountID string) ([]ClaimedEvent, error) {
	span := trace.SpanFromContext(ctx)
	opts := []zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
		zap.String("user_id", userID),
		zap.String("provider", provider),
	}

	var claimed []ClaimedEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var rows []*RewardEvent
		q := tx.WithContext(ctx).Scopes(pkgdb.LockingUpdate).
			Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
			Where("status = ? AND coins_to_grant > 0 AND claimed_at IS NULL", StatusEligible)
		if err := q.Find(&rows).Error; err != nil {
			return err
		}

		var err error
		claimed, err = s.claimRowsTx(ctx, tx, userID, rows)
		return err
	})
	if err != nil {
		zap.L().With(opts...).Error("failed to claim pending grants", zap.Error(err))
		return nil, err
	}

	if len(claimed) > 0 {
		zap.L().With(opts...).Info("claimed pending grants", zap.Int("events", len(claimed)))
	}

	return claimed, nil
}

// claimRowsTx credits each row and stamps it claimed inside the caller's
// transaction. The conditional update's affected-row count decides ownership,
// so a row a concurrent claimer already took is skipped, not double-credited.
func (s *Service) claimRowsTx(ctx context.Context, tx *gorm.DB, userID string, rows []*RewardEvent) ([]ClaimedEvent, error) {
	now := time.Now()
	claimed := make([]ClaimedEvent, 0, len(rows))

	for _, row := range rows {
		res := tx.WithContext(ctx).Model(&RewardEvent{}).
			Where("id = ? AND claimed_at IS NULL", row.ID).
			Updates(map[string]any{
				"claimed_at":     now,
				"linked_user_id": userID,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}

		if err := s.wallet.CreditTx(ctx, tx, userID, row.ChannelID, row.CoinsToGrant); err != nil {
			return nil, err
		}

		claimed = append(claimed, ClaimedEvent{
			EventID:   row.ID,
			Provider:  row.Provider,
			ChannelID: row.ChannelID,
			UserID:    userID,
			Coins:     row.CoinsToGrant,
		})
	}

	return claimed, nil
}
