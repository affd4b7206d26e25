package reward

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Reward event statuses. Terminal once written: a redelivery of the same
// provider event id never transitions the row.
const (
	StatusObserved = "observed"
	StatusEligible = "eligible"
	StatusIgnored  = "ignored"
	StatusFailed   = "failed"
)

// RewardEvent is the append-mostly ledger row for every reward-worthy
// external event, one per (provider, provider_event_id).
type RewardEvent struct {
	ID                string         `gorm:"column:id;primaryKey"`
	Provider          string         `gorm:"column:provider;uniqueIndex:ux_reward_provider_event,priority:1;index:ix_reward_claimable,priority:1"`
	ProviderEventID   string         `gorm:"column:provider_event_id;uniqueIndex:ux_reward_provider_event,priority:2"`
	ChannelID         string         `gorm:"column:channel_id;index"`
	ProviderAccountID string         `gorm:"column:provider_account_id;index:ix_reward_claimable,priority:2"`
	EventType         string         `gorm:"column:event_type"`
	Currency          string         `gorm:"column:currency"`
	Amount            int64          `gorm:"column:amount"`
	CoinsToGrant      int64          `gorm:"column:coins_to_grant"`
	Status            string         `gorm:"column:status"`
	Reason            string         `gorm:"column:reason"`
	EventAt           *time.Time     `gorm:"column:event_at"`
	RawPayload        datatypes.JSON `gorm:"column:raw_payload"`
	LinkedUserID      *string        `gorm:"column:linked_user_id"`
	ClaimedAt         *time.Time     `gorm:"column:claimed_at"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
}

func (RewardEvent) TableName() string { return "external_reward_events" }

// Claimable reports whether a wallet credit is still owed for this row.
func (e *RewardEvent) Claimable() bool {
	return e.Status == StatusEligible && e.CoinsToGrant > 0 && e.ClaimedAt == nil
}

// SynthesizeEventID derives a deterministic provider event id for logical
// events the platform assigns no id to. Stable fields only, so re-processing
// the same occurrence collides on the ledger's unique index instead of
// double-recording.
func SynthesizeEventID(provider, channelID, providerAccountID, category string, at time.Time) string {
	day := at.UTC().Format("2006-01-02")
	joined := fmt.Sprintf("%s|%s|%s|%s|%s", provider, channelID, providerAccountID, day, category)
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
