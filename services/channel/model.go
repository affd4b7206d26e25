package channel

import (
	"time"

	"gorm.io/datatypes"
)

// Channel maps a platform-side channel to a product channel. RewardRules is
// the already-parsed per-channel reward configuration blob maintained by the
// streamer dashboard.
type Channel struct {
	ID                string         `gorm:"column:id;primaryKey"`
	Provider          string         `gorm:"column:provider;uniqueIndex:ux_channel_provider_ref,priority:1"`
	ProviderChannelID string         `gorm:"column:provider_channel_id;uniqueIndex:ux_channel_provider_ref,priority:2"`
	Title             string         `gorm:"column:title"`
	IsLive            bool           `gorm:"column:is_live"`
	ChatDestination   string         `gorm:"column:chat_destination"`
	RewardRules       datatypes.JSON `gorm:"column:reward_rules"`
	CreatedAt         time.Time      `gorm:"column:created_at"`
	UpdatedAt         time.Time      `gorm:"column:updated_at"`
}

func (Channel) TableName() string { return "channels" }
