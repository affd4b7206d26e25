package command

import (
	"time"

	"gorm.io/datatypes"
)

// ChatCommand is a streamer-configured chat trigger/response pair.
// AllowedLogins and AllowedRoleIDs are JSON string arrays; both empty means
// anyone may use the command.
type ChatCommand struct {
	ID             string         `gorm:"column:id;primaryKey"`
	ChannelID      string         `gorm:"column:channel_id;index"`
	Trigger        string         `gorm:"column:trigger"`
	Response       string         `gorm:"column:response"`
	OnlyWhenLive   bool           `gorm:"column:only_when_live"`
	AllowedLogins  datatypes.JSON `gorm:"column:allowed_logins"`
	AllowedRoleIDs datatypes.JSON `gorm:"column:allowed_role_ids"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (ChatCommand) TableName() string { return "chat_commands" }
