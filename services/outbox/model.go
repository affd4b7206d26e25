package outbox

import "time"

// Outbox message statuses. Transitions:
// pending → processing → sent | pending (retry) | failed (attempts cap).
// sent and failed are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSent       = "sent"
	StatusFailed     = "failed"
)

// Message is one durable outbound chat message.
type Message struct {
	ID           string     `gorm:"column:id;primaryKey"`
	ChannelID    string     `gorm:"column:channel_id;index"`
	Provider     string     `gorm:"column:provider"`
	Destination  string     `gorm:"column:destination"`
	Text         string     `gorm:"column:text"`
	Status       string     `gorm:"column:status;index:ix_outbox_claim,priority:1"`
	Attempts     int        `gorm:"column:attempts"`
	ProcessingAt *time.Time `gorm:"column:processing_at"`
	LastError    string     `gorm:"column:last_error"`
	SentAt       *time.Time `gorm:"column:sent_at"`
	FailedAt     *time.Time `gorm:"column:failed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;index:ix_outbox_claim,priority:2"`
}

func (Message) TableName() string { return "outbox_messages" }
