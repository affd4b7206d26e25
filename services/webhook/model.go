package webhook

import "time"

// WebhookDelivery is one row per transport-level delivery. The unique index
// is the dedup gate: handlers run in many processes, so an in-memory set can
// never be the correctness mechanism.
type WebhookDelivery struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Provider  string    `gorm:"column:provider;uniqueIndex:ux_delivery_provider_message,priority:1"`
	MessageID string    `gorm:"column:message_id;uniqueIndex:ux_delivery_provider_message,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (WebhookDelivery) TableName() string { return "webhook_deliveries" }
