package wallet

import "time"

// Wallet holds a viewer's channel-currency balance on one channel.
type Wallet struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id;uniqueIndex:ux_wallet_user_channel,priority:1"`
	ChannelID string    `gorm:"column:channel_id;uniqueIndex:ux_wallet_user_channel,priority:2"`
	Balance   int64     `gorm:"column:balance"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

// LinkedAccount ties a platform identity to a product account. The unique
// index doubles as the lookup key for inline claims at ingest time.
type LinkedAccount struct {
	ID                string    `gorm:"column:id;primaryKey"`
	UserID            string    `gorm:"column:user_id;index"`
	Provider          string    `gorm:"column:provider;uniqueIndex:ux_linked_provider_account,priority:1"`
	ProviderAccountID string    `gorm:"column:provider_account_id;uniqueIndex:ux_linked_provider_account,priority:2"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (LinkedAccount) TableName() string { return "linked_accounts" }
