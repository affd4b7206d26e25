package webhook

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gate enforces at-most-once processing per (provider, messageID) delivery.
type Gate struct {
	node *snowflake.Node
}

func NewGate(node *snowflake.Node) *Gate {
	return &Gate{node: node}
}

// RegisterTx inserts the delivery marker inside the caller's transaction.
// Returns false for a redelivery. The insert uses ON CONFLICT DO NOTHING and
// reads the affected-row count rather than catching a constraint error: on
// postgres a constraint violation aborts the surrounding transaction, which
// would take the ledger write down with it. The marker must share the
// transaction with the ledger write so a crash between the two cannot strand
// a half-processed delivery.
func (g *Gate) RegisterTx(ctx context.Context, tx *gorm.DB, provider, messageID string) (bool, error) {
	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&WebhookDelivery{
			ID:        g.node.Generate().String(),
			Provider:  provider,
			MessageID: messageID,
			CreatedAt: time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
