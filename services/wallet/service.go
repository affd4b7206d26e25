package wallet

import (
	"context"
	"errors"
	"time"

	"memealerts-eventplane/pkg/errutil"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
	}
}

// CreditTx increments a wallet balance inside the caller's transaction,
// creating the wallet row on first credit.
func (s *Service) CreditTx(ctx context.Context, tx *gorm.DB, userID, channelID string, amount int64) error {
	if amount <= 0 {
		return errutil.BadRequest("amount must be > 0 for credit", nil)
	}

	res := tx.WithContext(ctx).Model(&Wallet{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// ON CONFLICT DO NOTHING rather than catching the constraint error:
	// raising it would abort the caller's transaction on postgres.
	ins := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Wallet{
			ID:        s.node.Generate().String(),
			UserID:    userID,
			ChannelID: channelID,
			Balance:   amount,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	if ins.Error != nil {
		return ins.Error
	}
	if ins.RowsAffected > 0 {
		return nil
	}

	// Lost the insert race; the row exists now.
	return tx.WithContext(ctx).Model(&Wallet{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		}).Error
}

// Balance returns the current balance, zero for wallets that do not exist yet.
func (s *Service) Balance(ctx context.Context, userID, channelID string) (int64, error) {
	var w Wallet
	err := s.db.WithContext(ctx).
		Where(&Wallet{UserID: userID, ChannelID: channelID}).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return w.Balance, nil
}

// FindLinkedUserTx resolves a platform identity to a product account inside
// the caller's transaction. Empty result means the identity is not linked yet.
func (s *Service) FindLinkedUserTx(ctx context.Context, tx *gorm.DB, provider, providerAccountID string) (string, error) {
	var link LinkedAccount
	err := tx.WithContext(ctx).
		Where(&LinkedAccount{Provider: provider, ProviderAccountID: providerAccountID}).
		First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return link.UserID, nil
}

// Link records a platform identity for a product account. Linking the same
// identity twice is a no-op; linking it to a different account is a conflict.
func (s *Service) Link(ctx context.Context, userID, provider, providerAccountID string) error {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&LinkedAccount{
			ID:                s.node.Generate().String(),
			UserID:            userID,
			Provider:          provider,
			ProviderAccountID: providerAccountID,
			CreatedAt:         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	existing, err := s.FindLinkedUserTx(ctx, s.db, provider, providerAccountID)
	if err != nil {
		return err
	}
	if existing == userID {
		return nil
	}
	zap.L().Warn("account already linked to another user",
		zap.String("provider", provider),
		zap.String("provider_account_id", providerAccountID),
	)
	return errutil.Conflict("account already linked to another user", gorm.ErrDuplicatedKey)
}
