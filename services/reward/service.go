package reward

import (
	"context"
	"time"

	"memealerts-eventplane/services/wallet"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	wallet *wallet.Service
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Wallet *wallet.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		wallet: p.Wallet,
	}
}

// RecordInput carries one normalized event plus its already-made grant
// decision into the ledger.
type RecordInput struct {
	Provider          string
	ProviderEventID   string
	ChannelID         string
	ProviderAccountID string
	EventType         string
	Currency          string
	Amount            int64
	Decision          Decision
	EventAt           *time.Time
	RawPayload        []byte
}

// RecordResult reports what the ledger write did. Claimed is non-empty when
// the actor's platform identity was already linked and the grant was credited
// inline; callers emit wallet notifications after their transaction commits.
type RecordResult struct {
	Created bool
	Event   *RewardEvent
	Claimed []ClaimedEvent
}

// RecordEventTx writes one ledger row inside the caller's transaction. The
// (provider, provider_event_id) unique index makes re-processing a no-op:
// a duplicate is reported as Created=false, never as an error. The insert
// goes through ON CONFLICT DO NOTHING because a raised constraint violation
// would abort the caller's transaction on postgres and lose the dedup marker
// committed alongside this row.
func (s *Service) RecordEventTx(ctx context.Context, tx *gorm.DB, in RecordInput) (*RecordResult, error) {
	eventID := in.ProviderEventID
	if eventID == "" {
		at := time.Now()
		if in.EventAt != nil {
			at = *in.EventAt
		}
		eventID = SynthesizeEventID(in.Provider, in.ChannelID, in.ProviderAccountID, in.EventType, at)
	}

	status := StatusIgnored
	reason := in.Decision.Reason
	coins := int64(0)
	if in.Decision.Eligible && in.Decision.Coins > 0 {
		status = StatusEligible
		coins = in.Decision.Coins
		reason = ""
	} else if reason == "" {
		reason = ReasonZeroCoins
	}

	row := &RewardEvent{
		ID:                s.node.Generate().String(),
		Provider:          in.Provider,
		ProviderEventID:   eventID,
		ChannelID:         in.ChannelID,
		ProviderAccountID: in.ProviderAccountID,
		EventType:         in.EventType,
		Currency:          in.Currency,
		Amount:            in.Amount,
		CoinsToGrant:      coins,
		Status:            status,
		Reason:            reason,
		EventAt:           in.EventAt,
		RawPayload:        datatypes.JSON(in.RawPayload),
		CreatedAt:         time.Now(),
	}

	res := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		zap.L().Debug("reward event already recorded",
			zap.String("provider", in.Provider),
			zap.String("provider_event_id", eventID),
		)
		return &RecordResult{Created: false}, nil
	}

	result := &RecordResult{Created: true, Event: row}

	if row.Claimable() {
		userID, err := s.wallet.FindLinkedUserTx(ctx, tx, in.Provider, in.ProviderAccountID)
		if err != nil {
			return nil, err
		}
		if userID != "" {
			claimed, err := s.claimRowsTx(ctx, tx, userID, []*RewardEvent{row})
			if err != nil {
				return nil, err
			}
			result.Claimed = claimed
		}
	}

	return result, nil
}
