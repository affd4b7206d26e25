package channel

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Resolve returns the product channel mapped to a platform channel, or nil
// when no mapping exists.
func (s *Service) Resolve(ctx context.Context, provider, providerChannelID string) (*Channel, error) {
	var ch Channel
	err := s.db.WithContext(ctx).
		Where(&Channel{Provider: provider, ProviderChannelID: providerChannelID}).
		First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Channel, error) {
	var ch Channel
	err := s.db.WithContext(ctx).Where(&Channel{ID: id}).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// IsLive reports the current live/offline snapshot for a channel. Unknown
// channels count as offline.
func (s *Service) IsLive(ctx context.Context, channelID string) (bool, error) {
	ch, err := s.Get(ctx, channelID)
	if err != nil {
		return false, err
	}
	if ch == nil {
		return false, nil
	}
	return ch.IsLive, nil
}
