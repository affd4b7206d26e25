package reward

import (
	"testing"

	"memealerts-eventplane/pkg/event"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestParseRulesEmpty(t *testing.T) {
	r, err := ParseRules(nil)
	require.NoError(t, err)
	require.False(t, r.FollowEnabled)

	r, err = ParseRules(datatypes.JSON(`{"follow_enabled":true,"follow_coins":5}`))
	require.NoError(t, err)
	require.True(t, r.FollowEnabled)
	require.Equal(t, int64(5), r.FollowCoins)
}

func TestParseRulesMalformed(t *testing.T) {
	_, err := ParseRules(datatypes.JSON(`{"follow_enabled":`))
	require.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	rules := &Rules{
		LiveOnly:            true,
		FollowEnabled:       true,
		FollowCoins:         5,
		SubEnabled:          true,
		SubTiers:            map[string]int64{"1000": 100, "2000": 250},
		GiftSubEnabled:      true,
		GiftSubTiers:        map[string]int64{"1000": 100},
		BitsEnabled:         true,
		BitsPerCoin:         100,
		RaidEnabled:         true,
		RaidMinViewers:      10,
		RaidCoins:           50,
		RedemptionEnabled:   true,
		RewardID:            "reward-abc",
		RedemptionCoins:     25,
		ChatActivityEnabled: true,
		ChatActivityCoins:   1,
	}

	tests := []struct {
		name string
		env  event.Envelope
		live bool
		want Decision
	}{
		{
			name: "offline gated",
			env:  event.Envelope{Kind: event.KindFollow},
			live: false,
			want: Decision{Reason: ReasonChannelOffline},
		},
		{
			name: "follow",
			env:  event.Envelope{Kind: event.KindFollow},
			live: true,
			want: Decision{Eligible: true, Coins: 5},
		},
		{
			name: "sub known tier",
			env:  event.Envelope{Kind: event.KindSubscribe, Tier: "2000"},
			live: true,
			want: Decision{Eligible: true, Coins: 250},
		},
		{
			name: "resub uses sub tiers",
			env:  event.Envelope{Kind: event.KindResub, Tier: "1000"},
			live: true,
			want: Decision{Eligible: true, Coins: 100},
		},
		{
			name: "sub unknown tier yields zero coins",
			env:  event.Envelope{Kind: event.KindSubscribe, Tier: "3000"},
			live: true,
			want: Decision{Reason: ReasonZeroCoins},
		},
		{
			name: "gift sub multiplies by count",
			env:  event.Envelope{Kind: event.KindGiftSub, Tier: "1000", Amount: 5},
			live: true,
			want: Decision{Eligible: true, Coins: 500},
		},
		{
			name: "gift sub without count grants one",
			env:  event.Envelope{Kind: event.KindGiftSub, Tier: "1000"},
			live: true,
			want: Decision{Eligible: true, Coins: 100},
		},
		{
			name: "cheer floors the ratio",
			env:  event.Envelope{Kind: event.KindCheer, Amount: 250},
			live: true,
			want: Decision{Eligible: true, Coins: 2},
		},
		{
			name: "cheer below ratio",
			env:  event.Envelope{Kind: event.KindCheer, Amount: 99},
			live: true,
			want: Decision{Reason: ReasonZeroCoins},
		},
		{
			name: "raid below minimum",
			env:  event.Envelope{Kind: event.KindRaid, Amount: 9},
			live: true,
			want: Decision{Reason: ReasonRaidTooSmall},
		},
		{
			name: "raid at minimum",
			env:  event.Envelope{Kind: event.KindRaid, Amount: 10},
			live: true,
			want: Decision{Eligible: true, Coins: 50},
		},
		{
			name: "redemption matching reward",
			env:  event.Envelope{Kind: event.KindRedemption, RewardRef: "reward-abc"},
			live: true,
			want: Decision{Eligible: true, Coins: 25},
		},
		{
			name: "redemption other reward",
			env:  event.Envelope{Kind: event.KindRedemption, RewardRef: "reward-xyz"},
			live: true,
			want: Decision{Reason: ReasonRewardIDMismatch},
		},
		{
			name: "chat activity",
			env:  event.Envelope{Kind: event.KindChatMessage, Text: "hello"},
			live: true,
			want: Decision{Eligible: true, Coins: 1},
		},
		{
			name: "unknown kind",
			env:  event.Envelope{Kind: "hype_train"},
			live: true,
			want: Decision{Reason: ReasonUnsupportedKind},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, rules.Evaluate(&tt.env, tt.live))
		})
	}
}

func TestEvaluateDisabledKind(t *testing.T) {
	rules := &Rules{}
	got := rules.Evaluate(&event.Envelope{Kind: event.KindFollow}, true)
	require.Equal(t, Decision{Reason: ReasonKindDisabled}, got)
}

func TestEvaluateMisconfiguredBitsRatio(t *testing.T) {
	rules := &Rules{BitsEnabled: true}
	got := rules.Evaluate(&event.Envelope{Kind: event.KindCheer, Amount: 500}, true)
	require.Equal(t, Decision{Reason: ReasonMisconfigured}, got)
}
