package reward

import (
	"encoding/json"

	"memealerts-eventplane/pkg/event"

	"gorm.io/datatypes"
)

// Reasons recorded on ignored ledger rows.
const (
	ReasonChannelNotMapped = "channel_not_mapped"
	ReasonKindDisabled     = "kind_disabled"
	ReasonUnsupportedKind  = "unsupported_kind"
	ReasonZeroCoins        = "zero_coins"
	ReasonChannelOffline   = "channel_offline"
	ReasonRewardIDMismatch = "reward_id_mismatch"
	ReasonRaidTooSmall     = "raid_too_small"
	ReasonMisconfigured    = "misconfigured"
)

// Rules is the parsed per-channel reward configuration. Parsing and validity
// of the stored blob belong to the dashboard; this side only evaluates.
type Rules struct {
	LiveOnly bool `json:"live_only"`

	FollowEnabled bool  `json:"follow_enabled"`
	FollowCoins   int64 `json:"follow_coins"`

	SubEnabled bool             `json:"sub_enabled"`
	SubTiers   map[string]int64 `json:"sub_tiers"`

	GiftSubEnabled bool             `json:"gift_sub_enabled"`
	GiftSubTiers   map[string]int64 `json:"gift_sub_tiers"`

	BitsEnabled bool  `json:"bits_enabled"`
	BitsPerCoin int64 `json:"bits_per_coin"`

	RaidEnabled    bool  `json:"raid_enabled"`
	RaidMinViewers int64 `json:"raid_min_viewers"`
	RaidCoins      int64 `json:"raid_coins"`

	RedemptionEnabled bool   `json:"redemption_enabled"`
	RewardID          string `json:"reward_id"`
	RedemptionCoins   int64  `json:"redemption_coins"`

	ChatActivityEnabled bool  `json:"chat_activity_enabled"`
	ChatActivityCoins   int64 `json:"chat_activity_coins"`
}

// ParseRules decodes a channel's reward configuration blob. A missing blob
// yields zero-valued rules, i.e. everything disabled.
func ParseRules(blob datatypes.JSON) (*Rules, error) {
	var r Rules
	if len(blob) == 0 {
		return &r, nil
	}
	if err := json.Unmarshal(blob, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Decision is the rule-evaluation outcome attached to a ledger row. The
// ledger never re-evaluates: first writer wins.
type Decision struct {
	Eligible bool
	Coins    int64
	Reason   string
}

func eligible(coins int64) Decision {
	if coins <= 0 {
		return ignored(ReasonZeroCoins)
	}
	return Decision{Eligible: true, Coins: coins}
}

func ignored(reason string) Decision {
	return Decision{Reason: reason}
}

// Evaluate maps a normalized event to a grant decision. All ratio math floors;
// coins are never rounded up.
func (r *Rules) Evaluate(env *event.Envelope, live bool) Decision {
	if r.LiveOnly && !live {
		return ignored(ReasonChannelOffline)
	}

	switch env.Kind {
	case event.KindFollow:
		if !r.FollowEnabled {
			return ignored(ReasonKindDisabled)
		}
		return eligible(r.FollowCoins)

	case event.KindSubscribe, event.KindResub:
		if !r.SubEnabled {
			return ignored(ReasonKindDisabled)
		}
		return eligible(r.SubTiers[env.Tier])

	case event.KindGiftSub:
		if !r.GiftSubEnabled {
			return ignored(ReasonKindDisabled)
		}
		count := env.Amount
		if count <= 0 {
			count = 1
		}
		return eligible(r.GiftSubTiers[env.Tier] * count)

	case event.KindCheer:
		if !r.BitsEnabled {
			return ignored(ReasonKindDisabled)
		}
		if r.BitsPerCoin <= 0 {
			return ignored(ReasonMisconfigured)
		}
		return eligible(env.Amount / r.BitsPerCoin)

	case event.KindRaid:
		if !r.RaidEnabled {
			return ignored(ReasonKindDisabled)
		}
		if env.Amount < r.RaidMinViewers {
			return ignored(ReasonRaidTooSmall)
		}
		return eligible(r.RaidCoins)

	case event.KindRedemption:
		if !r.RedemptionEnabled {
			return ignored(ReasonKindDisabled)
		}
		if r.RewardID == "" || env.RewardRef != r.RewardID {
			return ignored(ReasonRewardIDMismatch)
		}
		return eligible(r.RedemptionCoins)

	case event.KindChatMessage:
		if !r.ChatActivityEnabled {
			return ignored(ReasonKindDisabled)
		}
		return eligible(r.ChatActivityCoins)
	}

	return ignored(ReasonUnsupportedKind)
}
