package webhook

import (
	"memealerts-eventplane/pkg/event"
)

// NormalizeTwitch maps EventSub notification bodies. The subscription type
// selects the shape of the nested event object.
func NormalizeTwitch(body []byte) (*event.Envelope, bool) {
	m, ok := decode(body)
	if !ok {
		return nil, false
	}

	sub := obj(m, "subscription")
	ev := obj(m, "event")
	if sub == nil || ev == nil {
		return nil, false
	}

	env := &event.Envelope{
		ChannelRef:      str(ev, "broadcaster_user_id", "to_broadcaster_user_id"),
		ActorAccountID:  str(ev, "user_id", "chatter_user_id", "from_broadcaster_user_id"),
		ActorLogin:      str(ev, "user_login", "chatter_user_login", "from_broadcaster_user_login"),
		ActorDisplay:    str(ev, "user_name", "chatter_user_name", "from_broadcaster_user_name"),
		ProviderEventID: str(ev, "id"),
		EventAt:         timeAt(ev, "followed_at", "redeemed_at", "timestamp"),
	}

	switch str(sub, "type") {
	case "channel.follow":
		env.Kind = event.KindFollow
	case "channel.subscribe":
		env.Kind = event.KindSubscribe
		env.Tier = str(ev, "tier")
	case "channel.subscription.message":
		env.Kind = event.KindResub
		env.Tier = str(ev, "tier")
		env.Amount = num(ev, "cumulative_months")
	case "channel.subscription.gift":
		env.Kind = event.KindGiftSub
		env.Tier = str(ev, "tier")
		env.Amount = num(ev, "total")
	case "channel.cheer":
		env.Kind = event.KindCheer
		env.Amount = num(ev, "bits")
	case "channel.raid":
		env.Kind = event.KindRaid
		env.Amount = num(ev, "viewers")
	case "channel.channel_points_custom_reward_redemption.add":
		env.Kind = event.KindRedemption
		env.RewardRef = str(obj(ev, "reward"), "id")
	case "channel.chat.message":
		env.Kind = event.KindChatMessage
		env.Text = str(obj(ev, "message"), "text")
		env.ProviderEventID = str(ev, "message_id")
		for _, badge := range badgeSetIDs(ev) {
			env.RoleTags = append(env.RoleTags, badge)
		}
	default:
		return nil, false
	}

	if env.ChannelRef == "" || env.ActorAccountID == "" {
		return nil, false
	}

	return env, true
}

func badgeSetIDs(ev payload) []string {
	raw, ok := ev["badges"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		badge, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id := str(badge, "set_id"); id != "" {
			out = append(out, id)
		}
	}
	return out
}
