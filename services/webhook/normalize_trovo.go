package webhook

import (
	"memealerts-eventplane/pkg/event"
)

// NormalizeTrovo maps Trovo webhook bodies.
func NormalizeTrovo(body []byte) (*event.Envelope, bool) {
	m, ok := decode(body)
	if !ok {
		return nil, false
	}

	data := obj(m, "data")
	if data == nil {
		return nil, false
	}

	env := &event.Envelope{
		ChannelRef:      str(data, "channel_id"),
		ActorAccountID:  str(data, "user_id", "sender_id"),
		ActorLogin:      str(data, "user_name", "nick_name"),
		ActorDisplay:    str(data, "nick_name", "user_name"),
		ProviderEventID: str(data, "event_id", "message_id"),
		EventAt:         timeAt(data, "send_time", "created_at"),
	}

	switch str(m, "event_type", "type") {
	case "follow":
		env.Kind = event.KindFollow
	case "subscription":
		env.Kind = event.KindSubscribe
		env.Tier = str(data, "sub_lv", "tier")
	case "gift_sub":
		env.Kind = event.KindGiftSub
		env.Tier = str(data, "sub_lv", "tier")
		env.Amount = num(data, "num", "quantity")
	case "spell_cast":
		// Elixir spells are Trovo's paid cheer equivalent.
		env.Kind = event.KindCheer
		env.Amount = num(data, "gift_value", "value")
	case "raid":
		env.Kind = event.KindRaid
		env.Amount = num(data, "viewers")
	case "chat":
		env.Kind = event.KindChatMessage
		env.Text = str(data, "content")
		env.RoleTags = strList(data, "roles")
	default:
		return nil, false
	}

	if env.ChannelRef == "" || env.ActorAccountID == "" {
		return nil, false
	}

	return env, true
}
