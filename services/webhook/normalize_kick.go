package webhook

import (
	"memealerts-eventplane/pkg/event"
)

// NormalizeKick maps Kick webhook bodies. The event type travels in the body
// alongside the data object.
func NormalizeKick(body []byte) (*event.Envelope, bool) {
	m, ok := decode(body)
	if !ok {
		return nil, false
	}

	data := obj(m, "data")
	if data == nil {
		data = m
	}

	broadcaster := obj(data, "broadcaster")
	sender := obj(data, "sender")
	if sender == nil {
		sender = obj(data, "follower")
	}
	if sender == nil {
		sender = obj(data, "gifter")
	}

	env := &event.Envelope{
		ChannelRef:      str(broadcaster, "user_id", "channel_id"),
		ActorAccountID:  str(sender, "user_id"),
		ActorLogin:      str(sender, "username", "slug"),
		ActorDisplay:    str(sender, "display_name", "username"),
		ProviderEventID: str(data, "id", "event_id"),
		EventAt:         timeAt(data, "created_at"),
	}

	switch str(m, "event", "type") {
	case "channel.followed":
		env.Kind = event.KindFollow
	case "channel.subscription.new", "channel.subscription.renewal":
		env.Kind = event.KindSubscribe
		env.Tier = str(data, "tier")
	case "channel.subscription.gifts":
		env.Kind = event.KindGiftSub
		env.Tier = str(data, "tier")
		env.Amount = num(data, "quantity")
	case "channel.reward.redeemed":
		env.Kind = event.KindRedemption
		env.RewardRef = str(obj(data, "reward"), "id")
	case "chat.message.sent":
		env.Kind = event.KindChatMessage
		env.Text = str(data, "content")
		env.ProviderEventID = str(data, "message_id", "id")
		env.RoleTags = strList(obj(data, "sender"), "identity_roles")
	default:
		return nil, false
	}

	if env.ChannelRef == "" || env.ActorAccountID == "" {
		return nil, false
	}

	return env, true
}
