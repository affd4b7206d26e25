package webhook

import (
	"memealerts-eventplane/pkg/event"
)

// NormalizeVKVideo maps VK Video Live callback bodies: a type discriminator
// plus an object payload.
func NormalizeVKVideo(body []byte) (*event.Envelope, bool) {
	m, ok := decode(body)
	if !ok {
		return nil, false
	}

	object := obj(m, "object")
	if object == nil {
		return nil, false
	}

	user := obj(object, "user")

	env := &event.Envelope{
		ChannelRef:      str(object, "channel_id"),
		ActorAccountID:  str(user, "id"),
		ActorLogin:      str(user, "nick"),
		ActorDisplay:    str(user, "display_name", "nick"),
		ProviderEventID: str(object, "id"),
		EventAt:         timeAt(object, "created_at"),
	}

	switch str(m, "type") {
	case "live_comment_new":
		env.Kind = event.KindChatMessage
		env.Text = str(object, "text")
		env.RoleTags = strList(user, "roles")
	case "channel_follow":
		env.Kind = event.KindFollow
	case "channel_subscribe":
		env.Kind = event.KindSubscribe
		env.Tier = str(object, "level")
	case "reward_activated":
		env.Kind = event.KindRedemption
		env.RewardRef = str(obj(object, "reward"), "id")
	default:
		return nil, false
	}

	if env.ChannelRef == "" || env.ActorAccountID == "" {
		return nil, false
	}

	return env, true
}
