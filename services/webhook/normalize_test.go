package webhook

import (
	"testing"

	"memealerts-eventplane/pkg/event"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTwitchSubscribe(t *testing.T) {
	body := []byte(`{
		"subscription": {"type": "channel.subscribe"},
		"event": {
			"id": "evt-1",
			"broadcaster_user_id": "777",
			"user_id": "42",
			"user_login": "viewer",
			"user_name": "Viewer",
			"tier": "1000"
		}
	}`)

	env, ok := NormalizeTwitch(body)
	require.True(t, ok)
	require.Equal(t, event.KindSubscribe, env.Kind)
	require.Equal(t, "777", env.ChannelRef)
	require.Equal(t, "42", env.ActorAccountID)
	require.Equal(t, "1000", env.Tier)
	require.Equal(t, "evt-1", env.ProviderEventID)
}

func TestNormalizeTwitchCheer(t *testing.T) {
	body := []byte(`{
		"subscription": {"type": "channel.cheer"},
		"event": {"broadcaster_user_id": "777", "user_id": "42", "bits": 500}
	}`)

	env, ok := NormalizeTwitch(body)
	require.True(t, ok)
	require.Equal(t, event.KindCheer, env.Kind)
	require.Equal(t, int64(500), env.Amount)
}

func TestNormalizeTwitchChatMessage(t *testing.T) {
	body := []byte(`{
		"subscription": {"type": "channel.chat.message"},
		"event": {
			"broadcaster_user_id": "777",
			"chatter_user_id": "42",
			"chatter_user_login": "viewer",
			"message_id": "m-1",
			"message": {"text": "!coins"},
			"badges": [{"set_id": "moderator"}, {"set_id": "subscriber"}]
		}
	}`)

	env, ok := NormalizeTwitch(body)
	require.True(t, ok)
	require.True(t, env.IsChat())
	require.Equal(t, "!coins", env.Text)
	require.Equal(t, []string{"moderator", "subscriber"}, env.RoleTags)
	require.Equal(t, "m-1", env.ProviderEventID)
}

func TestNormalizeTwitchUnknownType(t *testing.T) {
	body := []byte(`{"subscription": {"type": "channel.hype_train.begin"}, "event": {"broadcaster_user_id": "777", "user_id": "42"}}`)
	_, ok := NormalizeTwitch(body)
	require.False(t, ok)
}

func TestNormalizeTwitchMissingActor(t *testing.T) {
	body := []byte(`{"subscription": {"type": "channel.follow"}, "event": {"broadcaster_user_id": "777"}}`)
	_, ok := NormalizeTwitch(body)
	require.False(t, ok)
}

func TestNormalizeKickGiftSubs(t *testing.T) {
	body := []byte(`{
		"event": "channel.subscription.gifts",
		"data": {
			"id": "evt-9",
			"broadcaster": {"user_id": "b-1"},
			"gifter": {"user_id": "g-1", "username": "generous"},
			"tier": "1000",
			"quantity": 5
		}
	}`)

	env, ok := NormalizeKick(body)
	require.True(t, ok)
	require.Equal(t, event.KindGiftSub, env.Kind)
	require.Equal(t, "b-1", env.ChannelRef)
	require.Equal(t, "g-1", env.ActorAccountID)
	require.Equal(t, int64(5), env.Amount)
}

func TestNormalizeKickChatMessage(t *testing.T) {
	body := []byte(`{
		"event": "chat.message.sent",
		"data": {
			"message_id": "m-7",
			"broadcaster": {"user_id": "b-1"},
			"sender": {"user_id": "u-1", "username": "viewer", "identity_roles": ["moderator"]},
			"content": "!so friend"
		}
	}`)

	env, ok := NormalizeKick(body)
	require.True(t, ok)
	require.True(t, env.IsChat())
	require.Equal(t, "!so friend", env.Text)
	require.Equal(t, "m-7", env.ProviderEventID)
	require.Equal(t, []string{"moderator"}, env.RoleTags)
}

func TestNormalizeVKVideoRedemption(t *testing.T) {
	body := []byte(`{
		"type": "reward_activated",
		"object": {
			"id": "evt-3",
			"channel_id": "vk-chan",
			"user": {"id": "u-5", "nick": "zritel"},
			"reward": {"id": "reward-abc"}
		}
	}`)

	env, ok := NormalizeVKVideo(body)
	require.True(t, ok)
	require.Equal(t, event.KindRedemption, env.Kind)
	require.Equal(t, "reward-abc", env.RewardRef)
	require.Equal(t, "vk-chan", env.ChannelRef)
}

func TestNormalizeTrovoSpellCast(t *testing.T) {
	body := []byte(`{
		"event_type": "spell_cast",
		"data": {
			"event_id": "evt-4",
			"channel_id": "trovo-chan",
			"user_id": "u-9",
			"user_name": "caster",
			"gift_value": 300
		}
	}`)

	env, ok := NormalizeTrovo(body)
	require.True(t, ok)
	require.Equal(t, event.KindCheer, env.Kind)
	require.Equal(t, int64(300), env.Amount)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	for _, normalize := range []Normalizer{NormalizeTwitch, NormalizeKick, NormalizeVKVideo, NormalizeTrovo} {
		_, ok := normalize([]byte(`not json`))
		require.False(t, ok)
		_, ok = normalize([]byte(`{}`))
		require.False(t, ok)
	}
}
