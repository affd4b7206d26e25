package event

import "time"

// Kinds of reward-worthy platform events after normalization.
const (
	KindFollow      = "follow"
	KindSubscribe   = "subscribe"
	KindResub       = "resub"
	KindGiftSub     = "gift_sub"
	KindCheer       = "cheer"
	KindRaid        = "raid"
	KindRedemption  = "redemption"
	KindChatMessage = "chat_message"
)

// Envelope is the canonical shape every provider payload is normalized into.
// ProviderEventID may be empty for event kinds the platform assigns no stable
// id to; the reward ledger synthesizes one in that case.
type Envelope struct {
	Kind            string
	ChannelRef      string
	ActorAccountID  string
	ActorLogin      string
	ActorDisplay    string
	RoleTags        []string
	Amount          int64
	Tier            string
	RewardRef       string
	Text            string
	ProviderEventID string
	EventAt         *time.Time
}

// IsChat reports whether the envelope carries a chat message rather than a
// reward-worthy platform event.
func (e *Envelope) IsChat() bool {
	return e.Kind == KindChatMessage
}
