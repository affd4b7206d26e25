package wallet

import (
	"context"
	"encoding/json"
	"sync"

	"memealerts-eventplane/pkg/rediskey"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Update describes a committed balance change. Emitted strictly after the
// crediting transaction commits.
type Update struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Provider  string `json:"provider"`
	EventID   string `json:"event_id"`
	Coins     int64  `json:"coins"`
}

// Notifier fans out wallet updates to realtime subscribers.
type Notifier interface {
	Notify(ctx context.Context, u Update)
}

type subKey struct {
	userID    string
	channelID string
}

// Hub delivers updates to local socket subscribers and relays them to peer
// instances over redis pub/sub. Delivery is best-effort on both paths.
type Hub struct {
	mu   sync.RWMutex
	subs map[subKey][]chan Update
	rdb  *redis.Client
}

type HubParams struct {
	fx.In
	Redis *redis.Client `optional:"true"`
}

func NewHub(p HubParams) *Hub {
	return &Hub{
		subs: make(map[subKey][]chan Update),
		rdb:  p.Redis,
	}
}

// Subscribe registers a local listener. The returned cancel func must be
// called when the listener goes away.
func (h *Hub) Subscribe(userID, channelID string) (<-chan Update, func()) {
	ch := make(chan Update, 8)
	key := subKey{userID: userID, channelID: channelID}

	h.mu.Lock()
	h.subs[key] = append(h.subs[key], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[key]
		for i, c := range chans {
			if c == ch {
				h.subs[key] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
	}

	return ch, cancel
}

func (h *Hub) Notify(ctx context.Context, u Update) {
	// Copy the subscriber list while holding the lock: a concurrent cancel
	// compacts the slice in place.
	h.mu.RLock()
	subs := h.subs[subKey{userID: u.UserID, channelID: u.ChannelID}]
	chans := make([]chan Update, len(subs))
	copy(chans, subs)
	h.mu.RUnlock()

	for _, c := range chans {
		select {
		case c <- u:
		default:
			// Slow subscriber; drop rather than block the caller.
		}
	}

	if h.rdb == nil {
		return
	}

	payload, err := json.Marshal(u)
	if err != nil {
		zap.L().Error("failed to marshal wallet update", zap.Error(err))
		return
	}

	if err := h.rdb.Publish(ctx, rediskey.BuildWalletTopicKey(u.ChannelID), payload).Err(); err != nil {
		zap.L().Warn("failed to relay wallet update to peers",
			zap.String("channel_id", u.ChannelID),
			zap.Error(err),
		)
	}
}

var Module = fx.Module("wallet.service",
	fx.Provide(
		NewService,
		NewHub,
		func(h *Hub) Notifier { return h },
	),
)
