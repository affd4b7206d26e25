package outbox

import (
	"context"
	"time"

	"memealerts-eventplane/pkg/rediskey"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lease only when still owned by the caller, so an
// expired lease re-acquired by another worker is never released from under it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ChannelLease serializes outbound sends per (provider, channel) across
// workers. The TTL bounds how long a crashed holder can block a channel.
type ChannelLease struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewChannelLease(rdb *redis.Client, ttl time.Duration) *ChannelLease {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ChannelLease{rdb: rdb, ttl: ttl}
}

// Acquire attempts to take the per-channel lease. On success the returned
// release func must run in a defer, even when the send fails.
func (l *ChannelLease) Acquire(ctx context.Context, provider, channelID string) (release func(), ok bool, err error) {
	key := rediskey.BuildChannelLeaseKey(provider, channelID)
	owner := uuid.NewString()

	ok, err = l.rdb.SetNX(ctx, key, owner, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}

	release = func() {
		// Release must not depend on the (possibly canceled) request context.
		relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := releaseScript.Run(relCtx, l.rdb, []string{key}, owner).Err(); err != nil {
			zap.L().Warn("failed to release channel lease",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return release, true, nil
}
