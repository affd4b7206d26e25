package outbox

import (
	"memealerts-eventplane/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("outbox.service",
	fx.Provide(NewService),
)

var WorkerModule = fx.Module("outbox.worker",
	fx.Provide(
		func(rdb *redis.Client, cfg *config.Config) *ChannelLease {
			return NewChannelLease(rdb, cfg.Outbox.LeaseTTL)
		},
		NewWorker,
	),
	fx.Invoke(RegisterWorker),
)
