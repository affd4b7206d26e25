package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/db"
	"memealerts-eventplane/pkg/logger"
	"memealerts-eventplane/pkg/platform"
	"memealerts-eventplane/pkg/redis"
	"memealerts-eventplane/pkg/task"
	"memealerts-eventplane/services/outbox"
)

// worker is the queue delivery mode: one asynq job per outbox row, rate
// limited and serialized per channel through the redis lease.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		platform.Module,
		fx.Provide(provideSnowflakeNode),
		outbox.Module,
		outbox.WorkerModule,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(3)
}
