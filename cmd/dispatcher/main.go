package main

import (
	"context"
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/db"
	"memealerts-eventplane/pkg/logger"
	"memealerts-eventplane/pkg/platform"
	"memealerts-eventplane/services/outbox"
)

// dispatcher is the polling delivery mode: it claims pending outbox rows in
// batches and pushes them to the chat proxies. Several instances may run at
// once; the claim CAS keeps them from double-sending.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		platform.Module,
		fx.Provide(
			provideSnowflakeNode,
			provideDispatcher,
		),
		outbox.Module,
		fx.Invoke(runDispatcher),
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
	return snowflake.NewNode(2)
}

func provideDispatcher(svc *outbox.Service, senders *platform.Registry, cfg *config.Config) *outbox.Dispatcher {
	return outbox.NewDispatcher(
		svc,
		senders,
		cfg.Outbox.PollInterval,
		cfg.Outbox.BatchSize,
		cfg.Outbox.SendTimeout,
	)
}

func runDispatcher(lc fx.Lifecycle, d *outbox.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go d.Run(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			d.Stop()
			return nil
		},
	})
}
