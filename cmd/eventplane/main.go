package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"memealerts-eventplane/internal/server"
	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/db"
	"memealerts-eventplane/pkg/health"
	"memealerts-eventplane/pkg/logger"
	"memealerts-eventplane/pkg/redis"
	"memealerts-eventplane/pkg/task"
	"memealerts-eventplane/services/channel"
	"memealerts-eventplane/services/command"
	"memealerts-eventplane/services/outbox"
	"memealerts-eventplane/services/reward"
	"memealerts-eventplane/services/wallet"
	"memealerts-eventplane/services/webhook"
)

// eventplane is the ingestion surface: webhook endpoints, account linking and
// the direct-say API. Delivery of the outbox rows it writes belongs to the
// dispatcher and worker binaries.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		health.Module,
		fx.Provide(
			provideSnowflakeNode,
			func(s *outbox.Service) command.Outbox { return s },
			func(s *channel.Service) command.LiveStatusSource { return s },
		),
		channel.Module,
		wallet.Module,
		reward.Module,
		command.Module,
		outbox.Module,
		webhook.Module,
		server.Module,
		fx.Invoke(registerOpsRoutes),
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
	return snowflake.NewNode(1)
}

func registerOpsRoutes(engine *gin.Engine, h health.HealthService) {
	engine.GET("/healthz", h.Liveness)
	engine.GET("/readyz", h.Readiness)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
