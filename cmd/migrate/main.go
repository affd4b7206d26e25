package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"memealerts-eventplane/pkg/config"
	"memealerts-eventplane/pkg/db"
	"memealerts-eventplane/pkg/logger"
	"memealerts-eventplane/services/channel"
	"memealerts-eventplane/services/command"
	"memealerts-eventplane/services/outbox"
	"memealerts-eventplane/services/reward"
	"memealerts-eventplane/services/wallet"
	"memealerts-eventplane/services/webhook"
)

// migrate applies the schema and exits.
func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Invoke(runMigrations),
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

func runMigrations(gdb *gorm.DB, shutdowner fx.Shutdowner) error {
	err := gdb.AutoMigrate(
		&channel.Channel{},
		&wallet.Wallet{},
		&wallet.LinkedAccount{},
		&reward.RewardEvent{},
		&command.ChatCommand{},
		&outbox.Message{},
		&webhook.WebhookDelivery{},
	)
	if err != nil {
		return err
	}

	zap.L().Info("schema migration complete")
	return shutdowner.Shutdown()
}
