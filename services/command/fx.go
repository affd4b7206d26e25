package command

import (
	"memealerts-eventplane/pkg/config"

	"go.uber.org/fx"
)

var Module = fx.Module("command.service",
	fx.Provide(
		func(cfg *config.Config) *CommandCache {
			return NewCommandCache(cfg.Command.CacheTTL)
		},
		NewService,
	),
)
