package platform

import (
	"memealerts-eventplane/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("platform.senders", fx.Provide(ProvideRegistry))

// ProvideRegistry builds the sender registry from the per-provider chat-proxy
// configuration. Providers without a proxy URL are left unregistered, and
// delivery to them fails their outbox rows instead of silently dropping them.
func ProvideRegistry(cfg *config.Config) *Registry {
	r := NewRegistry()
	for name, pc := range cfg.Providers {
		if pc.ChatProxyURL == "" {
			zap.L().Warn("no chat proxy configured for provider", zap.String("provider", name))
			continue
		}
		r.Register(name, NewHTTPSender(pc.ChatProxyURL, pc.ChatToken, cfg.Outbox.SendTimeout))
	}
	return r
}
