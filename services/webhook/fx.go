package webhook

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(
		NewGate,
		NewService,
	),
	fx.Invoke(func(s *Service, engine *gin.Engine) {
		s.RegisterRoutes(engine)
	}),
)
