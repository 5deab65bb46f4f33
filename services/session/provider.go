package session

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/user"
	"go.uber.org/fx"
)

func ProvideSessionService(cfg *config.Config, users *user.Service, logger *logging.Service) *Service {
	return NewService(cfg, users, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideSessionService),
)
