package hash

import (
	"github.com/quillify-app/quillify/config"
	"go.uber.org/fx"
)

func ProvideHashService(cfg *config.Config) *Service {
	return NewService(cfg.Auth.BcryptCost)
}

var Module = fx.Options(
	fx.Provide(ProvideHashService),
)
