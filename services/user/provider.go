package user

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserService(cfg *config.Config, db *gorm.DB, hasher *hash.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, hasher, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideUserService),
)
