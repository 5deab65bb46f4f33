package books

import (
	"github.com/quillify-app/quillify/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideBooksService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

var Module = fx.Options(
	fx.Provide(ProvideBooksService),
)
