package token

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/logging"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideTokenService(cfg *config.Config, db *gorm.DB, hasher *hash.Service, logger *logging.Service) *Service {
	return NewService(cfg, db, hasher, logger)
}

type OptionalMailSender struct {
	fx.In
	Mail MailSender `optional:"true"`
}

func WireMailSender(svc *Service, opt OptionalMailSender) {
	if svc != nil && opt.Mail != nil {
		svc.SetMailSender(opt.Mail)
	}
}

var Module = fx.Options(
	fx.Provide(ProvideTokenService),
	fx.Invoke(WireMailSender),
)
