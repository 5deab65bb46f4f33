package mail

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/token"
	"go.uber.org/fx"
)

func ProvideMailService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	return NewService(&cfg.Mail, logger)
}

var Module = fx.Options(
	fx.Provide(
		ProvideMailService,
		func(s *Service) token.MailSender { return s },
	),
)
