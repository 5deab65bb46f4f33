package main

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/database"
	"github.com/quillify-app/quillify/handlers"
	"github.com/quillify-app/quillify/server"
	"github.com/quillify-app/quillify/services/books"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/mail"
	sessionsvc "github.com/quillify-app/quillify/services/session"
	"github.com/quillify-app/quillify/services/token"
	"github.com/quillify-app/quillify/services/user"
	"github.com/quillify-app/quillify/session"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logging.Module,
		fx.Provide(func() *database.ModelsOption {
			return database.WithModels(
				&user.User{},
				&token.PasswordResetToken{},
				&token.EmailVerificationToken{},
				&books.Book{},
			)
		}),
		database.Module,
		hash.Module,
		user.Module,
		token.Module,
		mail.Module,
		sessionsvc.Module,
		books.Module,
		session.Module,
		server.Module,
		handlers.Module,
	)

	app.Run()
}
