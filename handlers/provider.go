package handlers

import (
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/middleware/ratelimit"
	"github.com/quillify-app/quillify/middleware/sessionauth"
	"github.com/quillify-app/quillify/server"
	sessionsvc "github.com/quillify-app/quillify/services/session"
	"github.com/quillify-app/quillify/session"
	"go.uber.org/fx"
)

func RegisterRoutes(
	srv *server.Server,
	cfg *config.Config,
	manager *session.Manager,
	sessions *sessionsvc.Service,
	auth *AuthHandler,
	account *AccountHandler,
	books *BooksHandler,
	cleanup *CleanupHandler,
) {
	e := srv.Echo()
	e.Use(session.Middleware(manager))

	loginLimiter := ratelimit.Middleware(&ratelimit.Config{
		Rate:   cfg.Auth.LoginRateLimit,
		Period: cfg.Auth.LoginRatePeriod,
	})

	api := e.Group("/api")

	api.POST("/auth/register", auth.Register)
	api.POST("/auth/login", auth.Login, loginLimiter)
	api.POST("/auth/password-reset/request", auth.RequestPasswordReset, loginLimiter)
	api.GET("/auth/password-reset", auth.CheckPasswordReset)
	api.POST("/auth/password-reset", auth.ConfirmPasswordReset)

	e.GET("/auth/verify-email", auth.VerifyEmail)

	authed := api.Group("", sessionauth.RequireSession(sessions))
	authed.POST("/auth/verify-email/resend", auth.ResendVerification)

	authed.GET("/account", account.Me)
	authed.POST("/account/verification-notice", account.AckVerificationNotice)
	authed.PUT("/account/email", account.UpdateEmail)
	authed.PUT("/account/password", account.UpdatePassword)
	authed.DELETE("/account", account.Delete)

	authed.GET("/books", books.List)
	authed.POST("/books", books.Create)
	authed.GET("/books/stats", books.Stats)
	authed.GET("/books/:id", books.Get)
	authed.PUT("/books/:id", books.Update)
	authed.DELETE("/books/:id", books.Delete)

	e.POST("/internal/cleanup", cleanup.Run)
}

var Module = fx.Options(
	fx.Provide(
		NewAuthHandler,
		NewAccountHandler,
		NewBooksHandler,
		NewCleanupHandler,
	),
	fx.Invoke(RegisterRoutes),
)
