package session

import (
	"fmt"

	"github.com/alexedwards/scs/gormstore"
	"github.com/alexedwards/scs/v2"
	"github.com/quillify-app/quillify/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Manager wraps scs for the small pieces of per-device state the app keeps
// server-side, like whether the verification notice has been shown.
type Manager struct {
	*scs.SessionManager
}

func ProvideSessionManager(cfg *config.Config, db *gorm.DB) (*Manager, error) {
	sessionManager := scs.New()

	store, err := gormstore.NewWithCleanupInterval(db, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	sessionManager.Store = store
	sessionManager.Lifetime = cfg.Session.RememberExpiry
	sessionManager.Cookie.Name = "quillify_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Secure = cfg.Session.CookieSecure

	return &Manager{SessionManager: sessionManager}, nil
}

var Module = fx.Options(
	fx.Provide(ProvideSessionManager),
)
