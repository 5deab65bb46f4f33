package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/token"
)

type CleanupHandler struct {
	cfg    *config.Config
	tokens *token.Service
}

func NewCleanupHandler(cfg *config.Config, tokens *token.Service) *CleanupHandler {
	return &CleanupHandler{cfg: cfg, tokens: tokens}
}

// Run is called by the external scheduler. Authentication is a shared secret
// in the bearer header, compared in constant time.
func (h *CleanupHandler) Run(c echo.Context) error {
	if h.cfg.Cleanup.Secret == "" {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "cleanup is not configured")
	}

	authHeader := c.Request().Header.Get("Authorization")
	presented := strings.TrimPrefix(authHeader, "Bearer ")
	if presented == authHeader ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(h.cfg.Cleanup.Secret)) != 1 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid cleanup secret")
	}

	resetDeleted, verificationDeleted, err := h.tokens.CleanupExpired()
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int64{
		"password_reset_deleted":     resetDeleted,
		"email_verification_deleted": verificationDeleted,
	})
}
