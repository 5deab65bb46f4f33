package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/middleware/sessionauth"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/token"
	"github.com/quillify-app/quillify/services/user"
	"github.com/quillify-app/quillify/session"
	"go.uber.org/zap"
)

type AccountHandler struct {
	users  *user.Service
	tokens *token.Service
	logger *logging.Service
}

func NewAccountHandler(users *user.Service, tokens *token.Service, logger *logging.Service) *AccountHandler {
	return &AccountHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *AccountHandler) Me(c echo.Context) error {
	u, err := h.users.GetByID(sessionauth.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user":                      u.Profile(),
		"verification_notice_shown": session.VerificationNoticeShown(c),
	})
}

// AckVerificationNotice flags this device as having seen the "please verify"
// banner.
func (h *AccountHandler) AckVerificationNotice(c echo.Context) error {
	session.MarkVerificationNoticeShown(c)
	return c.NoContent(http.StatusNoContent)
}

type updateEmailRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
}

func (h *AccountHandler) UpdateEmail(c echo.Context) error {
	var req updateEmailRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	userID := sessionauth.GetUserID(c)
	profile, err := h.users.UpdateEmail(userID, req.Email, req.CurrentPassword)
	if err != nil {
		return respondError(c, err)
	}

	// The new address is unverified; prove it again.
	if _, err := h.tokens.IssueEmailVerification(userID); err != nil {
		h.logger.Warn("verification email not sent after email change",
			zap.Error(err), zap.String("user_id", userID))
	}

	return c.JSON(http.StatusOK, map[string]any{"user": profile})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AccountHandler) UpdatePassword(c echo.Context) error {
	var req updatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	if err := h.users.UpdatePassword(sessionauth.GetUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

type deleteAccountRequest struct {
	CurrentPassword string `json:"current_password"`
}

func (h *AccountHandler) Delete(c echo.Context) error {
	var req deleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	userID := sessionauth.GetUserID(c)
	if err := h.users.VerifyPassword(userID, req.CurrentPassword); err != nil {
		return respondError(c, err)
	}

	if err := h.users.Delete(userID); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
