package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/middleware/sessionauth"
	"github.com/quillify-app/quillify/services/logging"
	sessionsvc "github.com/quillify-app/quillify/services/session"
	"github.com/quillify-app/quillify/services/token"
	"github.com/quillify-app/quillify/services/user"
	"github.com/quillify-app/quillify/session"
	"go.uber.org/zap"
)

type AuthHandler struct {
	cfg      *config.Config
	users    *user.Service
	tokens   *token.Service
	sessions *sessionsvc.Service
	logger   *logging.Service
}

func NewAuthHandler(cfg *config.Config, users *user.Service, tokens *token.Service, sessions *sessionsvc.Service, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		cfg:      cfg,
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		logger:   logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	profile, err := h.users.Register(req.Email, req.Password, req.Name)
	if err != nil {
		return respondError(c, err)
	}

	// The account exists either way; a failed verification email only means
	// the user will have to ask for a resend.
	verificationSent := true
	if _, err := h.tokens.IssueEmailVerification(profile.ID); err != nil {
		verificationSent = false
		h.logger.Warn("verification email not sent at registration",
			zap.Error(err), zap.String("user_id", profile.ID))
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"user":                    profile,
		"verification_email_sent": verificationSent,
	})
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	profile, err := h.users.VerifyCredentials(req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	signed, expiresAt, err := h.sessions.Issue(profile, req.RememberMe)
	if err != nil {
		return respondError(c, apperr.Internal("failed to issue session", err))
	}

	if uaHeader := c.Request().UserAgent(); uaHeader != "" {
		ua := useragent.Parse(uaHeader)
		session.SetDevice(c, fmt.Sprintf("%s on %s", ua.Name, ua.OS))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"token":      signed,
		"expires_at": expiresAt,
		"user":       profile,
	})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset always answers 202 for unknown addresses so the
// endpoint cannot be used to enumerate accounts. A delivery failure on a
// known address is reported, since the token is persisted but unreachable.
func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}

	accepted := func() error {
		return c.JSON(http.StatusAccepted, map[string]string{
			"message": "If that email is registered, a reset link is on its way",
		})
	}

	u, err := h.users.GetByEmail(req.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return accepted()
		}
		return respondError(c, err)
	}

	if _, err := h.tokens.IssuePasswordReset(u.ID); err != nil {
		if errors.Is(err, token.ErrMailDelivery) {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": "reset link could not be delivered, please try again",
			})
		}
		return respondError(c, err)
	}

	return accepted()
}

// CheckPasswordReset pre-validates a reset token for the form page load. The
// token is not consumed.
func (h *AuthHandler) CheckPasswordReset(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return respondError(c, apperr.BadRequest("token is required"))
	}

	owner, err := h.tokens.ValidatePasswordReset(raw)
	if err != nil {
		var expired *token.ExpiredError
		if errors.As(err, &expired) {
			return c.JSON(http.StatusBadRequest, map[string]any{
				"status": "expired",
				"email":  expired.Email,
			})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status": "valid",
		"email":  owner.EmailString(),
	})
}

type confirmPasswordResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) ConfirmPasswordReset(c echo.Context) error {
	var req confirmPasswordResetRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, apperr.BadRequest("invalid request body"))
	}
	if req.Token == "" {
		return respondError(c, apperr.BadRequest("token is required"))
	}

	if err := h.tokens.ConsumePasswordReset(req.Token, req.Password); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

// VerifyEmail is the GET redirect endpoint behind the link in the
// verification email. The browser lands on a status page; the email for the
// expired page is read before consumption since consuming deletes the row.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return c.Redirect(http.StatusFound, h.statusURL("invalid", ""))
	}

	if _, err := h.tokens.ValidateEmailVerification(raw); err != nil {
		var expired *token.ExpiredError
		if errors.As(err, &expired) {
			return c.Redirect(http.StatusFound, h.statusURL("expired", expired.Email))
		}
		return c.Redirect(http.StatusFound, h.statusURL("invalid", ""))
	}

	if err := h.tokens.ConsumeEmailVerification(raw); err != nil {
		// lost a race with a concurrent consume, or expired in between
		return c.Redirect(http.StatusFound, h.statusURL("invalid", ""))
	}

	return c.Redirect(http.StatusFound, h.statusURL("success", ""))
}

func (h *AuthHandler) statusURL(status, email string) string {
	u := fmt.Sprintf("%s/verify-email/%s", h.cfg.App.URL, status)
	if email != "" {
		u += "?email=" + url.QueryEscape(email)
	}
	return u
}

// ResendVerification issues a fresh token for the signed-in user,
// superseding the previous one.
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	if _, err := h.tokens.IssueEmailVerification(sessionauth.GetUserID(c)); err != nil {
		if errors.Is(err, token.ErrMailDelivery) {
			return c.JSON(http.StatusBadGateway, map[string]string{
				"error": "verification email could not be delivered, please try again",
			})
		}
		return respondError(c, err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{"message": "verification email sent"})
}
