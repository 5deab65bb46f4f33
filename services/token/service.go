package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/user"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrTokenInvalid covers tokens that never existed and tokens already
	// consumed; the two are indistinguishable once the row is deleted.
	ErrTokenInvalid = apperr.NotFound("invalid token")
	ErrTokenExpired = apperr.BadRequest("token has expired")

	// ErrMailDelivery reports a send failure after the token was persisted.
	// The token stays valid; the user can request a resend.
	ErrMailDelivery = errors.New("token issued but email delivery failed")
)

// ExpiredError carries the owning account's email so the caller can offer a
// one-click resend on the expired path.
type ExpiredError struct {
	Email string
}

func (e *ExpiredError) Error() string { return "token has expired" }

func (e *ExpiredError) Unwrap() error { return ErrTokenExpired }

type MailSender interface {
	SendTemplate(templateName string, to []string, subject, category string, data map[string]any) error
}

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	hasher *hash.Service
	mail   MailSender
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, hasher *hash.Service, logger *logging.Service) *Service {
	return &Service{
		cfg:    cfg,
		db:     db,
		hasher: hasher,
		logger: logger,
	}
}

func (s *Service) SetMailSender(mail MailSender) {
	s.mail = mail
}

func (s *Service) generateToken() (string, error) {
	bytes := make([]byte, s.cfg.Auth.TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (s *Service) owner(userID string) (*user.User, error) {
	var u user.User
	if err := s.db.First(&u, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, apperr.Internal("failed to load token owner", err)
	}
	return &u, nil
}

// IssuePasswordReset creates a reset token for the user, superseding any
// earlier one. Delete and insert run in one transaction so two tokens are
// never live at once. The raw token is returned even when the email could not
// be delivered, paired with ErrMailDelivery.
func (s *Service) IssuePasswordReset(userID string) (*PasswordResetToken, error) {
	u, err := s.owner(userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generateToken()
	if err != nil {
		s.logger.Error("failed to generate password reset token", zap.Error(err))
		return nil, apperr.Internal("failed to issue password reset token", err)
	}

	t := &PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     raw,
		ExpiresAt: time.Now().Add(s.cfg.Auth.PasswordResetExpiry),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		s.logger.Error("failed to persist password reset token", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to issue password reset token", err)
	}

	s.logger.Info("password reset token issued",
		zap.String("user_id", userID),
		zap.Time("expires_at", t.ExpiresAt))

	if err := s.sendPasswordResetEmail(u, raw); err != nil {
		s.logger.Error("failed to send password reset email", zap.Error(err), zap.String("user_id", userID))
		return t, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return t, nil
}

// IssueEmailVerification mirrors IssuePasswordReset for the verification
// token kind.
func (s *Service) IssueEmailVerification(userID string) (*EmailVerificationToken, error) {
	u, err := s.owner(userID)
	if err != nil {
		return nil, err
	}

	raw, err := s.generateToken()
	if err != nil {
		s.logger.Error("failed to generate email verification token", zap.Error(err))
		return nil, apperr.Internal("failed to issue email verification token", err)
	}

	t := &EmailVerificationToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     raw,
		ExpiresAt: time.Now().Add(s.cfg.Auth.EmailVerificationExpiry),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&EmailVerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		s.logger.Error("failed to persist email verification token", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to issue email verification token", err)
	}

	s.logger.Info("email verification token issued",
		zap.String("user_id", userID),
		zap.Time("expires_at", t.ExpiresAt))

	if err := s.sendVerificationEmail(u, raw); err != nil {
		s.logger.Error("failed to send email verification email", zap.Error(err), zap.String("user_id", userID))
		return t, fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}

	return t, nil
}

// ValidatePasswordReset checks a token without consuming it, so a reset form
// can be pre-validated on page load. Expired tokens are reported distinctly
// from unknown ones.
func (s *Service) ValidatePasswordReset(raw string) (*user.User, error) {
	var t PasswordResetToken
	if err := s.db.First(&t, "token = ?", raw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("unknown password reset token presented")
			return nil, ErrTokenInvalid
		}
		return nil, apperr.Internal("failed to validate password reset token", err)
	}

	u, err := s.owner(t.UserID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(t.ExpiresAt) {
		s.logger.Warn("expired password reset token presented", zap.String("user_id", t.UserID))
		return nil, &ExpiredError{Email: u.EmailString()}
	}

	return u, nil
}

func (s *Service) ValidateEmailVerification(raw string) (*user.User, error) {
	var t EmailVerificationToken
	if err := s.db.First(&t, "token = ?", raw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("unknown email verification token presented")
			return nil, ErrTokenInvalid
		}
		return nil, apperr.Internal("failed to validate email verification token", err)
	}

	u, err := s.owner(t.UserID)
	if err != nil {
		return nil, err
	}

	if time.Now().After(t.ExpiresAt) {
		s.logger.Warn("expired email verification token presented", zap.String("user_id", t.UserID))
		return nil, &ExpiredError{Email: u.EmailString()}
	}

	return u, nil
}

// ConsumePasswordReset applies a new password and deletes the token in one
// transaction. The conditional delete keyed on the token value decides races:
// whichever request deletes the row applies the mutation, every other request
// sees ErrTokenInvalid and nothing else happens.
func (s *Service) ConsumePasswordReset(raw, newPassword string) error {
	if len(newPassword) < s.cfg.Auth.MinLength {
		return apperr.BadRequest(fmt.Sprintf("password must be at least %d characters", s.cfg.Auth.MinLength))
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("password hashing failed during reset", zap.Error(err))
		return apperr.Internal("failed to reset password", err)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var t PasswordResetToken
		if err := tx.First(&t, "token = ?", raw).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		if time.Now().After(t.ExpiresAt) {
			return ErrTokenExpired
		}

		result := tx.Delete(&PasswordResetToken{}, "token = ?", raw)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// lost a concurrent consume
			return ErrTokenInvalid
		}

		return tx.Model(&user.User{}).Where("id = ?", t.UserID).Update("password_hash", hashed).Error
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		s.logger.Error("failed to consume password reset token", zap.Error(err))
		return apperr.Internal("failed to reset password", err)
	}

	s.logger.Info("password reset completed")
	return nil
}

// ConsumeEmailVerification stamps email_verified_at and deletes the token in
// one transaction. The timestamp is only written while still null, so it
// never moves once set.
func (s *Service) ConsumeEmailVerification(raw string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var t EmailVerificationToken
		if err := tx.First(&t, "token = ?", raw).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		if time.Now().After(t.ExpiresAt) {
			return ErrTokenExpired
		}

		result := tx.Delete(&EmailVerificationToken{}, "token = ?", raw)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTokenInvalid
		}

		return tx.Model(&user.User{}).
			Where("id = ? AND email_verified_at IS NULL", t.UserID).
			Update("email_verified_at", time.Now()).Error
	})
	if err != nil {
		if apperr.KindOf(err) != apperr.KindInternal {
			return err
		}
		s.logger.Error("failed to consume email verification token", zap.Error(err))
		return apperr.Internal("failed to verify email", err)
	}

	s.logger.Info("email verified")
	return nil
}

// CleanupExpired removes expired rows of both kinds and reports the counts.
// Called by the external scheduler through the cleanup endpoint.
func (s *Service) CleanupExpired() (resetDeleted, verificationDeleted int64, err error) {
	now := time.Now()

	result := s.db.Where("expires_at < ?", now).Delete(&PasswordResetToken{})
	if result.Error != nil {
		s.logger.Error("failed to cleanup expired password reset tokens", zap.Error(result.Error))
		return 0, 0, apperr.Internal("failed to cleanup expired tokens", result.Error)
	}
	resetDeleted = result.RowsAffected

	result = s.db.Where("expires_at < ?", now).Delete(&EmailVerificationToken{})
	if result.Error != nil {
		s.logger.Error("failed to cleanup expired email verification tokens", zap.Error(result.Error))
		return resetDeleted, 0, apperr.Internal("failed to cleanup expired tokens", result.Error)
	}
	verificationDeleted = result.RowsAffected

	s.logger.Info("expired tokens cleaned up",
		zap.Int64("password_reset_deleted", resetDeleted),
		zap.Int64("email_verification_deleted", verificationDeleted))
	return resetDeleted, verificationDeleted, nil
}

func (s *Service) sendPasswordResetEmail(u *user.User, raw string) error {
	if s.mail == nil {
		return fmt.Errorf("mail sender is not configured")
	}
	if u.Email == nil {
		return fmt.Errorf("user has no email address")
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.App.URL, raw)
	data := map[string]any{
		"Name":           u.Name,
		"ResetURL":       resetURL,
		"ExpiryDuration": s.cfg.Auth.PasswordResetExpiry.String(),
		"AppName":        s.cfg.App.Name,
	}

	return s.mail.SendTemplate("password_reset", []string{*u.Email}, "Reset your password", "password-reset", data)
}

func (s *Service) sendVerificationEmail(u *user.User, raw string) error {
	if s.mail == nil {
		return fmt.Errorf("mail sender is not configured")
	}
	if u.Email == nil {
		return fmt.Errorf("user has no email address")
	}

	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s", s.cfg.App.URL, raw)
	data := map[string]any{
		"Name":            u.Name,
		"VerificationURL": verifyURL,
		"ExpiryDuration":  s.cfg.Auth.EmailVerificationExpiry.String(),
		"AppName":         s.cfg.App.Name,
	}

	return s.mail.SendTemplate("email_verification", []string{*u.Email}, "Please verify your email address", "email-verification", data)
}
