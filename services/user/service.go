package user

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken = apperr.Conflict("email already in use")
	// ErrInvalidCredentials covers both unknown email and wrong password so a
	// caller cannot tell which one failed.
	ErrInvalidCredentials = apperr.Unauthorized("invalid email or password")
	ErrNoPassword         = apperr.BadRequest("this account uses a different sign-in method")
	ErrUserNotFound       = apperr.NotFound("user not found")
)

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	hasher *hash.Service
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

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.cfg.Auth.MinLength {
		return apperr.BadRequest(fmt.Sprintf("password must be at least %d characters", s.cfg.Auth.MinLength))
	}
	return nil
}

func (s *Service) Register(email, password, name string) (*Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperr.BadRequest("email is required")
	}
	if err := s.ValidatePassword(password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		s.logger.Error("failed to check email availability", zap.Error(err))
		return nil, apperr.Internal("failed to register user", err)
	}
	if count > 0 {
		s.logger.Warn("registration attempted with taken email", zap.String("email", email))
		return nil, ErrEmailTaken
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("password hashing failed during registration", zap.Error(err))
		return nil, apperr.Internal("failed to register user", err)
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        &email,
		Name:         name,
		PasswordHash: hashed,
	}

	if err := s.db.Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to create user", zap.Error(err))
		return nil, apperr.Internal("failed to register user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", u.ID))
	return u.Profile(), nil
}

// VerifyCredentials checks an email/password pair. Unknown email and wrong
// password produce the identical ErrInvalidCredentials. An account without a
// stored hash is reported distinctly so the UI can point at the other sign-in
// method.
func (s *Service) VerifyCredentials(email, password string) (*Profile, error) {
	u, err := s.getByEmail(email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			s.logger.Warn("sign-in attempted with unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if u.PasswordHash == "" {
		return nil, ErrNoPassword
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		s.logger.Warn("sign-in failed: password mismatch", zap.String("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}

	return u.Profile(), nil
}

func (s *Service) GetByID(id string) (*User, error) {
	var u User
	if err := s.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user", zap.Error(err), zap.String("user_id", id))
		return nil, apperr.Internal("failed to load user", err)
	}
	return &u, nil
}

// GetByEmail is used by callers that must not reveal account existence; they
// are expected to swallow ErrUserNotFound.
func (s *Service) GetByEmail(email string) (*User, error) {
	return s.getByEmail(email)
}

func (s *Service) getByEmail(email string) (*User, error) {
	var u User
	if err := s.db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("failed to load user by email", zap.Error(err))
		return nil, apperr.Internal("failed to load user", err)
	}
	return &u, nil
}

// regate re-verifies the current password before a credential mutation. A
// stolen session token alone is not enough to take over the account.
func (s *Service) regate(u *User, currentPassword string) error {
	if u.PasswordHash == "" {
		return ErrNoPassword
	}
	if !s.hasher.Verify(currentPassword, u.PasswordHash) {
		s.logger.Warn("credential mutation rejected: current password mismatch", zap.String("user_id", u.ID))
		return apperr.Unauthorized("current password is incorrect")
	}
	return nil
}

// VerifyPassword re-verifies the current password for an already
// authenticated user, the gate in front of destructive account operations.
func (s *Service) VerifyPassword(userID, password string) error {
	u, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	return s.regate(u, password)
}

// UpdateEmail changes the account email after re-verifying the current
// password. The verification timestamp is cleared because the new address has
// not been proven yet; the caller is expected to issue a fresh verification
// token.
func (s *Service) UpdateEmail(userID, newEmail, currentPassword string) (*Profile, error) {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return nil, apperr.BadRequest("email is required")
	}

	u, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if err := s.regate(u, currentPassword); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&User{}).Where("email = ? AND id <> ?", newEmail, userID).Count(&count).Error; err != nil {
		s.logger.Error("failed to check email availability", zap.Error(err))
		return nil, apperr.Internal("failed to update email", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	if u.EmailString() == newEmail {
		return u.Profile(), nil
	}

	updates := map[string]any{
		"email":             newEmail,
		"email_verified_at": nil,
	}
	if err := s.db.Model(u).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		s.logger.Error("failed to update email", zap.Error(err), zap.String("user_id", userID))
		return nil, apperr.Internal("failed to update email", err)
	}

	s.logger.Info("email updated", zap.String("user_id", userID))
	u.Email = &newEmail
	u.EmailVerifiedAt = nil
	return u.Profile(), nil
}

func (s *Service) UpdatePassword(userID, currentPassword, newPassword string) error {
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	u, err := s.GetByID(userID)
	if err != nil {
		return err
	}
	if err := s.regate(u, currentPassword); err != nil {
		return err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("password hashing failed during update", zap.Error(err))
		return apperr.Internal("failed to update password", err)
	}

	if err := s.db.Model(u).Update("password_hash", hashed).Error; err != nil {
		s.logger.Error("failed to update password", zap.Error(err), zap.String("user_id", userID))
		return apperr.Internal("failed to update password", err)
	}

	s.logger.Info("password updated", zap.String("user_id", userID))
	return nil
}

// Delete removes the account. Owned tokens and books go with it through the
// foreign key cascade.
func (s *Service) Delete(userID string) error {
	result := s.db.Delete(&User{}, "id = ?", userID)
	if result.Error != nil {
		s.logger.Error("failed to delete user", zap.Error(result.Error), zap.String("user_id", userID))
		return apperr.Internal("failed to delete account", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// EmailVerifiedAt re-reads the verification timestamp, used for the
// opportunistic session flag refresh.
func (s *Service) EmailVerifiedAt(userID string) (*time.Time, error) {
	u, err := s.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return u.EmailVerifiedAt, nil
}
