package token

import (
	"time"

	"github.com/quillify-app/quillify/services/user"
)

// PasswordResetToken is a single-use credential for one password change.
// Consumption deletes the row; there is no "used" state.
type PasswordResetToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;index"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	User user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}

// EmailVerificationToken has the same lifecycle as PasswordResetToken but
// grants only the email_verified_at transition.
type EmailVerificationToken struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:36;not null;index"`
	Token     string    `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`

	User user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}
