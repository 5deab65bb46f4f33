package user

import (
	"time"
)

// User is a credential account. Email is a pointer because accounts created
// through external sign-in may not have an address until the user sets one;
// the unique index still holds for every non-null value.
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;size:36"`
	Email           *string    `json:"email" gorm:"uniqueIndex;size:255"`
	Name            string     `json:"name" gorm:"size:255"`
	PasswordHash    string     `json:"-" gorm:"size:255"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) EmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) EmailString() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Profile is the public projection of a user. The password hash never leaves
// the service.
type Profile struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
}

func (u *User) Profile() *Profile {
	return &Profile{
		ID:              u.ID,
		Email:           u.EmailString(),
		Name:            u.Name,
		EmailVerifiedAt: u.EmailVerifiedAt,
	}
}
