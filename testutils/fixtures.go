package testutils

import (
	"time"

	"github.com/quillify-app/quillify/config"
	"golang.org/x/crypto/bcrypt"
)

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Quillify Test",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			MinLength:               8,
			BcryptCost:              bcrypt.MinCost,
			PasswordResetExpiry:     30 * time.Minute,
			EmailVerificationExpiry: 24 * time.Hour,
			TokenLength:             32,
			LoginRateLimit:          10,
			LoginRatePeriod:         time.Minute,
		},
		Session: config.SessionConfig{
			SecretKey:      "test-secret-key-32-chars-long!!!",
			Issuer:         "quillify-test",
			Expiry:         24 * time.Hour,
			RememberExpiry: 30 * 24 * time.Hour,
		},
		Database: config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    ":memory:",
		},
	}
}

var TestPasswords = struct {
	Valid    string
	Another  string
	TooShort string
}{
	Valid:    "Passw0rd!",
	Another:  "S3cond-choice",
	TooShort: "short",
}
