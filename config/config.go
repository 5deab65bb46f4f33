package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Session  SessionConfig  `envPrefix:"SESSION_"`
	Mail     MailConfig     `envPrefix:"MAIL_"`
	Cleanup  CleanupConfig  `envPrefix:"CLEANUP_"`
}

type AppConfig struct {
	Name string `env:"NAME" envDefault:"Quillify"`
	URL  string `env:"URL" envDefault:"http://localhost:8080"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"localhost"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
	Output string `env:"OUTPUT" envDefault:"stdout"`
}

type DatabaseConfig struct {
	Driver      string `env:"DRIVER" envDefault:"sqlite"`
	DSN         string `env:"DSN" envDefault:"quillify.db"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
}

type AuthConfig struct {
	MinLength               int           `env:"MIN_LENGTH" envDefault:"8"`
	BcryptCost              int           `env:"BCRYPT_COST" envDefault:"12"`
	PasswordResetExpiry     time.Duration `env:"PASSWORD_RESET_EXPIRY" envDefault:"30m"`
	EmailVerificationExpiry time.Duration `env:"EMAIL_VERIFICATION_EXPIRY" envDefault:"24h"`
	TokenLength             int           `env:"TOKEN_LENGTH" envDefault:"32"`
	LoginRateLimit          int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LoginRatePeriod         time.Duration `env:"LOGIN_RATE_PERIOD" envDefault:"1m"`
}

type SessionConfig struct {
	SecretKey      string        `env:"SECRET_KEY"`
	Issuer         string        `env:"ISSUER" envDefault:"quillify"`
	Expiry         time.Duration `env:"EXPIRY" envDefault:"24h"`
	RememberExpiry time.Duration `env:"REMEMBER_EXPIRY" envDefault:"720h"`
	CookieSecure   bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

type MailConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         int    `env:"PORT" envDefault:"587"`
	Username     string `env:"USERNAME"`
	Password     string `env:"PASSWORD"`
	Encryption   string `env:"ENCRYPTION" envDefault:"starttls"`
	FromAddress  string `env:"FROM_ADDRESS"`
	FromName     string `env:"FROM_NAME" envDefault:"Quillify"`
	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"templates/mail"`
}

type CleanupConfig struct {
	Secret string `env:"SECRET"`
}

func LoadConfig(cfg *Config) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return Validate(cfg)
}

func Validate(cfg *Config) error {
	if len(cfg.Session.SecretKey) < 32 {
		return fmt.Errorf("SESSION_SECRET_KEY must be at least 32 characters")
	}
	return nil
}
