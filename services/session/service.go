package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/quillify-app/quillify/config"
	"github.com/quillify-app/quillify/services/logging"
	"github.com/quillify-app/quillify/services/user"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken     = errors.New("invalid session token")
	ErrExpiredToken     = errors.New("session token has expired")
	ErrMalformedToken   = errors.New("malformed session token")
	ErrInvalidSignature = errors.New("invalid session token signature")
)

// Claims is the payload of an issued session token. EmailVerified is a cached
// copy of the store's flag at issuance time; RefreshVerification may flip it
// to true per request but the token itself is never re-issued.
type Claims struct {
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	RememberMe    bool   `json:"remember_me"`
	JTI           string `json:"jti"`
	jwt.RegisteredClaims
}

type Service struct {
	cfg    *config.Config
	users  *user.Service
	logger *logging.Service
}

func NewService(cfg *config.Config, users *user.Service, logger *logging.Service) *Service {
	return &Service{
		cfg:    cfg,
		users:  users,
		logger: logger,
	}
}

// Issue signs a session token for a verified credential check. Expiry is
// fixed here and never extended: 30 days with remember-me, one day without.
func (s *Service) Issue(p *user.Profile, rememberMe bool) (string, time.Time, error) {
	now := time.Now()
	expiry := s.cfg.Session.Expiry
	if rememberMe {
		expiry = s.cfg.Session.RememberExpiry
	}
	expiresAt := now.Add(expiry)

	jti := uuid.New().String()
	claims := Claims{
		UserID:        p.ID,
		Email:         p.Email,
		EmailVerified: p.EmailVerifiedAt != nil,
		RememberMe:    rememberMe,
		JTI:           jti,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.cfg.Session.Issuer,
			Subject:   p.ID,
			Audience:  []string{s.cfg.Session.Issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Session.SecretKey))
	if err != nil {
		s.logger.Error("failed to sign session token", zap.Error(err))
		return "", time.Time{}, err
	}

	s.logger.Info("session issued",
		zap.String("user_id", p.ID),
		zap.Bool("remember_me", rememberMe),
		zap.Time("expires_at", expiresAt))
	return signed, expiresAt, nil
}

func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}
		if token.Method.Alg() != "HS256" {
			return nil, errors.New("unexpected algorithm: expected HS256")
		}
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid algorithm family")
		}
		return []byte(s.cfg.Session.SecretKey), nil
	})

	if err != nil {
		s.logger.Warn("session token validation failed", zap.Error(err))

		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// RefreshVerification re-reads the store's verification timestamp and flips a
// stale false to true for the current request. The flip is one-way: a token
// issued with email_verified=true keeps it for its whole lifetime.
func (s *Service) RefreshVerification(claims *Claims) {
	if claims == nil || claims.EmailVerified {
		return
	}

	verifiedAt, err := s.users.EmailVerifiedAt(claims.UserID)
	if err != nil {
		s.logger.Warn("failed to refresh verification flag", zap.Error(err), zap.String("user_id", claims.UserID))
		return
	}
	if verifiedAt != nil {
		claims.EmailVerified = true
	}
}
