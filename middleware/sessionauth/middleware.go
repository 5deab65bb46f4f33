package sessionauth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/services/session"
)

const (
	UserIDKey = "_session_user_id"
	ClaimsKey = "_session_claims"
)

// RequireSession validates the bearer session token and stores its claims in
// the request context. A stale email_verified=false claim is refreshed from
// the store on the way through; the token itself is untouched.
func RequireSession(sessions *session.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header required")
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Session token required")
			}

			claims, err := sessions.Validate(tokenString)
			if err != nil {
				switch err {
				case session.ErrExpiredToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Session has expired")
				case session.ErrMalformedToken:
					return echo.NewHTTPError(http.StatusUnauthorized, "Malformed session token")
				case session.ErrInvalidSignature:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session token signature")
				default:
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid session token")
				}
			}

			sessions.RefreshVerification(claims)

			c.Set(UserIDKey, claims.UserID)
			c.Set(ClaimsKey, claims)

			return next(c)
		}
	}
}

func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

func GetClaims(c echo.Context) *session.Claims {
	if claims, ok := c.Get(ClaimsKey).(*session.Claims); ok {
		return claims
	}
	return nil
}
