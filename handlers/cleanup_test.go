package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/quillify-app/quillify/services/token"
	"github.com/quillify-app/quillify/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cleanupSecret = "cleanup-shared-secret"

func cleanupRequest(app *testApp, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, "/internal/cleanup", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	return rec, app.e.NewContext(req, rec)
}

func TestCleanupHandler_Run(t *testing.T) {
	app := newTestApp(t)
	app.cfg.Cleanup.Secret = cleanupSecret
	handler := NewCleanupHandler(app.cfg, app.tokens)

	profile, err := app.users.Register("demo@x.com", testutils.TestPasswords.Valid, "Demo")
	require.NoError(t, err)

	// one expired token of each kind, plus one live reset token for another user
	reset, err := app.tokens.IssuePasswordReset(profile.ID)
	require.NoError(t, err)
	verification, err := app.tokens.IssueEmailVerification(profile.ID)
	require.NoError(t, err)

	expired := time.Now().Add(-time.Minute)
	require.NoError(t, app.db.Model(&token.PasswordResetToken{}).
		Where("token = ?", reset.Token).Update("expires_at", expired).Error)
	require.NoError(t, app.db.Model(&token.EmailVerificationToken{}).
		Where("token = ?", verification.Token).Update("expires_at", expired).Error)

	other, err := app.users.Register("other@x.com", testutils.TestPasswords.Valid, "Other")
	require.NoError(t, err)
	live, err := app.tokens.IssuePasswordReset(other.ID)
	require.NoError(t, err)

	rec, c := cleanupRequest(app, "Bearer "+cleanupSecret)
	require.NoError(t, handler.Run(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["password_reset_deleted"])
	assert.Equal(t, float64(1), body["email_verification_deleted"])

	// the live token survives
	_, err = app.tokens.ValidatePasswordReset(live.Token)
	assert.NoError(t, err)
}

func TestCleanupHandler_Run_RejectsBadSecret(t *testing.T) {
	app := newTestApp(t)
	app.cfg.Cleanup.Secret = cleanupSecret
	handler := NewCleanupHandler(app.cfg, app.tokens)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + cleanupSecret},
		{"wrong secret", "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := cleanupRequest(app, tt.header)
			err := handler.Run(c)

			require.Error(t, err)
			httpErr, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}

func TestCleanupHandler_Run_UnavailableWhenUnconfigured(t *testing.T) {
	app := newTestApp(t)
	handler := NewCleanupHandler(app.cfg, app.tokens)

	_, c := cleanupRequest(app, "Bearer anything")
	err := handler.Run(c)

	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}
