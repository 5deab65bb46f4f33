package token

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quillify-app/quillify/apperr"
	"github.com/quillify-app/quillify/services/hash"
	"github.com/quillify-app/quillify/services/user"
	"github.com/quillify-app/quillify/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	hasher  *hash.Service
	users   *user.Service
	tokens  *Service
	mail    *testutils.MailRecorder
	profile *user.Profile
}

func newFixture(t *testing.T) *fixture {
	db := testutils.SetupTestDB(t, &user.User{}, &PasswordResetToken{}, &EmailVerificationToken{})
	cfg := testutils.GetTestConfig()
	hasher := hash.NewService(bcrypt.MinCost)

	users := user.NewService(cfg, db, hasher, nil)
	tokens := NewService(cfg, db, hasher, nil)
	mail := &testutils.MailRecorder{}
	tokens.SetMailSender(mail)

	profile, err := users.Register("demo@x.com", testutils.TestPasswords.Valid, "Demo")
	require.NoError(t, err)

	return &fixture{
		db:      db,
		hasher:  hasher,
		users:   users,
		tokens:  tokens,
		mail:    mail,
		profile: profile,
	}
}

func (f *fixture) expireResetToken(t *testing.T, raw string) {
	require.NoError(t, f.db.Model(&PasswordResetToken{}).
		Where("token = ?", raw).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
}

func (f *fixture) expireVerificationToken(t *testing.T, raw string) {
	require.NoError(t, f.db.Model(&EmailVerificationToken{}).
		Where("token = ?", raw).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
}

func TestService_IssuePasswordReset(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	assert.Len(t, issued.Token, 64)
	assert.True(t, issued.ExpiresAt.After(time.Now()))

	sent := f.mail.Last()
	require.NotNil(t, sent)
	assert.Equal(t, "password_reset", sent.Template)
	assert.Equal(t, []string{"demo@x.com"}, sent.To)
	assert.Equal(t, "password-reset", sent.Category)
	assert.Contains(t, sent.Data["ResetURL"], issued.Token)
}

func TestService_IssuePasswordReset_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.tokens.IssuePasswordReset(uuid.New().String())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_Issue_SupersedesPreviousToken(t *testing.T) {
	f := newFixture(t)

	first, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	second, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	var count int64
	require.NoError(t, f.db.Model(&PasswordResetToken{}).
		Where("user_id = ?", f.profile.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = f.tokens.ValidatePasswordReset(first.Token)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.tokens.ValidatePasswordReset(second.Token)
	assert.NoError(t, err)
}

func TestService_Issue_MailFailureKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.mail.FailNext = true

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMailDelivery)
	require.NotNil(t, issued)

	// the token survives the delivery failure
	owner, err := f.tokens.ValidatePasswordReset(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, f.profile.ID, owner.ID)
}

func TestService_ValidatePasswordReset(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	t.Run("valid and idempotent", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			owner, err := f.tokens.ValidatePasswordReset(issued.Token)
			require.NoError(t, err)
			assert.Equal(t, f.profile.ID, owner.ID)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := f.tokens.ValidatePasswordReset("does-not-exist")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("expired is distinct and carries the email", func(t *testing.T) {
		f.expireResetToken(t, issued.Token)

		_, err := f.tokens.ValidatePasswordReset(issued.Token)
		require.Error(t, err)

		var expired *ExpiredError
		require.ErrorAs(t, err, &expired)
		assert.Equal(t, "demo@x.com", expired.Email)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})
}

func TestService_ConsumePasswordReset(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokens.ConsumePasswordReset(issued.Token, testutils.TestPasswords.Another))

	// old password no longer verifies, new one does
	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Valid)
	assert.Error(t, err)
	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Another)
	assert.NoError(t, err)

	// the row is gone
	var count int64
	require.NoError(t, f.db.Model(&PasswordResetToken{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// a second consume is an invalid token, not a crash
	err = f.tokens.ConsumePasswordReset(issued.Token, testutils.TestPasswords.Valid)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestService_ConsumePasswordReset_Expired(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)
	f.expireResetToken(t, issued.Token)

	err = f.tokens.ConsumePasswordReset(issued.Token, testutils.TestPasswords.Another)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	// no partial effect
	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Valid)
	assert.NoError(t, err)
}

func TestService_ConsumePasswordReset_Concurrent(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.tokens.ConsumePasswordReset(issued.Token, testutils.TestPasswords.Another)
		}()
	}
	wg.Wait()

	var winners int
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		}
	}
	assert.Equal(t, 1, winners)

	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Another)
	assert.NoError(t, err)
}

func TestService_ConsumeEmailVerification(t *testing.T) {
	f := newFixture(t)

	issued, err := f.tokens.IssueEmailVerification(f.profile.ID)
	require.NoError(t, err)

	sent := f.mail.Last()
	require.NotNil(t, sent)
	assert.Equal(t, "email_verification", sent.Template)
	assert.Equal(t, "email-verification", sent.Category)

	require.NoError(t, f.tokens.ConsumeEmailVerification(issued.Token))

	stored, err := f.users.GetByID(f.profile.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EmailVerifiedAt)
	verifiedAt := *stored.EmailVerifiedAt

	// second consume of the deleted token is NotFound
	err = f.tokens.ConsumeEmailVerification(issued.Token)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	// the timestamp never moves once set
	next, err := f.tokens.IssueEmailVerification(f.profile.ID)
	require.NoError(t, err)
	require.NoError(t, f.tokens.ConsumeEmailVerification(next.Token))

	stored, err = f.users.GetByID(f.profile.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EmailVerifiedAt)
	assert.Equal(t, verifiedAt.Unix(), stored.EmailVerifiedAt.Unix())
}

func TestService_CleanupExpired(t *testing.T) {
	f := newFixture(t)

	reset, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)
	verification, err := f.tokens.IssueEmailVerification(f.profile.ID)
	require.NoError(t, err)

	f.expireResetToken(t, reset.Token)

	resetDeleted, verificationDeleted, err := f.tokens.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), resetDeleted)
	assert.Equal(t, int64(0), verificationDeleted)

	// the live verification token survives
	_, err = f.tokens.ValidateEmailVerification(verification.Token)
	assert.NoError(t, err)
}

func TestService_UserDeletionCascadesToTokens(t *testing.T) {
	f := newFixture(t)

	_, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)
	_, err = f.tokens.IssueEmailVerification(f.profile.ID)
	require.NoError(t, err)

	require.NoError(t, f.users.Delete(f.profile.ID))

	var resets, verifications int64
	require.NoError(t, f.db.Model(&PasswordResetToken{}).Count(&resets).Error)
	require.NoError(t, f.db.Model(&EmailVerificationToken{}).Count(&verifications).Error)
	assert.Equal(t, int64(0), resets)
	assert.Equal(t, int64(0), verifications)
}

func TestService_EndToEndPasswordReset(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Valid)
	require.NoError(t, err)

	issued, err := f.tokens.IssuePasswordReset(f.profile.ID)
	require.NoError(t, err)

	require.NoError(t, f.tokens.ConsumePasswordReset(issued.Token, testutils.TestPasswords.Another))

	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Valid)
	require.Error(t, err)
	_, err = f.users.VerifyCredentials("demo@x.com", testutils.TestPasswords.Another)
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&PasswordResetToken{}).Where("token = ?", issued.Token).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
