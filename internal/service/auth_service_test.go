package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundifyapp/soundify-service/internal/auth"
	apperrors "github.com/soundifyapp/soundify-service/pkg/util"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeTxBeginner, *fakeUserRepo, *fakeSaltRepo) {
	t.Helper()
	db := &fakeTxBeginner{}
	users := newFakeUserRepo()
	salts := newFakeSaltRepo()
	svc := NewAuthService(AuthDependencies{
		DB:          db,
		UserRepo:    users,
		Credentials: NewCredentialService(salts, auth.NewPasswordHasher(10000)),
		Tokens:      auth.NewTokenManager("test-signing-secret", "soundify", "soundify-clients", time.Hour),
	})
	return svc, db, users, salts
}

func registerUser(t *testing.T, svc *AuthService, email, username, password string) string {
	t.Helper()
	user, err := svc.Register(context.Background(), email, username, password)
	require.NoError(t, err)
	return user.ID
}

func TestRegisterCommitsUserAndSalt(t *testing.T) {
	svc, db, users, salts := newAuthFixture(t)

	user, err := svc.Register(context.Background(), "jane@example.com", "jane", "Secr3t!pass")
	require.NoError(t, err)

	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "default.jpg", user.ProfilePictureFileName)

	_, ok := salts.salts[user.ID]
	assert.True(t, ok, "salt row missing")
	_, ok = users.users[user.ID]
	assert.True(t, ok, "user row missing")
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	cases := []struct {
		name     string
		email    string
		username string
		password string
	}{
		{"missing email", "", "jane", "Secr3t!pass"},
		{"missing username", "jane@example.com", "", "Secr3t!pass"},
		{"missing password", "jane@example.com", "jane", ""},
		{"email without at sign", "jane.example.com", "jane", "Secr3t!pass"},
		{"short password", "jane@example.com", "jane", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.email, tc.username, tc.password)
			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
		})
	}
}

func TestRegisterDuplicateEmailRollsBack(t *testing.T) {
	svc, db, users, _ := newAuthFixture(t)
	users.createErr = &pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"}

	_, err := svc.Register(context.Background(), "jane@example.com", "jane", "Secr3t!pass")
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.False(t, db.tx.committed)
	assert.True(t, db.tx.rolledBack)
}

func TestRegisterSaltFailureRollsBack(t *testing.T) {
	svc, db, users, salts := newAuthFixture(t)
	salts.putErr = assert.AnError

	_, err := svc.Register(context.Background(), "jane@example.com", "jane", "Secr3t!pass")
	require.Error(t, err)
	assert.True(t, db.tx.rolledBack)
	assert.Empty(t, users.users)
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	userID := registerUser(t, svc, "jane@example.com", "jane", "Secr3t!pass")

	user, token, expiresAt, err := svc.Login(context.Background(), "jane@example.com", "Secr3t!pass")
	require.NoError(t, err)
	assert.Equal(t, userID, user.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.AccountID())
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	registerUser(t, svc, "jane@example.com", "jane", "Secr3t!pass")

	_, _, _, unknownEmailErr := svc.Login(context.Background(), "nobody@example.com", "Secr3t!pass")
	_, _, _, wrongPasswordErr := svc.Login(context.Background(), "jane@example.com", "not-the-password")

	require.Error(t, unknownEmailErr)
	require.Error(t, wrongPasswordErr)

	a := apperrors.ToDomainError(unknownEmailErr)
	b := apperrors.ToDomainError(wrongPasswordErr)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, a.Message, b.Message)
	assert.Equal(t, a.HTTPStatus, b.HTTPStatus)
}

func TestLoginMissingSaltBehavesLikeWrongPassword(t *testing.T) {
	svc, _, _, salts := newAuthFixture(t)
	registerUser(t, svc, "jane@example.com", "jane", "Secr3t!pass")
	salts.salts = map[string][]byte{}

	_, _, _, err := svc.Login(context.Background(), "jane@example.com", "Secr3t!pass")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}

func TestLoginThrottled(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)
	registerUser(t, svc, "jane@example.com", "jane", "Secr3t!pass")
	limiter := &fakeLimiter{allowed: false, retryAfter: 30 * time.Second}
	svc.limiter = limiter

	_, _, _, err := svc.Login(context.Background(), "jane@example.com", "Secr3t!pass")
	require.Error(t, err)
	assert.Equal(t, "TOO_MANY_REQUESTS", apperrors.ToDomainError(err).Code)
	assert.Equal(t, []string{"jane@example.com"}, limiter.keys)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Authenticate("not-a-token")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperrors.ToDomainError(err).Code)
}
