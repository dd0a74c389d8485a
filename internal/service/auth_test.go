package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/tasklists/internal/events"
	"github.com/Skotchmaster/tasklists/internal/hash"
	"github.com/Skotchmaster/tasklists/internal/models"
	"github.com/Skotchmaster/tasklists/internal/otp"
)

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{name: "missing username", username: "", email: "a@x.com", password: "pw"},
		{name: "blank username", username: "   ", email: "a@x.com", password: "pw"},
		{name: "missing email", username: "ann", email: "", password: "pw"},
		{name: "missing password", username: "ann", email: "a@x.com", password: ""},
		{name: "malformed email", username: "ann", email: "not-an-email", password: "pw"},
		{name: "display name form", username: "ann", email: "Ann <a@x.com>", password: "pw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.auth.Register(context.Background(), tt.username, tt.email, tt.password)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestRegister_CreatesUnverifiedUserAndOTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	user, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)
	assert.False(t, user.IsVerified())
	assert.NotEqual(t, "secret", user.PasswordHash)

	ok, err := hash.VerifyPassword(user.PasswordHash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	mail := e.mail.last(t)
	assert.Equal(t, "a@x.com", mail.To)
	assert.Equal(t, "ann", mail.Username)
	assert.Len(t, mail.Code, otp.CodeLength)

	row, err := e.repo.FindOTPByCode(ctx, mail.Code)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", row.Email)

	assert.Equal(t, []string{events.UserRegistered}, e.pub.types())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)

	_, err = e.auth.Register(ctx, "other", "a@x.com", "secret2")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = e.auth.Register(ctx, "upper", "A@X.COM", "secret")
	assert.NoError(t, err, "email uniqueness is case sensitive")
}

func TestRegister_SideEffectFailuresAreSwallowed(t *testing.T) {
	e := newEnv(t)
	e.mail.err = errBoom
	e.pub.err = errBoom

	_, err := e.auth.Register(context.Background(), "ann", "a@x.com", "secret")
	assert.NoError(t, err)
}

func TestVerifyEmail(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)
	code := e.mail.last(t).Code

	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "a@x.com", ""), ErrInvalidOTP)
	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "b@x.com", code), ErrInvalidOTP)
	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "a@x.com", wrongCode(code)), ErrInvalidOTP)

	require.NoError(t, e.auth.VerifyEmail(ctx, "a@x.com", code))

	u, err := e.repo.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.True(t, u.IsVerified())

	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "a@x.com", code), ErrInvalidOTP, "codes are single use")
}

func TestVerifyEmail_Expired(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)
	code := e.mail.last(t).Code

	e.auth.Now = func() time.Time { return time.Now().Add(5 * time.Minute) }
	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "a@x.com", code), ErrInvalidOTP)

	e.auth.Now = func() time.Time { return time.Now().Add(3 * time.Minute) }
	assert.NoError(t, e.auth.VerifyEmail(ctx, "a@x.com", code))
}

func TestVerifyEmail_UnknownUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.repo.ReplaceOTP(ctx, "ghost@x.com", "54321")
	require.NoError(t, err)

	assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "ghost@x.com", "54321"), ErrNotFound)
}

func TestVerifyEmail_NewCodeSupersedesOld(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)
	first := e.mail.last(t).Code

	require.NoError(t, e.auth.ResendOTP(ctx, "a@x.com"))
	second := e.mail.last(t).Code

	if first != second {
		assert.ErrorIs(t, e.auth.VerifyEmail(ctx, "a@x.com", first), ErrInvalidOTP)
	}
	assert.NoError(t, e.auth.VerifyEmail(ctx, "a@x.com", second))
}

func TestResendOTP(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.auth.ResendOTP(ctx, "nobody@x.com"), ErrNotFound)

	e.verifiedUser(t, "a@x.com")
	assert.ErrorIs(t, e.auth.ResendOTP(ctx, "a@x.com"), ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, "ann", "a@x.com", "secret")
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, "a@x.com", "secret")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = e.auth.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "password is checked before the verified flag")

	require.NoError(t, e.auth.VerifyEmail(ctx, "a@x.com", e.mail.last(t).Code))

	_, err = e.auth.Login(ctx, "nobody@x.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = e.auth.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := e.auth.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.NotEmpty(t, res.Token)

	claims, err := e.auth.Tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), res.ExpiresAt, time.Minute)
}

func TestLogin_NilVerifiedFlag(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	pw, err := hash.HashPassword("secret")
	require.NoError(t, err)
	require.NoError(t, e.repo.CreateUser(ctx, &models.User{Username: "legacy", Email: "l@x.com", PasswordHash: pw}))

	_, err = e.auth.Login(ctx, "l@x.com", "secret")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestLogin_MalformedHash(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	verified := true
	require.NoError(t, e.repo.CreateUser(ctx, &models.User{
		Username: "broken", Email: "b@x.com", PasswordHash: "plaintext", EmailVerified: &verified,
	}))

	_, err := e.auth.Login(ctx, "b@x.com", "plaintext")
	require.Error(t, err)
	assert.ErrorIs(t, err, hash.ErrMalformedHash)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func wrongCode(code string) string {
	if code == "00000" {
		return "11111"
	}
	return "00000"
}
