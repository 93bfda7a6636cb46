package service

import (
	"context"
	"testing"
	"time"

	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	db        *inmem.DB
	users     repository.UserRepository
	clock     *fixedClock
	mailer    *fakeMailer
	blacklist *auth.MemoryBlacklist
	svc       *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := inmem.NewDB()
	clock := newClock(baseTime)
	db.SetClock(clock.Now)

	f := &authFixture{
		db:        db,
		users:     inmem.NewUserRepository(db),
		clock:     clock,
		mailer:    &fakeMailer{},
		blacklist: auth.NewMemoryBlacklist(),
	}
	f.svc = NewAuthService(
		f.users,
		inmem.NewOTPRepository(db),
		auth.NewJWTManager("test-secret", time.Hour),
		f.mailer,
		f.blacklist,
		newFakeStorage(),
		OTPPolicy{},
	)
	f.svc.now = clock.Now
	return f
}

func registerRequest(email string) model.RegisterRequest {
	return model.RegisterRequest{
		Email:           email,
		FirstName:       "Hari",
		LastName:        "Karki",
		Password:        "supersecret",
		ConfirmPassword: "supersecret",
	}
}

// latestCode returns the newest unused code issued for email
func (f *authFixture) latestCode(t *testing.T, email string) string {
	t.Helper()
	user, err := f.users.FindByEmail(email)
	require.NoError(t, err)
	var latest *model.OTPCode
	for _, o := range f.db.OTPs(user.ID) {
		o := o
		if o.UsedAt == nil && (latest == nil || o.CreatedAt.After(latest.CreatedAt)) {
			latest = &o
		}
	}
	require.NotNil(t, latest, "no unused otp for %s", email)
	return latest.Code
}

func TestRegister_CreatesUnverifiedUserWithOneOTP(t *testing.T) {
	f := newAuthFixture(t)

	resp, err := f.svc.Register(registerRequest("Hari@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "hari@example.com", resp.Email)
	assert.Equal(t, 600, resp.ExpiresIn)

	user, err := f.users.FindByEmail("hari@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified())
	assert.Equal(t, model.RoleStudent, user.Role)

	_, err = f.users.GetStudentProfile(user.ID)
	assert.NoError(t, err)

	otps := f.db.OTPs(user.ID)
	require.Len(t, otps, 1)
	assert.Len(t, otps[0].Code, 6)
	assert.True(t, otps[0].IsValid(f.clock.Now()))
}

func TestRegister_Rejections(t *testing.T) {
	f := newAuthFixture(t)

	req := registerRequest("a@example.com")
	req.ConfirmPassword = "different"
	_, err := f.svc.Register(req)
	assert.ErrorIs(t, err, ErrPasswordMismatch)

	_, err = f.svc.Register(registerRequest("b@example.com"))
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "b@example.com", OTPCode: f.latestCode(t, "b@example.com")})
	require.NoError(t, err)

	_, err = f.svc.Register(registerRequest("b@example.com"))
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_UnverifiedEmailGetsFreshOTP(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Register(registerRequest("c@example.com"))
	require.NoError(t, err)
	first := f.latestCode(t, "c@example.com")

	f.clock.Advance(time.Minute)
	_, err = f.svc.Register(registerRequest("c@example.com"))
	require.NoError(t, err)

	user, err := f.users.FindByEmail("c@example.com")
	require.NoError(t, err)
	valid := 0
	for _, o := range f.db.OTPs(user.ID) {
		if o.IsValid(f.clock.Now()) {
			valid++
		}
	}
	assert.Equal(t, 1, valid, "older codes are invalidated")

	for _, o := range f.db.OTPs(user.ID) {
		if o.Code == first && o.CreatedAt.Equal(baseTime) {
			assert.NotNil(t, o.UsedAt, "first code is consumed by the reissue")
		}
	}
}

func TestVerifyOTP_SingleUse(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("d@example.com"))
	require.NoError(t, err)
	code := f.latestCode(t, "d@example.com")

	resp, err := f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "d@example.com", OTPCode: code})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.True(t, resp.User.EmailVerified)

	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "d@example.com", OTPCode: code})
	assert.ErrorIs(t, err, ErrInvalidOTP)
}

func TestVerifyOTP_Expired(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("e@example.com"))
	require.NoError(t, err)
	code := f.latestCode(t, "e@example.com")

	f.clock.Advance(11 * time.Minute)
	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "e@example.com", OTPCode: code})
	assert.ErrorIs(t, err, ErrInvalidOTP)

	user, err := f.users.FindByEmail("e@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsEmailVerified())
}

func TestResendOTP_RateLimited(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("f@example.com"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		f.clock.Advance(time.Minute)
		_, err = f.svc.ResendOTP(model.ResendOTPRequest{Email: "f@example.com"})
		require.NoError(t, err)
	}
	f.clock.Advance(time.Minute)
	_, err = f.svc.ResendOTP(model.ResendOTPRequest{Email: "f@example.com"})
	assert.ErrorIs(t, err, ErrOTPRateLimited)

	f.clock.Advance(time.Hour)
	_, err = f.svc.ResendOTP(model.ResendOTPRequest{Email: "f@example.com"})
	assert.NoError(t, err)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("g@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Login(model.LoginRequest{Email: "g@example.com", Password: "supersecret"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = f.svc.Login(model.LoginRequest{Email: "g@example.com", Password: "wrong"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(model.LoginRequest{Email: "nobody@example.com", Password: "x"}, "10.0.0.1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "g@example.com", OTPCode: f.latestCode(t, "g@example.com")})
	require.NoError(t, err)

	resp, err := f.svc.Login(model.LoginRequest{Email: "G@example.com", Password: "supersecret"}, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User.LastLoginAt)

	attempts := f.db.LoginAttempts()
	require.Len(t, attempts, 4)
	assert.False(t, attempts[0].Success)
	assert.True(t, attempts[3].Success)
	assert.Equal(t, "10.0.0.1", attempts[3].IPAddress)
}

func TestLogout_RevokesToken(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("h@example.com"))
	require.NoError(t, err)
	resp, err := f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "h@example.com", OTPCode: f.latestCode(t, "h@example.com")})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(context.Background(), resp.Token))

	revoked, err := f.blacklist.IsRevoked(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("i@example.com"))
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "i@example.com", OTPCode: f.latestCode(t, "i@example.com")})
	require.NoError(t, err)

	resp, err := f.svc.ForgotPassword(model.ForgotPasswordRequest{Email: "missing@example.com"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "If the email exists")

	_, err = f.svc.ForgotPassword(model.ForgotPasswordRequest{Email: "i@example.com"})
	require.NoError(t, err)

	err = f.svc.ResetPassword(model.ResetPasswordRequest{
		Email:           "i@example.com",
		OTPCode:         f.latestCode(t, "i@example.com"),
		NewPassword:     "newpassword",
		ConfirmPassword: "newpassword",
	})
	require.NoError(t, err)

	_, err = f.svc.Login(model.LoginRequest{Email: "i@example.com", Password: "newpassword"}, "")
	assert.NoError(t, err)
}

func TestForgotPassword_SameResponseForKnownAndUnknownEmails(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("j@example.com"))
	require.NoError(t, err)
	_, err = f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "j@example.com", OTPCode: f.latestCode(t, "j@example.com")})
	require.NoError(t, err)

	// more requests than the hourly limit allows
	for i := 1; i <= 4; i++ {
		f.clock.Advance(time.Minute)
		known, knownErr := f.svc.ForgotPassword(model.ForgotPasswordRequest{Email: "J@Example.com"})
		missing, missingErr := f.svc.ForgotPassword(model.ForgotPasswordRequest{Email: "Nobody@Example.com"})

		require.NoError(t, knownErr, "call %d", i)
		require.NoError(t, missingErr, "call %d", i)
		assert.Equal(t, known.Message, missing.Message, "call %d", i)
		assert.Equal(t, known.ExpiresIn, missing.ExpiresIn, "call %d", i)
		assert.Equal(t, "J@Example.com", known.Email)
		assert.Equal(t, "Nobody@Example.com", missing.Email)
	}
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Register(registerRequest("j@example.com"))
	require.NoError(t, err)
	resp, err := f.svc.VerifyOTP(model.VerifyOTPRequest{Email: "j@example.com", OTPCode: f.latestCode(t, "j@example.com")})
	require.NoError(t, err)

	err = f.svc.ChangePassword(resp.User.ID, model.ChangePasswordRequest{OldPassword: "nope", NewPassword: "abcdefgh", ConfirmPassword: "abcdefgh"})
	assert.ErrorIs(t, err, ErrOldPasswordIncorrect)

	err = f.svc.ChangePassword(resp.User.ID, model.ChangePasswordRequest{OldPassword: "supersecret", NewPassword: "abcdefgh", ConfirmPassword: "abcdefgx"})
	assert.ErrorIs(t, err, ErrNewPasswordMismatch)

	err = f.svc.ChangePassword(resp.User.ID, model.ChangePasswordRequest{OldPassword: "supersecret", NewPassword: "abcdefgh", ConfirmPassword: "abcdefgh"})
	assert.NoError(t, err)
}
