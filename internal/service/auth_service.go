package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/pkg/auth"
	"github.com/hamroengineering/hamro/pkg/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const otpLength = 6

// Mailer is the outgoing email surface services depend on
type Mailer interface {
	SendOTP(toEmail, name, code string, expiryMinutes int) error
	SendPasswordReset(toEmail, name, code string, expiryMinutes int) error
	SendWelcome(toEmail, name string) error
	SendNotification(toEmail, name, title, message string) error
}

// OTPPolicy controls code lifetime and issue rate
type OTPPolicy struct {
	ExpiryMinutes int
	RateLimit     int // max codes per hour per purpose
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo   repository.UserRepository
	otpRepo    repository.OTPRepository
	jwtManager *auth.JWTManager
	mailer     Mailer
	blacklist  auth.Blacklist
	storage    storage.Storage
	otp        OTPPolicy
	now        func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	otpRepo repository.OTPRepository,
	jwtManager *auth.JWTManager,
	mailer Mailer,
	blacklist auth.Blacklist,
	store storage.Storage,
	otp OTPPolicy,
) *AuthService {
	if otp.ExpiryMinutes <= 0 {
		otp.ExpiryMinutes = 10
	}
	if otp.RateLimit <= 0 {
		otp.RateLimit = 3
	}
	return &AuthService{
		userRepo:   userRepo,
		otpRepo:    otpRepo,
		jwtManager: jwtManager,
		mailer:     mailer,
		blacklist:  blacklist,
		storage:    store,
		otp:        otp,
		now:        time.Now,
	}
}

// ==================== Register (Email + OTP) ====================

// Register creates a new unverified student account and sends OTP
func (s *AuthService) Register(req model.RegisterRequest) (*model.OTPSentResponse, error) {
	if req.Password != req.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	email := normalizeEmail(req.Email)

	existingUser, err := s.userRepo.FindByEmail(email)
	if err == nil {
		if existingUser.IsEmailVerified() {
			return nil, ErrEmailTaken
		}
		// registered but never verified
		return s.sendOTP(existingUser, model.OTPPurposeEmailVerification)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "find user")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	user := &model.User{
		Email:       email,
		Username:    model.UsernameFromEmail(email),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		PhoneNumber: req.PhoneNumber,
		Password:    string(hashedPassword),
		Role:        model.RoleStudent,
		IsActive:    true,
	}

	err = s.userRepo.CreateWithProfile(user, &model.StudentProfile{})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// the username derived from the email is taken by another domain
		suffix, _ := generateOTPCode(4)
		user.Username = user.Username + suffix
		err = s.userRepo.CreateWithProfile(user, &model.StudentProfile{})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "create user")
	}

	log.Info().Str("user_id", user.ID.String()).Msg("👤 User registered")
	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// VerifyOTP consumes a verification code and activates the account
func (s *AuthService) VerifyOTP(req model.VerifyOTPRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, errors.Wrap(err, "find user")
	}

	if err := s.consumeOTP(user.ID, req.OTPCode, model.OTPPurposeEmailVerification); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.userRepo.VerifyEmail(user.ID, now); err != nil {
		return nil, errors.Wrap(err, "verify email")
	}
	user.EmailVerifiedAt = &now

	go func() {
		if err := s.mailer.SendWelcome(user.Email, user.FullName()); err != nil {
			log.Error().Err(err).Str("user_id", user.ID.String()).Msg("❌ Failed to send welcome email")
		}
	}()

	return s.issueToken(user)
}

// ResendOTP generates and sends a new verification code
func (s *AuthService) ResendOTP(req model.ResendOTPRequest) (*model.OTPSentResponse, error) {
	user, err := s.userRepo.FindByEmail(normalizeEmail(req.Email))
	if err != nil {
		return nil, lookupErr(err, "User")
	}

	if user.IsEmailVerified() {
		return nil, ErrEmailAlreadyVerified
	}

	return s.sendOTP(user, model.OTPPurposeEmailVerification)
}

// ==================== Login ====================

// Login authenticates a user and returns a JWT token. Every call is audited.
func (s *AuthService) Login(req model.LoginRequest, ipAddress string) (*model.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordLogin(email, ipAddress, false)
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "find user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		s.recordLogin(email, ipAddress, false)
		return nil, ErrInvalidCredentials
	}

	if !user.IsEmailVerified() {
		s.recordLogin(email, ipAddress, false)
		return nil, ErrEmailNotVerified
	}
	if !user.IsActive {
		s.recordLogin(email, ipAddress, false)
		return nil, ErrAccountDisabled
	}

	s.recordLogin(email, ipAddress, true)
	now := s.now()
	if err := s.userRepo.TouchLastLogin(user.ID, now); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to stamp last login")
	}
	user.LastLoginAt = &now

	return s.issueToken(user)
}

func (s *AuthService) recordLogin(email, ip string, success bool) {
	err := s.userRepo.RecordLoginAttempt(&model.LoginAttempt{Email: email, IPAddress: ip, Success: success})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record login attempt")
	}
}

// Logout blacklists the token until it would have expired
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.jwtManager.ValidateToken(tokenString)
	if err != nil {
		return err
	}
	return s.blacklist.Revoke(ctx, tokenString, claims.TTL(s.now()))
}

// ==================== Forgot/Reset/Change Password ====================

// ForgotPassword sends a password reset OTP. The response is identical for
// known and unknown emails, including when the reset rate limit is hit.
func (s *AuthService) ForgotPassword(req model.ForgotPasswordRequest) (*model.OTPSentResponse, error) {
	resp := &model.OTPSentResponse{
		Message:   "If the email exists, a reset code has been sent",
		Email:     req.Email,
		ExpiresIn: s.otp.ExpiryMinutes * 60,
	}

	user, err := s.userRepo.FindByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, errors.Wrap(err, "find user")
	}

	if _, err := s.sendOTP(user, model.OTPPurposePasswordReset); err != nil {
		if errors.Is(err, ErrOTPRateLimited) {
			log.Warn().Str("user_id", user.ID.String()).Msg("⚠️ Password reset rate limited")
			return resp, nil
		}
		return nil, err
	}
	return resp, nil
}

// ResetPassword consumes a reset OTP and sets a new password
func (s *AuthService) ResetPassword(req model.ResetPasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.userRepo.FindByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return errors.Wrap(err, "find user")
	}

	if err := s.consumeOTP(user.ID, req.OTPCode, model.OTPPurposePasswordReset); err != nil {
		return err
	}

	return s.setPassword(user.ID, req.NewPassword)
}

// ChangePassword replaces the password of a signed-in user
func (s *AuthService) ChangePassword(userID uuid.UUID, req model.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrNewPasswordMismatch
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return lookupErr(err, "User")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordIncorrect
	}

	return s.setPassword(user.ID, req.NewPassword)
}

func (s *AuthService) setPassword(userID uuid.UUID, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.userRepo.UpdatePassword(userID, string(hashedPassword))
}

// ==================== Profile ====================

// GetProfile returns the current user's profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, lookupErr(err, "User")
	}
	resp := user.ToResponse()
	return &resp, nil
}

// UpdateProfile updates the non-empty fields of the user's profile
func (s *AuthService) UpdateProfile(userID uuid.UUID, req model.UpdateProfileRequest) (*model.UserResponse, error) {
	updates := map[string]interface{}{}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		updates["first_name"] = v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		updates["last_name"] = v
	}
	if req.PhoneNumber != "" {
		updates["phone_number"] = req.PhoneNumber
	}
	if req.ProfilePicture != "" {
		updates["profile_picture"] = req.ProfilePicture
	}

	if len(updates) > 0 {
		if err := s.userRepo.UpdateProfile(userID, updates); err != nil {
			return nil, errors.Wrap(err, "update profile")
		}
	}
	return s.GetProfile(userID)
}

// UploadProfilePicture stores an avatar in object storage and links it to the user
func (s *AuthService) UploadProfilePicture(ctx context.Context, userID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*model.UserResponse, error) {
	if !strings.HasPrefix(storage.DetectContentType(filepath.Ext(header.Filename)), "image/") {
		return nil, &ValidationError{Field: "profile_picture", Message: "must be an image"}
	}

	result, err := s.storage.Upload(ctx, file, header, "avatars")
	if err != nil {
		return nil, errors.Wrap(err, "upload profile picture")
	}

	if err := s.userRepo.UpdateProfile(userID, map[string]interface{}{"profile_picture": result.URL}); err != nil {
		return nil, errors.Wrap(err, "update profile")
	}
	return s.GetProfile(userID)
}

// GetStudentProfile returns the caller's study profile
func (s *AuthService) GetStudentProfile(userID uuid.UUID) (*model.StudentProfile, error) {
	profile, err := s.userRepo.GetStudentProfile(userID)
	if err != nil {
		return nil, lookupErr(err, "Student profile")
	}
	return profile, nil
}

// UpdateStudentProfile sets college and enrollment year, creating the profile if missing
func (s *AuthService) UpdateStudentProfile(userID uuid.UUID, req model.StudentProfileRequest) (*model.StudentProfile, error) {
	profile, err := s.userRepo.GetStudentProfile(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(err, "find student profile")
		}
		profile = &model.StudentProfile{UserID: userID}
	}

	if req.CollegeID != nil {
		profile.CollegeID = req.CollegeID
	}
	if req.EnrollmentYear != nil {
		profile.EnrollmentYear = req.EnrollmentYear
	}
	profile.College = nil

	if err := s.userRepo.SaveStudentProfile(profile); err != nil {
		return nil, errors.Wrap(err, "save student profile")
	}
	return s.GetStudentProfile(userID)
}

// RegisterDevice registers a new device for push notifications
func (s *AuthService) RegisterDevice(userID uuid.UUID, req model.RegisterDeviceRequest) error {
	return s.userRepo.AddDevice(userID, req.FCMToken, req.DeviceType)
}

// ==================== Internal Helpers ====================

func (s *AuthService) issueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.FullName(), string(user.Role))
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	return &model.LoginResponse{
		Token: token,
		User:  user.ToResponse(),
	}, nil
}

// consumeOTP marks a matching unused unexpired code as used. The conditional
// update makes a concurrent second consumer fail.
func (s *AuthService) consumeOTP(userID uuid.UUID, code string, purpose model.OTPPurpose) error {
	now := s.now()
	otp, err := s.otpRepo.FindValidOTP(userID, code, purpose, now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidOTP
		}
		return errors.Wrap(err, "find otp")
	}

	if err := s.otpRepo.MarkAsUsed(otp.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return ErrInvalidOTP
		}
		return errors.Wrap(err, "consume otp")
	}
	return nil
}

// sendOTP generates a code, saves it, and emails it
func (s *AuthService) sendOTP(user *model.User, purpose model.OTPPurpose) (*model.OTPSentResponse, error) {
	now := s.now()
	count, err := s.otpRepo.CountRecentOTPs(user.ID, purpose, now.Add(-time.Hour))
	if err != nil {
		return nil, errors.Wrap(err, "count otps")
	}
	if count >= int64(s.otp.RateLimit) {
		return nil, ErrOTPRateLimited
	}

	if err := s.otpRepo.InvalidateAllForUser(user.ID, purpose, now); err != nil {
		return nil, errors.Wrap(err, "invalidate otps")
	}

	code, err := generateOTPCode(otpLength)
	if err != nil {
		return nil, errors.Wrap(err, "generate otp")
	}

	otp := &model.OTPCode{
		UserID:    user.ID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(time.Duration(s.otp.ExpiryMinutes) * time.Minute),
	}
	if err := s.otpRepo.Create(otp); err != nil {
		return nil, errors.Wrap(err, "save otp")
	}

	// delivery failures never roll back the code
	go func() {
		var emailErr error
		switch purpose {
		case model.OTPPurposeEmailVerification:
			emailErr = s.mailer.SendOTP(user.Email, user.FullName(), code, s.otp.ExpiryMinutes)
		case model.OTPPurposePasswordReset:
			emailErr = s.mailer.SendPasswordReset(user.Email, user.FullName(), code, s.otp.ExpiryMinutes)
		}
		if emailErr != nil {
			log.Error().Err(emailErr).Str("user_id", user.ID.String()).Msg("❌ Failed to send OTP email")
		}
	}()

	message := "Verification code sent to your email"
	if purpose == model.OTPPurposePasswordReset {
		message = "If the email exists, a reset code has been sent"
	}
	return &model.OTPSentResponse{
		Message:   message,
		Email:     user.Email,
		ExpiresIn: s.otp.ExpiryMinutes * 60,
	}, nil
}

// generateOTPCode generates a cryptographically secure random numeric code
func generateOTPCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String(), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
