package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
)

// AccessTokenCookie carries the JWT for the server-rendered pages
const AccessTokenCookie = "access_token"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *service.AuthService
	cookieMaxAge int
	secureCookie bool
}

func NewAuthHandler(authService *service.AuthService, cookieMaxAge int, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieMaxAge: cookieMaxAge,
		secureCookie: secureCookie,
	}
}

// Register godoc
// @Summary Register a new student (sends OTP for verification)
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.RegisterRequest true "Register request"
// @Success 201 {object} model.OTPSentResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// VerifyOTP godoc
// @Summary Verify email with OTP code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.VerifyOTPRequest true "Verify OTP request"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.VerifyOTP(req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

// ResendOTP godoc
// @Summary Resend OTP verification code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.ResendOTPRequest true "Resend OTP request"
// @Success 200 {object} model.OTPSentResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 429 {object} model.ErrorResponse
// @Router /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req model.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.ResendOTP(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Login godoc
// @Summary Login with email and password
// @Description Returns a JWT and also sets it as the access_token cookie for the website pages
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.LoginRequest true "Login request"
// @Success 200 {object} model.LoginResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.Login(req, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, token, h.cookieMaxAge, "/", "", h.secureCookie, true)
}

// ForgotPassword godoc
// @Summary Request password reset OTP
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.ForgotPasswordRequest true "Forgot password request"
// @Success 200 {object} model.OTPSentResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.authService.ForgotPassword(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword godoc
// @Summary Reset password with OTP code
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body model.ResetPasswordRequest true "Reset password request"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ResetPassword(req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Password reset successfully"})
}

// ChangePassword godoc
// @Summary Change password of the signed-in user
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.ChangePasswordRequest true "Change password request"
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.ChangePassword(currentUserID(c), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Password changed successfully"})
}

// Logout godoc
// @Summary Logout
// @Description Revoke the current token until it expires
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.SuccessResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString := c.GetString("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "Token required"})
		return
	}

	if err := h.authService.Logout(c.Request.Context(), tokenString); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie(AccessTokenCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Logged out successfully"})
}

// GetProfile godoc
// @Summary Get current user profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.UserResponse
// @Router /auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	profile, err := h.authService.GetProfile(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update user profile
// @Description Accepts JSON, or a multipart form with an optional profile_picture image
// @Tags Auth
// @Accept json,mpfd
// @Produce json
// @Security BearerAuth
// @Param first_name formData string false "First name"
// @Param last_name formData string false "Last name"
// @Param phone_number formData string false "Phone number"
// @Param profile_picture formData file false "Profile picture"
// @Success 200 {object} model.UserResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID := currentUserID(c)

	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req model.UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		user, err := h.authService.UpdateProfile(userID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)
	req := model.UpdateProfileRequest{
		FirstName:   c.PostForm("first_name"),
		LastName:    c.PostForm("last_name"),
		PhoneNumber: c.PostForm("phone_number"),
	}
	user, err := h.authService.UpdateProfile(userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("profile_picture")
	if err == nil {
		defer file.Close()
		user, err = h.authService.UploadProfilePicture(c.Request.Context(), userID, file, header)
		if err != nil {
			respondError(c, err)
			return
		}
	} else if err != http.ErrMissingFile {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Failed to read file", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetStudentProfile godoc
// @Summary Get the caller's student profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.StudentProfile
// @Failure 404 {object} model.ErrorResponse
// @Router /auth/student-profile [get]
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	profile, err := h.authService.GetStudentProfile(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateStudentProfile godoc
// @Summary Update college and enrollment year
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.StudentProfileRequest true "Student profile"
// @Success 200 {object} model.StudentProfile
// @Router /auth/student-profile [put]
func (h *AuthHandler) UpdateStudentProfile(c *gin.Context) {
	var req model.StudentProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	profile, err := h.authService.UpdateStudentProfile(currentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// RegisterDevice godoc
// @Summary Register device for push notifications
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.RegisterDeviceRequest true "Register device request"
// @Success 200 {object} model.SuccessResponse
// @Router /auth/devices [post]
func (h *AuthHandler) RegisterDevice(c *gin.Context) {
	var req model.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.authService.RegisterDevice(currentUserID(c), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{Message: "Device registered successfully"})
}
