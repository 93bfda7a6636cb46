package model

import (
	"time"

	"github.com/google/uuid"
)

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email,max=255"`
	FirstName       string `json:"first_name" binding:"required,max=100"`
	LastName        string `json:"last_name" binding:"required,max=100"`
	PhoneNumber     string `json:"phone_number" binding:"omitempty,max=15"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== OTP DTOs ==========

type VerifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required,otp"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type OTPSentResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	OTPCode         string `json:"otp_code" binding:"required,otp"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type UpdateProfileRequest struct {
	FirstName      string `json:"first_name" binding:"max=100"`
	LastName       string `json:"last_name" binding:"max=100"`
	PhoneNumber    string `json:"phone_number" binding:"max=15"`
	ProfilePicture string `json:"profile_picture" binding:"max=500"`
}

type StudentProfileRequest struct {
	CollegeID      *uuid.UUID `json:"college_id"`
	EnrollmentYear *int       `json:"enrollment_year" binding:"omitempty,min=1990,max=2100"`
}

type RegisterDeviceRequest struct {
	FCMToken   string `json:"fcm_token" binding:"required"`
	DeviceType string `json:"device_type" binding:"required,oneof=android ios web"`
}

// ========== Pagination ==========

type PageQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps page and page size into their allowed ranges
func (p PageQuery) Normalize() PageQuery {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p PageQuery) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

type PageResponse[T any] struct {
	Results  []T   `json:"results"`
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// NewPage wraps a result slice with its pagination metadata
func NewPage[T any](results []T, count int64, q PageQuery) PageResponse[T] {
	n := q.Normalize()
	if results == nil {
		results = []T{}
	}
	return PageResponse[T]{Results: results, Count: count, Page: n.Page, PageSize: n.PageSize}
}

// ========== Upload ==========

type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ========== Website ==========

type ContactRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required"`
}

// ========== WebSocket Event DTOs ==========

type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types
const (
	WSEventNotification = "notification"
	WSEventAnnouncement = "announcement"
	WSEventMarkRead     = "mark_read"
	WSEventUnreadCount  = "unread_count"
)

// NotificationEvent is pushed to connected clients when a notification is created
type NotificationEvent struct {
	ID        uuid.UUID        `json:"id"`
	Type      NotificationType `json:"notification_type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Priority  Priority         `json:"priority"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type MarkReadEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
