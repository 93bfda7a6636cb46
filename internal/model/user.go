package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role defines what a user is allowed to do
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// User represents a registered account (student or admin)
type User struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Username        string     `json:"username" gorm:"uniqueIndex;not null;size:150"`
	FirstName       string     `json:"first_name" gorm:"size:100;not null"`
	LastName        string     `json:"last_name" gorm:"size:100;not null"`
	Password        string     `json:"-" gorm:"size:255;not null"`
	Role            Role       `json:"role" gorm:"size:20;not null;default:'student'"`
	PhoneNumber     string     `json:"phone_number" gorm:"size:15;default:''"`
	ProfilePicture  string     `json:"profile_picture" gorm:"size:500;default:''"`
	EmailVerifiedAt *time.Time `json:"email_verified_at" gorm:"type:timestamptz"` // NULL = not verified
	IsActive        bool       `json:"is_active" gorm:"not null"`
	LastLoginAt     *time.Time `json:"last_login_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// IsEmailVerified checks if the user's email has been verified
func (u *User) IsEmailVerified() bool {
	return u.EmailVerifiedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName joins first and last name, falling back to the username
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// UsernameFromEmail derives the default username from the local part of an email
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	return local
}

// UserResponse is the safe version of User for API responses
type UserResponse struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	FullName       string     `json:"full_name"`
	Role           Role       `json:"role"`
	PhoneNumber    string     `json:"phone_number"`
	ProfilePicture string     `json:"profile_picture"`
	EmailVerified  bool       `json:"email_verified"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ToResponse converts User to safe UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		Role:           u.Role,
		PhoneNumber:    u.PhoneNumber,
		ProfilePicture: u.ProfilePicture,
		EmailVerified:  u.IsEmailVerified(),
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

// StudentProfile holds per-student study statistics
type StudentProfile struct {
	ID                    uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID                uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;uniqueIndex"`
	CollegeID             *uuid.UUID `json:"college_id" gorm:"type:uuid"`
	EnrollmentYear        *int       `json:"enrollment_year"`
	TotalMockTestsTaken   int        `json:"total_mock_tests_taken" gorm:"not null;default:0"`
	AverageAccuracy       float64    `json:"average_accuracy" gorm:"not null;default:0"`
	TotalStudyTimeMinutes int        `json:"total_study_time_minutes" gorm:"not null;default:0"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`

	College *College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

// LoginAttempt is an audit row for every password login
type LoginAttempt struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email     string    `json:"email" gorm:"size:255;not null;index"`
	IPAddress string    `json:"ip_address" gorm:"size:64"`
	Success   bool      `json:"success" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDevice represents a user's device for push notifications
type UserDevice struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_user_token"`
	FCMToken     string    `json:"fcm_token" gorm:"not null;uniqueIndex:idx_user_token"`
	DeviceType   string    `json:"device_type" gorm:"size:20;default:'unknown'"` // android, ios, web
	LastActiveAt time.Time `json:"last_active_at"`
	CreatedAt    time.Time `json:"created_at"`
}
