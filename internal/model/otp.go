package model

import (
	"time"

	"github.com/google/uuid"
)

// OTPPurpose defines what the OTP code is used for
type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
)

// OTPCode is a six-digit single-use code emailed to a user
type OTPCode struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	Code      string     `json:"-" gorm:"size:6;not null"`
	Purpose   OTPPurpose `json:"purpose" gorm:"size:30;not null;default:'email_verification'"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	UsedAt    *time.Time `json:"used_at"` // NULL = not yet used
	CreatedAt time.Time  `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// IsExpired reports whether the code is past its expiry at the given instant
func (o *OTPCode) IsExpired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

func (o *OTPCode) IsUsed() bool {
	return o.UsedAt != nil
}

// IsValid checks if the code can still be consumed
func (o *OTPCode) IsValid(now time.Time) bool {
	return !o.IsExpired(now) && !o.IsUsed()
}
