package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
)

// OTPRepository handles database operations for OTP codes
type OTPRepository interface {
	Create(otp *model.OTPCode) error
	FindValidOTP(userID uuid.UUID, code string, purpose model.OTPPurpose, now time.Time) (*model.OTPCode, error)
	MarkAsUsed(otpID uuid.UUID, at time.Time) error
	InvalidateAllForUser(userID uuid.UUID, purpose model.OTPPurpose, at time.Time) error
	CountRecentOTPs(userID uuid.UUID, purpose model.OTPPurpose, since time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

// Create inserts a new OTP code
func (r *otpRepository) Create(otp *model.OTPCode) error {
	return r.db.Create(otp).Error
}

// FindValidOTP finds an unused, non-expired OTP code for a user and purpose
func (r *otpRepository) FindValidOTP(userID uuid.UUID, code string, purpose model.OTPPurpose, now time.Time) (*model.OTPCode, error) {
	var otp model.OTPCode
	err := r.db.
		Where("user_id = ? AND code = ? AND purpose = ? AND expires_at > ? AND used_at IS NULL",
			userID, code, purpose, now).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

// MarkAsUsed consumes an OTP code. Only one caller can win: the update is
// conditional on used_at still being NULL.
func (r *otpRepository) MarkAsUsed(otpID uuid.UUID, at time.Time) error {
	res := r.db.Model(&model.OTPCode{}).
		Where("id = ? AND used_at IS NULL", otpID).
		Update("used_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotUpdated
	}
	return nil
}

// InvalidateAllForUser invalidates all pending OTPs for a user and purpose
func (r *otpRepository) InvalidateAllForUser(userID uuid.UUID, purpose model.OTPPurpose, at time.Time) error {
	return r.db.Model(&model.OTPCode{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?",
			userID, purpose, at).
		Update("used_at", at).Error
}

// CountRecentOTPs counts how many OTPs were sent to a user recently (rate limiting)
func (r *otpRepository) CountRecentOTPs(userID uuid.UUID, purpose model.OTPPurpose, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.OTPCode{}).
		Where("user_id = ? AND purpose = ? AND created_at > ?", userID, purpose, since).
		Count(&count).Error
	return count, err
}
