package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository handles database operations for users and their satellites
// (student profiles, devices, login attempts)
type UserRepository interface {
	CreateWithProfile(user *model.User, profile *model.StudentProfile) error
	FindByID(id uuid.UUID) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	VerifyEmail(userID uuid.UUID, at time.Time) error
	UpdatePassword(userID uuid.UUID, hashedPassword string) error
	UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error
	TouchLastLogin(userID uuid.UUID, at time.Time) error
	RecordLoginAttempt(attempt *model.LoginAttempt) error
	ListActiveStudentIDs() ([]uuid.UUID, error)

	GetStudentProfile(userID uuid.UUID) (*model.StudentProfile, error)
	SaveStudentProfile(profile *model.StudentProfile) error
	UpdateStudentStats(userID uuid.UUID, testsTaken int, averageAccuracy float64, studyMinutes int) error

	AddDevice(userID uuid.UUID, token string, deviceType string) error
	GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error)
	RemoveDevice(token string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateWithProfile inserts a user and its student profile in one transaction
func (r *userRepository) CreateWithProfile(user *model.User, profile *model.StudentProfile) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if profile == nil {
			return nil
		}
		profile.UserID = user.ID
		return tx.Create(profile).Error
	})
}

// FindByID finds a user by UUID
func (r *userRepository) FindByID(id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyEmail marks user's email as verified
func (r *userRepository) VerifyEmail(userID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("email_verified_at", at).Error
}

// UpdatePassword updates a user's password
func (r *userRepository) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("password", hashedPassword).Error
}

func (r *userRepository) UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}

func (r *userRepository) TouchLastLogin(userID uuid.UUID, at time.Time) error {
	return r.db.Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

func (r *userRepository) RecordLoginAttempt(attempt *model.LoginAttempt) error {
	return r.db.Create(attempt).Error
}

// ListActiveStudentIDs returns every active student with a verified email
func (r *userRepository) ListActiveStudentIDs() ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.Model(&model.User{}).
		Where("role = ? AND is_active = ? AND email_verified_at IS NOT NULL", model.RoleStudent, true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *userRepository) GetStudentProfile(userID uuid.UUID) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.Preload("College").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *userRepository) SaveStudentProfile(profile *model.StudentProfile) error {
	return r.db.Omit(clause.Associations).Save(profile).Error
}

// UpdateStudentStats overwrites the denormalised study counters
func (r *userRepository) UpdateStudentStats(userID uuid.UUID, testsTaken int, averageAccuracy float64, studyMinutes int) error {
	return r.db.Model(&model.StudentProfile{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_mock_tests_taken":   testsTaken,
			"average_accuracy":         averageAccuracy,
			"total_study_time_minutes": studyMinutes,
		}).Error
}

// AddDevice adds or updates a device token
func (r *userRepository) AddDevice(userID uuid.UUID, token string, deviceType string) error {
	device := model.UserDevice{
		UserID:       userID,
		FCMToken:     token,
		DeviceType:   deviceType,
		LastActiveAt: time.Now(),
	}
	// Upsert: on conflict do update
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "fcm_token"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_active_at": time.Now(),
			"device_type":    deviceType,
		}),
	}).Create(&device).Error
}

// GetUserDevices gets all devices for a user
func (r *userRepository) GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error) {
	var devices []model.UserDevice
	err := r.db.Where("user_id = ?", userID).Find(&devices).Error
	return devices, err
}

// RemoveDevice drops a token FCM reported as unregistered
func (r *userRepository) RemoveDevice(token string) error {
	return r.db.Where("fcm_token = ?", token).Delete(&model.UserDevice{}).Error
}
