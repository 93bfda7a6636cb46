package inmem

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"gorm.io/gorm"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateWithProfile(user *model.User, profile *model.StudentProfile) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.Email == user.Email || u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&user.ID)
	now := repo.db.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	u := *user
	repo.db.users[user.ID] = &u

	if profile != nil {
		ensureID(&profile.ID)
		profile.UserID = user.ID
		profile.CreatedAt, profile.UpdatedAt = now, now
		p := *profile
		repo.db.profiles[user.ID] = &p
	}
	return nil
}

func (repo *userRepository) FindByID(id uuid.UUID) (*model.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if u, ok := repo.db.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (repo *userRepository) FindByEmail(email string) (*model.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, u := range repo.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (repo *userRepository) update(id uuid.UUID, fn func(u *model.User)) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	u, ok := repo.db.users[id]
	if !ok {
		return nil // gorm updates with no matching row are not errors
	}
	fn(u)
	u.UpdatedAt = repo.db.now()
	return nil
}

func (repo *userRepository) VerifyEmail(userID uuid.UUID, at time.Time) error {
	return repo.update(userID, func(u *model.User) { u.EmailVerifiedAt = &at })
}

func (repo *userRepository) UpdatePassword(userID uuid.UUID, hashedPassword string) error {
	return repo.update(userID, func(u *model.User) { u.Password = hashedPassword })
}

func (repo *userRepository) UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error {
	return repo.update(userID, func(u *model.User) {
		for k, v := range updates {
			s, _ := v.(string)
			switch k {
			case "first_name":
				u.FirstName = s
			case "last_name":
				u.LastName = s
			case "phone_number":
				u.PhoneNumber = s
			case "profile_picture":
				u.ProfilePicture = s
			}
		}
	})
}

func (repo *userRepository) TouchLastLogin(userID uuid.UUID, at time.Time) error {
	return repo.update(userID, func(u *model.User) { u.LastLoginAt = &at })
}

func (repo *userRepository) RecordLoginAttempt(attempt *model.LoginAttempt) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&attempt.ID)
	attempt.CreatedAt = repo.db.now()
	repo.db.loginAttempts = append(repo.db.loginAttempts, *attempt)
	return nil
}

// LoginAttempts exposes the audit trail to tests
func (db *DB) LoginAttempts() []model.LoginAttempt {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return append([]model.LoginAttempt(nil), db.loginAttempts...)
}

func (repo *userRepository) ListActiveStudentIDs() ([]uuid.UUID, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var ids []uuid.UUID
	for _, u := range repo.db.users {
		if u.Role == model.RoleStudent && u.IsActive && u.IsEmailVerified() {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

func (repo *userRepository) GetStudentProfile(userID uuid.UUID) (*model.StudentProfile, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (repo *userRepository) SaveStudentProfile(profile *model.StudentProfile) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&profile.ID)
	profile.UpdatedAt = repo.db.now()
	cp := *profile
	cp.College = nil
	repo.db.profiles[profile.UserID] = &cp
	return nil
}

func (repo *userRepository) UpdateStudentStats(userID uuid.UUID, testsTaken int, averageAccuracy float64, studyMinutes int) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p, ok := repo.db.profiles[userID]; ok {
		p.TotalMockTestsTaken = testsTaken
		p.AverageAccuracy = averageAccuracy
		p.TotalStudyTimeMinutes = studyMinutes
	}
	return nil
}

func (repo *userRepository) AddDevice(userID uuid.UUID, token string, deviceType string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := repo.db.now()
	for i := range repo.db.devices {
		d := &repo.db.devices[i]
		if d.UserID == userID && d.FCMToken == token {
			d.DeviceType = deviceType
			d.LastActiveAt = now
			return nil
		}
	}
	repo.db.devices = append(repo.db.devices, model.UserDevice{
		ID:           uuid.New(),
		UserID:       userID,
		FCMToken:     token,
		DeviceType:   deviceType,
		LastActiveAt: now,
		CreatedAt:    now,
	})
	return nil
}

func (repo *userRepository) GetUserDevices(userID uuid.UUID) ([]model.UserDevice, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.UserDevice
	for _, d := range repo.db.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (repo *userRepository) RemoveDevice(token string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	kept := repo.db.devices[:0]
	for _, d := range repo.db.devices {
		if d.FCMToken != token {
			kept = append(kept, d)
		}
	}
	repo.db.devices = kept
	return nil
}

type otpRepository struct {
	db *DB
}

func NewOTPRepository(db *DB) repository.OTPRepository {
	return &otpRepository{db: db}
}

func (repo *otpRepository) Create(otp *model.OTPCode) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&otp.ID)
	otp.CreatedAt = repo.db.now()
	cp := *otp
	repo.db.otps[otp.ID] = &cp
	return nil
}

func (repo *otpRepository) FindValidOTP(userID uuid.UUID, code string, purpose model.OTPPurpose, now time.Time) (*model.OTPCode, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var found *model.OTPCode
	for _, o := range repo.db.otps {
		if o.UserID != userID || o.Code != code || o.Purpose != purpose || !o.IsValid(now) {
			continue
		}
		if found == nil || o.CreatedAt.After(found.CreatedAt) {
			found = o
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *found
	return &cp, nil
}

func (repo *otpRepository) MarkAsUsed(otpID uuid.UUID, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	o, ok := repo.db.otps[otpID]
	if !ok || o.UsedAt != nil {
		return repository.ErrNotUpdated
	}
	o.UsedAt = &at
	return nil
}

func (repo *otpRepository) InvalidateAllForUser(userID uuid.UUID, purpose model.OTPPurpose, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, o := range repo.db.otps {
		if o.UserID == userID && o.Purpose == purpose && o.IsValid(at) {
			used := at
			o.UsedAt = &used
		}
	}
	return nil
}

func (repo *otpRepository) CountRecentOTPs(userID uuid.UUID, purpose model.OTPPurpose, since time.Time) (int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var n int64
	for _, o := range repo.db.otps {
		if o.UserID == userID && o.Purpose == purpose && o.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

// OTPs returns every stored code for a user, for assertions
func (db *DB) OTPs(userID uuid.UUID) []model.OTPCode {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var out []model.OTPCode
	for _, o := range db.otps {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out
}
