package repository_test

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB connects to the database named by HAMRO_TEST_DATABASE_URL and
// applies the migrations. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := strings.TrimSpace(os.Getenv("HAMRO_TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("set HAMRO_TEST_DATABASE_URL to run repository integration tests")
	}
	require.NoError(t, migrations.Run(url))

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	now := time.Now()
	user := &model.User{
		Email:           "itest_" + suffix + "@example.test",
		Username:        "itest_" + suffix,
		FirstName:       "Integration",
		LastName:        "Student",
		Password:        "$2a$10$unused",
		Role:            model.RoleStudent,
		IsActive:        true,
		EmailVerifiedAt: &now,
	}
	require.NoError(t, repository.NewUserRepository(db).CreateWithProfile(user, &model.StudentProfile{}))
	return user
}

func createMockTest(t *testing.T, db *gorm.DB) *model.MockTest {
	t.Helper()
	test := &model.MockTest{Name: "ITEST " + uuid.NewString()[:8], IsFree: true, IsActive: true}
	require.NoError(t, repository.NewMockTestRepository(db).Create(test))
	return test
}

func TestOTPRepository_MarkAsUsedOnce(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewOTPRepository(db)
	user := createUser(t, db)

	now := time.Now()
	otp := &model.OTPCode{
		UserID:    user.ID,
		Code:      "123456",
		Purpose:   model.OTPPurposeEmailVerification,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(otp))

	found, err := repo.FindValidOTP(user.ID, "123456", model.OTPPurposeEmailVerification, now)
	require.NoError(t, err)
	assert.Equal(t, otp.ID, found.ID)

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		lost int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.MarkAsUsed(otp.ID, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case assert.ErrorIs(t, err, repository.ErrNotUpdated):
				lost++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, lost)

	_, err = repo.FindValidOTP(user.ID, "123456", model.OTPPurposeEmailVerification, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAttemptRepository_StartReturnsExistingInProgress(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewAttemptRepository(db)
	user := createUser(t, db)
	test := createMockTest(t, db)

	const callers = 6
	ids := make(chan uuid.UUID, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attempt := &model.MockTestAttempt{UserID: user.ID, MockTestID: test.ID, StartedAt: time.Now()}
			existing, err := repo.Start(attempt)
			if !assert.NoError(t, err) {
				return
			}
			if existing != nil {
				ids <- existing.ID
				return
			}
			ids <- attempt.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uuid.UUID]bool{}
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, 1, "every caller sees the same attempt")

	var rows int64
	require.NoError(t, db.Model(&model.MockTestAttempt{}).
		Where("user_id = ? AND mock_test_id = ? AND status = ?", user.ID, test.ID, model.AttemptInProgress).
		Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestAttemptRepository_CompleteOnce(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewAttemptRepository(db)
	user := createUser(t, db)
	test := createMockTest(t, db)

	attempt := &model.MockTestAttempt{UserID: user.ID, MockTestID: test.ID, StartedAt: time.Now()}
	existing, err := repo.Start(attempt)
	require.NoError(t, err)
	require.Nil(t, existing)

	result := repository.AttemptResult{Score: 80, TotalMarks: 8, Accuracy: 80, TimeTakenMinutes: 12, CompletedAt: time.Now()}
	require.NoError(t, repo.Complete(attempt.ID, result))
	assert.ErrorIs(t, repo.Complete(attempt.ID, result), repository.ErrNotUpdated)
	assert.ErrorIs(t, repo.Abandon(attempt.ID, time.Now()), repository.ErrNotUpdated)

	stored, err := repo.FindByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.InDelta(t, 80.0, *stored.Score, 0.001)

	// a finished attempt frees the slot for a new one
	next := &model.MockTestAttempt{UserID: user.ID, MockTestID: test.ID, StartedAt: time.Now()}
	existing, err = repo.Start(next)
	require.NoError(t, err)
	assert.Nil(t, existing)
	require.NoError(t, repo.Abandon(next.ID, time.Now()))
	assert.ErrorIs(t, repo.Complete(next.ID, result), repository.ErrNotUpdated)
}

func TestSubscriptionRepository_ActivateSerialises(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewSubscriptionRepository(db)
	user := createUser(t, db)

	plan := &model.SubscriptionPlan{
		Name:     "ITEST " + uuid.NewString()[:8],
		PlanType: model.PlanPremium,
		Duration: model.DurationMonthly,
		Price:    999,
		Features: datatypes.JSONSlice[string]{"Unlimited mock tests"},
		IsActive: true,
	}
	require.NoError(t, db.Create(plan).Error)

	now := time.Now()
	const callers = 5
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := &model.UserSubscription{UserID: user.ID, PlanID: plan.ID, StartDate: now, EndDate: now.AddDate(0, 0, 30)}
			txn := &model.PaymentTransaction{
				UserID:         user.ID,
				Amount:         plan.Price,
				Currency:       "NPR",
				PaymentMethod:  model.MethodKhalti,
				TransactionID:  "ITEST-" + uuid.NewString(),
				Status:         model.TransactionCompleted,
				PaymentDetails: datatypes.JSONMap{"simulated": true},
			}
			err := repo.Activate(sub, txn, now)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, repository.ErrActiveSubscriptionExists):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, rejected)

	var subs, txns int64
	require.NoError(t, db.Model(&model.UserSubscription{}).Where("user_id = ?", user.ID).Count(&subs).Error)
	require.NoError(t, db.Model(&model.PaymentTransaction{}).Where("user_id = ?", user.ID).Count(&txns).Error)
	assert.Equal(t, int64(1), subs)
	assert.Equal(t, int64(1), txns, "rejected activations leave no transaction behind")
}

func TestNotificationRepository_PublishAnnouncement(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNotificationRepository(db)
	student := createUser(t, db)

	a := &model.Announcement{Title: "ITEST", Content: "Results are out", Type: model.AnnouncementGeneral, Priority: model.PriorityMedium}
	require.NoError(t, repo.CreateAnnouncement(a))

	batch := func(userIDs ...uuid.UUID) []model.Notification {
		ns := make([]model.Notification, 0, len(userIDs))
		for _, id := range userIDs {
			ns = append(ns, model.Notification{
				UserID:   id,
				Type:     model.NotificationAnnouncement,
				Title:    a.Title,
				Message:  a.Content,
				Priority: a.Priority,
				Data:     datatypes.JSONMap{"announcement_id": a.ID.String()},
			})
		}
		return ns
	}

	// a recipient that violates the user foreign key fails the insert
	err := repo.PublishAnnouncement(a, batch(student.ID, uuid.New()), time.Now())
	require.Error(t, err)

	stored, err := repo.FindAnnouncement(a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublished, "a failed fan-out rolls back the publish")
	count, err := repo.CountUnread(student.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.PublishAnnouncement(a, batch(student.ID), time.Now()))
	stored, err = repo.FindAnnouncement(a.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPublished)
	require.NotNil(t, stored.PublishedAt)
	count, err = repo.CountUnread(student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, repo.PublishAnnouncement(a, batch(student.ID), time.Now()), repository.ErrNotUpdated)
}
