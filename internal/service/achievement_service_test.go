package service

import (
	"testing"
	"time"

	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newAchievementFixture(t *testing.T) (*attemptFixture, *AchievementService) {
	t.Helper()
	f := newAttemptFixture(t)
	svc := NewAchievementService(
		inmem.NewNotificationRepository(f.db),
		inmem.NewAttemptRepository(f.db),
		f.notifier,
	)
	svc.now = f.clock.Now
	return f, svc
}

// sit runs a full attempt on the free test answering the first `correct`
// questions right and the rest wrong
func (f *attemptFixture) sit(t *testing.T, correct int) {
	t.Helper()
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)
	for i, q := range f.questions {
		opt := 0
		if i < correct {
			opt = 1
		}
		f.answer(t, started.AttemptID, q, opt)
	}
	f.clock.Advance(20 * time.Minute)
	_, err = f.svc.Submit(f.student.ID, started.AttemptID)
	require.NoError(t, err)
}

func TestAchievement_FirstTestAwardedOnce(t *testing.T) {
	f, svc := newAchievementFixture(t)
	first := f.db.AddAchievement(model.Achievement{
		Name:     "First Steps",
		Type:     model.AchievementTestCompletion,
		Criteria: datatypes.JSONMap{"count": float64(1)},
		Points:   10,
		IsActive: true,
	})

	earned, err := svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)

	f.sit(t, 5)
	earned, err = svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, first.ID, earned[0].ID)
	assert.Contains(t, f.notifier.Types(), model.NotificationAchievement)

	earned, err = svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, earned)

	mine, err := svc.ListEarned(f.student.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestAchievement_Criteria(t *testing.T) {
	f, svc := newAchievementFixture(t)
	perfect := f.db.AddAchievement(model.Achievement{
		Name: "Perfectionist", Type: model.AchievementPerfectScore,
		Criteria: datatypes.JSONMap{"score": float64(100)}, IsActive: true,
	})
	f.db.AddAchievement(model.Achievement{
		Name: "Marathon", Type: model.AchievementTestCompletion,
		Criteria: datatypes.JSONMap{"count": float64(5)}, IsActive: true,
	})
	f.db.AddAchievement(model.Achievement{
		Name: "Retired", Type: model.AchievementTestCompletion,
		Criteria: datatypes.JSONMap{"count": float64(1)}, IsActive: false,
	})

	f.sit(t, 10)
	earned, err := svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, perfect.ID, earned[0].ID)
}

func TestAchievement_SubjectMasterNeedsMinimumAnswers(t *testing.T) {
	f, svc := newAchievementFixture(t)
	f.db.AddAchievement(model.Achievement{
		Name: "Physics Master", Type: model.AchievementSubjectMaster,
		Criteria: datatypes.JSONMap{"accuracy": float64(80), "min_answers": float64(15)},
		IsActive: true,
	})

	f.sit(t, 9)
	earned, err := svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	assert.Empty(t, earned, "only 10 answers so far")

	f.sit(t, 9)
	earned, err = svc.Evaluate(f.student.ID)
	require.NoError(t, err)
	assert.Len(t, earned, 1)
}

func TestAchievement_Streak(t *testing.T) {
	f, svc := newAchievementFixture(t)
	f.db.AddAchievement(model.Achievement{
		Name: "Three Day Streak", Type: model.AchievementStreak,
		Criteria: datatypes.JSONMap{"days": float64(3)}, IsActive: true,
	})

	for day := 0; day < 3; day++ {
		f.sit(t, 6)
		earned, err := svc.Evaluate(f.student.ID)
		require.NoError(t, err)
		if day < 2 {
			assert.Empty(t, earned)
		} else {
			assert.Len(t, earned, 1)
		}
		f.clock.Advance(24 * time.Hour)
	}
}

func TestLongestStreak(t *testing.T) {
	day := func(d int) model.MockTestAttempt {
		at := baseTime.AddDate(0, 0, d)
		return model.MockTestAttempt{StartedAt: at, CompletedAt: &at, Status: model.AttemptCompleted}
	}

	tests := []struct {
		name     string
		attempts []model.MockTestAttempt
		want     int
	}{
		{"none", nil, 0},
		{"same day twice", []model.MockTestAttempt{day(0), day(0)}, 1},
		{"gap resets", []model.MockTestAttempt{day(0), day(1), day(3), day(4), day(5)}, 3},
		{"unordered", []model.MockTestAttempt{day(2), day(0), day(1)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, longestStreak(tt.attempts))
		})
	}
}
