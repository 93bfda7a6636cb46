package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestScoreAttempt(t *testing.T) {
	q1, q2, q3, q4 := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	marks := map[uuid.UUID]int{q1: 1, q2: 2, q3: 1, q4: 1}
	opt := uuid.New()

	tests := []struct {
		name    string
		answers []QuestionAttempt
		want    AttemptScore
	}{
		{
			name: "no answers",
			want: AttemptScore{Total: 4},
		},
		{
			name: "mixed",
			answers: []QuestionAttempt{
				{QuestionID: q1, SelectedOptionID: &opt, IsCorrect: true},
				{QuestionID: q2, SelectedOptionID: &opt, IsCorrect: true},
				{QuestionID: q3, SelectedOptionID: &opt},
				{QuestionID: q4},
			},
			want: AttemptScore{Correct: 2, Answered: 3, Total: 4, Score: 50, Accuracy: 200.0 / 3, TotalMarks: 3},
		},
		{
			name: "answers outside the test are ignored",
			answers: []QuestionAttempt{
				{QuestionID: uuid.New(), SelectedOptionID: &opt, IsCorrect: true},
				{QuestionID: q1, SelectedOptionID: &opt, IsCorrect: true},
			},
			want: AttemptScore{Correct: 1, Answered: 1, Total: 4, Score: 25, Accuracy: 100, TotalMarks: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAttempt(tt.answers, marks)
			assert.Equal(t, tt.want.Correct, got.Correct)
			assert.Equal(t, tt.want.Answered, got.Answered)
			assert.Equal(t, tt.want.Total, got.Total)
			assert.InDelta(t, tt.want.Score, got.Score, 0.001)
			assert.InDelta(t, tt.want.Accuracy, got.Accuracy, 0.001)
			assert.Equal(t, tt.want.TotalMarks, got.TotalMarks)
		})
	}
}

func TestScoreAttempt_EmptyTest(t *testing.T) {
	got := ScoreAttempt(nil, map[uuid.UUID]int{})
	assert.Zero(t, got.Score)
	assert.Zero(t, got.Accuracy)
}

func TestTransactionTransitions(t *testing.T) {
	assert.True(t, TransactionPending.CanTransitionTo(TransactionCompleted))
	assert.True(t, TransactionPending.CanTransitionTo(TransactionFailed))
	assert.True(t, TransactionCompleted.CanTransitionTo(TransactionRefunded))
	assert.False(t, TransactionPending.CanTransitionTo(TransactionRefunded))
	assert.False(t, TransactionFailed.CanTransitionTo(TransactionCompleted))
	assert.False(t, TransactionRefunded.CanTransitionTo(TransactionCompleted))
}

func TestRefundTransitions(t *testing.T) {
	assert.True(t, RefundPending.CanTransitionTo(RefundApproved))
	assert.True(t, RefundPending.CanTransitionTo(RefundRejected))
	assert.True(t, RefundApproved.CanTransitionTo(RefundProcessed))
	assert.False(t, RefundPending.CanTransitionTo(RefundProcessed))
	assert.False(t, RefundRejected.CanTransitionTo(RefundApproved))
}

func TestSubscriptionActiveWindow(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	sub := &UserSubscription{Status: SubscriptionActive, StartDate: start, EndDate: start.AddDate(0, 0, 30)}

	assert.False(t, sub.IsActiveAt(start.Add(-time.Second)))
	assert.True(t, sub.IsActiveAt(start))
	assert.True(t, sub.IsActiveAt(sub.EndDate))
	assert.False(t, sub.IsActiveAt(sub.EndDate.Add(time.Second)))
	assert.True(t, sub.IsLapsed(sub.EndDate.Add(time.Second)))

	sub.Status = SubscriptionCancelled
	assert.False(t, sub.IsActiveAt(start.Add(time.Hour)))
	assert.False(t, sub.IsLapsed(sub.EndDate.Add(time.Hour)))
}

func TestPlanDurationDays(t *testing.T) {
	assert.Equal(t, 30, DurationMonthly.Days())
	assert.Equal(t, 90, DurationQuarterly.Days())
	assert.Equal(t, 365, DurationYearly.Days())
}

func TestOTPValidity(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	otp := &OTPCode{ExpiresAt: now.Add(10 * time.Minute)}
	assert.True(t, otp.IsValid(now))
	assert.False(t, otp.IsValid(now.Add(11*time.Minute)))

	used := now
	otp.UsedAt = &used
	assert.False(t, otp.IsValid(now))
}

func TestAchievementCriteriaFromJSON(t *testing.T) {
	var criteria datatypes.JSONMap
	require.NoError(t, json.Unmarshal([]byte(`{"count": 5, "accuracy": 92.5}`), &criteria))
	a := &Achievement{Criteria: criteria}

	n, ok := a.CriteriaInt("count")
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	acc, ok := a.CriteriaFloat("accuracy")
	assert.True(t, ok)
	assert.InDelta(t, 92.5, acc, 0.0001)

	_, ok = a.CriteriaInt("days")
	assert.False(t, ok)
}

func TestPreferenceRouting(t *testing.T) {
	p := DefaultPreferences(uuid.New())
	assert.True(t, p.AllowsEmail(NotificationTestResult))
	assert.False(t, p.AllowsEmail(NotificationReminder))
	assert.True(t, p.AllowsPush(NotificationReminder))

	p.PushPaymentUpdates = false
	assert.False(t, p.AllowsPush(NotificationPaymentFailed))
	assert.False(t, p.AllowsPush(NotificationSubscriptionExpiry))
}

func TestPageQueryNormalize(t *testing.T) {
	assert.Equal(t, PageQuery{Page: 1, PageSize: 20}, PageQuery{}.Normalize())
	assert.Equal(t, PageQuery{Page: 3, PageSize: 100}, PageQuery{Page: 3, PageSize: 500}.Normalize())
	assert.Equal(t, 40, PageQuery{Page: 3}.Offset())

	page := NewPage[int](nil, 0, PageQuery{})
	assert.NotNil(t, page.Results)
}

func TestUserHelpers(t *testing.T) {
	assert.Equal(t, "ram.k", UsernameFromEmail("Ram.K@Example.com"))

	u := &User{Username: "ramk"}
	assert.Equal(t, "ramk", u.FullName())
	u.FirstName, u.LastName = "Ram", "Karki"
	assert.Equal(t, "Ram Karki", u.FullName())
	assert.False(t, u.IsEmailVerified())
}

func TestCollegeAndResourceUniversities(t *testing.T) {
	college := College{Name: "Pulchowk Campus", Code: "IOE-PUL", University: UniversityTU}
	raw, err := json.Marshal(college)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"university":"TU"`)

	board := University{Name: "Tribhuvan University", Level: LevelBachelors}
	raw, err = json.Marshal(board)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"level":"bachelors"`)
}
