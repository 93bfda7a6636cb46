package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAnalyticsRepo records the arguments of the rollups it serves
type stubAnalyticsRepo struct {
	repository.AnalyticsRepository

	since       *time.Time
	limit       int
	entries     []model.LeaderboardEntry
	subject     *model.SubjectAnalytics
	progressArg time.Time
}

func (r *stubAnalyticsRepo) Leaderboard(since *time.Time, limit int) ([]model.LeaderboardEntry, error) {
	r.since, r.limit = since, limit
	return r.entries, nil
}

func (r *stubAnalyticsRepo) SubjectAnalytics(uuid.UUID, uuid.UUID) (*model.SubjectAnalytics, error) {
	return r.subject, nil
}

func (r *stubAnalyticsRepo) StudentOverview(uuid.UUID) (model.StudentOverview, error) {
	return model.StudentOverview{TotalTests: 2}, nil
}

func (r *stubAnalyticsRepo) StudentSubjects(uuid.UUID) ([]model.SubjectPerformance, error) {
	return nil, nil
}

func (r *stubAnalyticsRepo) RecentAttempts(uuid.UUID, int) ([]model.RecentAttempt, error) {
	return nil, nil
}

func (r *stubAnalyticsRepo) DailyProgress(_ uuid.UUID, since time.Time) ([]model.DailyProgress, error) {
	r.progressArg = since
	return nil, nil
}

func newAnalytics(repo *stubAnalyticsRepo) *AnalyticsService {
	svc := NewAnalyticsService(repo)
	svc.now = func() time.Time { return baseTime }
	return svc
}

func TestAnalytics_LeaderboardTimeframes(t *testing.T) {
	repo := &stubAnalyticsRepo{entries: []model.LeaderboardEntry{
		{Username: "top", AverageScore: 92},
		{Username: "next", AverageScore: 81},
	}}
	svc := newAnalytics(repo)

	board, err := svc.Leaderboard("week")
	require.NoError(t, err)
	require.NotNil(t, repo.since)
	assert.Equal(t, baseTime.AddDate(0, 0, -7), *repo.since)
	assert.Equal(t, leaderboardSize, repo.limit)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 2, board.Entries[1].Rank)

	_, err = svc.Leaderboard("month")
	require.NoError(t, err)
	assert.Equal(t, baseTime.AddDate(0, -1, 0), *repo.since)

	board, err = svc.Leaderboard("decade")
	require.NoError(t, err)
	assert.Nil(t, repo.since)
	assert.Equal(t, "all", board.Timeframe)
}

func TestAnalytics_SubjectWithoutAnswers(t *testing.T) {
	repo := &stubAnalyticsRepo{}
	svc := newAnalytics(repo)

	_, err := svc.Subject(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNoData)

	repo.subject = &model.SubjectAnalytics{SubjectName: "Physics"}
	_, err = svc.Subject(uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrNoData)

	repo.subject = &model.SubjectAnalytics{SubjectName: "Physics", Attempted: 4, Correct: 3, Accuracy: 75}
	got, err := svc.Subject(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, got.Topics)
}

func TestAnalytics_StudentUsesEmptyLists(t *testing.T) {
	repo := &stubAnalyticsRepo{}
	got, err := newAnalytics(repo).Student(uuid.New())
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Overview.TotalTests)
	assert.NotNil(t, got.SubjectPerformance)
	assert.NotNil(t, got.RecentAttempts)
	assert.NotNil(t, got.DailyProgress)
	assert.Equal(t, baseTime.AddDate(0, 0, -progressWindowDays), repo.progressArg)
}
