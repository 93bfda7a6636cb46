package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
)

const (
	leaderboardSize    = 20
	recentAttemptLimit = 5
	progressWindowDays = 30
)

// AnalyticsService assembles dashboard rollups on demand
type AnalyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	now           func() time.Time
}

func NewAnalyticsService(analyticsRepo repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo, now: time.Now}
}

func (s *AnalyticsService) Student(userID uuid.UUID) (*model.StudentAnalytics, error) {
	overview, err := s.analyticsRepo.StudentOverview(userID)
	if err != nil {
		return nil, errors.Wrap(err, "student overview")
	}
	subjects, err := s.analyticsRepo.StudentSubjects(userID)
	if err != nil {
		return nil, errors.Wrap(err, "student subjects")
	}
	recent, err := s.analyticsRepo.RecentAttempts(userID, recentAttemptLimit)
	if err != nil {
		return nil, errors.Wrap(err, "recent attempts")
	}
	since := s.now().UTC().AddDate(0, 0, -progressWindowDays)
	progress, err := s.analyticsRepo.DailyProgress(userID, since)
	if err != nil {
		return nil, errors.Wrap(err, "daily progress")
	}

	return &model.StudentAnalytics{
		Overview:           overview,
		SubjectPerformance: nonNil(subjects),
		RecentAttempts:     nonNil(recent),
		DailyProgress:      nonNil(progress),
	}, nil
}

func (s *AnalyticsService) Admin() (*model.AdminAnalytics, error) {
	now := s.now()
	users, err := s.analyticsRepo.UserStats(now)
	if err != nil {
		return nil, errors.Wrap(err, "user stats")
	}
	tests, err := s.analyticsRepo.TestStats()
	if err != nil {
		return nil, errors.Wrap(err, "test stats")
	}
	revenue, err := s.analyticsRepo.RevenueStats(now)
	if err != nil {
		return nil, errors.Wrap(err, "revenue stats")
	}
	subjects, err := s.analyticsRepo.SubjectStats()
	if err != nil {
		return nil, errors.Wrap(err, "subject stats")
	}
	return &model.AdminAnalytics{
		Users:    users,
		Tests:    tests,
		Revenue:  revenue,
		Subjects: nonNil(subjects),
	}, nil
}

// Leaderboard ranks students by average score then test count. Unknown
// timeframes fall back to all time.
func (s *AnalyticsService) Leaderboard(timeframe string) (*model.Leaderboard, error) {
	var since *time.Time
	now := s.now()
	switch timeframe {
	case "week":
		t := now.AddDate(0, 0, -7)
		since = &t
	case "month":
		t := now.AddDate(0, -1, 0)
		since = &t
	default:
		timeframe = "all"
	}

	entries, err := s.analyticsRepo.Leaderboard(since, leaderboardSize)
	if err != nil {
		return nil, errors.Wrap(err, "leaderboard")
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return &model.Leaderboard{Timeframe: timeframe, Entries: nonNil(entries)}, nil
}

func (s *AnalyticsService) Subject(userID, subjectID uuid.UUID) (*model.SubjectAnalytics, error) {
	out, err := s.analyticsRepo.SubjectAnalytics(userID, subjectID)
	if err != nil {
		return nil, errors.Wrap(err, "subject analytics")
	}
	if out == nil || out.Attempted == 0 {
		return nil, ErrNoData
	}
	out.Topics = nonNil(out.Topics)
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
