package model

import (
	"time"

	"github.com/google/uuid"
)

type StudentOverview struct {
	TotalTests        int64   `json:"total_tests"`
	AverageScore      float64 `json:"average_score"`
	AverageAccuracy   float64 `json:"average_accuracy"`
	TotalStudyTime    int64   `json:"total_study_time_minutes"`
	QuestionsAnswered int64   `json:"questions_answered"`
}

type SubjectPerformance struct {
	SubjectID   uuid.UUID `json:"subject_id"`
	SubjectName string    `json:"subject_name"`
	Attempted   int64     `json:"attempted"`
	Correct     int64     `json:"correct"`
	Accuracy    float64   `json:"accuracy"`
}

type RecentAttempt struct {
	AttemptID    uuid.UUID     `json:"attempt_id"`
	MockTestID   uuid.UUID     `json:"mock_test_id"`
	MockTestName string        `json:"mock_test_name"`
	Status       AttemptStatus `json:"status"`
	Score        *float64      `json:"score"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  *time.Time    `json:"completed_at"`
}

type DailyProgress struct {
	Date         string  `json:"date"`
	TestsTaken   int64   `json:"tests_taken"`
	AverageScore float64 `json:"average_score"`
}

type StudentAnalytics struct {
	Overview           StudentOverview      `json:"overview"`
	SubjectPerformance []SubjectPerformance `json:"subject_performance"`
	RecentAttempts     []RecentAttempt      `json:"recent_attempts"`
	DailyProgress      []DailyProgress      `json:"daily_progress"`
}

type UserStats struct {
	TotalUsers    int64 `json:"total_users"`
	TotalStudents int64 `json:"total_students"`
	VerifiedUsers int64 `json:"verified_users"`
	ActiveUsers   int64 `json:"active_users_30d"`
	NewUsers      int64 `json:"new_users_7d"`
}

type TestStats struct {
	TotalAttempts     int64   `json:"total_attempts"`
	CompletedAttempts int64   `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
}

type RevenueStats struct {
	TotalRevenue        float64 `json:"total_revenue"`
	ActiveSubscriptions int64   `json:"active_subscriptions"`
}

type SubjectStat struct {
	SubjectID     uuid.UUID `json:"subject_id"`
	SubjectName   string    `json:"subject_name"`
	QuestionCount int64     `json:"question_count"`
	AttemptCount  int64     `json:"attempt_count"`
}

type AdminAnalytics struct {
	Users    UserStats     `json:"users"`
	Tests    TestStats     `json:"tests"`
	Revenue  RevenueStats  `json:"revenue"`
	Subjects []SubjectStat `json:"subjects"`
}

type LeaderboardEntry struct {
	Rank         int       `json:"rank" gorm:"-"`
	UserID       uuid.UUID `json:"user_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	AverageScore float64   `json:"average_score"`
	TestsTaken   int64     `json:"tests_taken"`
}

type Leaderboard struct {
	Timeframe string             `json:"timeframe"`
	Entries   []LeaderboardEntry `json:"entries"`
}

type TopicPerformance struct {
	TopicID   uuid.UUID `json:"topic_id"`
	TopicName string    `json:"topic_name"`
	Attempted int64     `json:"attempted"`
	Correct   int64     `json:"correct"`
	Accuracy  float64   `json:"accuracy"`
}

type SubjectAnalytics struct {
	SubjectID          uuid.UUID          `json:"subject_id"`
	SubjectName        string             `json:"subject_name"`
	Attempted          int64              `json:"attempted"`
	Correct            int64              `json:"correct"`
	Accuracy           float64            `json:"accuracy"`
	AverageTimeSeconds float64            `json:"average_time_seconds"`
	Topics             []TopicPerformance `json:"topics"`
}
