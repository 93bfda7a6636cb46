package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
)

// AnalyticsRepository runs the read-only rollups behind the dashboards
type AnalyticsRepository interface {
	StudentOverview(userID uuid.UUID) (model.StudentOverview, error)
	StudentSubjects(userID uuid.UUID) ([]model.SubjectPerformance, error)
	RecentAttempts(userID uuid.UUID, limit int) ([]model.RecentAttempt, error)
	DailyProgress(userID uuid.UUID, since time.Time) ([]model.DailyProgress, error)

	UserStats(now time.Time) (model.UserStats, error)
	TestStats() (model.TestStats, error)
	RevenueStats(now time.Time) (model.RevenueStats, error)
	SubjectStats() ([]model.SubjectStat, error)

	Leaderboard(since *time.Time, limit int) ([]model.LeaderboardEntry, error)
	SubjectAnalytics(userID, subjectID uuid.UUID) (*model.SubjectAnalytics, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) StudentOverview(userID uuid.UUID) (model.StudentOverview, error) {
	var out model.StudentOverview
	err := r.db.Raw(`
		SELECT COUNT(*) AS total_tests,
		       COALESCE(AVG(score), 0) AS average_score,
		       COALESCE(AVG(accuracy_percentage), 0) AS average_accuracy,
		       COALESCE(SUM(time_taken_minutes), 0) AS total_study_time
		FROM mock_test_attempts
		WHERE user_id = ? AND status = 'completed'`, userID).Scan(&out).Error
	if err != nil {
		return out, err
	}
	err = r.db.Raw(`
		SELECT COUNT(*) FROM question_attempts qa
		JOIN mock_test_attempts a ON a.id = qa.attempt_id
		WHERE a.user_id = ? AND qa.selected_option_id IS NOT NULL`, userID).Scan(&out.QuestionsAnswered).Error
	return out, err
}

func (r *analyticsRepository) StudentSubjects(userID uuid.UUID) ([]model.SubjectPerformance, error) {
	var rows []model.SubjectPerformance
	err := r.db.Raw(`
		SELECT s.id AS subject_id, s.name AS subject_name,
		       COUNT(qa.id) AS attempted,
		       COUNT(qa.id) FILTER (WHERE qa.is_correct) AS correct,
		       COALESCE(100.0 * COUNT(qa.id) FILTER (WHERE qa.is_correct) / NULLIF(COUNT(qa.id), 0), 0) AS accuracy
		FROM question_attempts qa
		JOIN mock_test_attempts a ON a.id = qa.attempt_id
		JOIN questions q ON q.id = qa.question_id
		JOIN topics t ON t.id = q.topic_id
		JOIN subjects s ON s.id = t.subject_id
		WHERE a.user_id = ?
		GROUP BY s.id, s.name
		ORDER BY accuracy DESC`, userID).Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) RecentAttempts(userID uuid.UUID, limit int) ([]model.RecentAttempt, error) {
	var rows []model.RecentAttempt
	err := r.db.Raw(`
		SELECT a.id AS attempt_id, a.mock_test_id, t.name AS mock_test_name,
		       a.status, a.score, a.started_at, a.completed_at
		FROM mock_test_attempts a
		JOIN mock_tests t ON t.id = a.mock_test_id
		WHERE a.user_id = ?
		ORDER BY a.started_at DESC
		LIMIT ?`, userID, limit).Scan(&rows).Error
	return rows, err
}

// DailyProgress buckets completed attempts by day since the given instant
func (r *analyticsRepository) DailyProgress(userID uuid.UUID, since time.Time) ([]model.DailyProgress, error) {
	var rows []model.DailyProgress
	err := r.db.Raw(`
		SELECT TO_CHAR(DATE(completed_at), 'YYYY-MM-DD') AS date,
		       COUNT(*) AS tests_taken,
		       COALESCE(AVG(score), 0) AS average_score
		FROM mock_test_attempts
		WHERE user_id = ? AND status = 'completed' AND completed_at >= ?
		GROUP BY DATE(completed_at)
		ORDER BY DATE(completed_at)`, userID, since).Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) UserStats(now time.Time) (model.UserStats, error) {
	var out model.UserStats
	err := r.db.Raw(`
		SELECT COUNT(*) AS total_users,
		       COUNT(*) FILTER (WHERE role = 'student') AS total_students,
		       COUNT(*) FILTER (WHERE email_verified_at IS NOT NULL) AS verified_users,
		       COUNT(*) FILTER (WHERE last_login_at >= ?) AS active_users,
		       COUNT(*) FILTER (WHERE created_at >= ?) AS new_users
		FROM users
		WHERE deleted_at IS NULL`, now.AddDate(0, 0, -30), now.AddDate(0, 0, -7)).Scan(&out).Error
	return out, err
}

func (r *analyticsRepository) TestStats() (model.TestStats, error) {
	var out model.TestStats
	err := r.db.Raw(`
		SELECT COUNT(*) AS total_attempts,
		       COUNT(*) FILTER (WHERE status = 'completed') AS completed_attempts,
		       COALESCE(AVG(score) FILTER (WHERE status = 'completed'), 0) AS average_score
		FROM mock_test_attempts`).Scan(&out).Error
	return out, err
}

func (r *analyticsRepository) RevenueStats(now time.Time) (model.RevenueStats, error) {
	var out model.RevenueStats
	err := r.db.Raw(`
		SELECT
		  (SELECT COALESCE(SUM(amount), 0) FROM payment_transactions WHERE status = 'completed') AS total_revenue,
		  (SELECT COUNT(*) FROM user_subscriptions
		    WHERE status = 'active' AND start_date <= ? AND end_date >= ?) AS active_subscriptions`,
		now, now).Scan(&out).Error
	return out, err
}

func (r *analyticsRepository) SubjectStats() ([]model.SubjectStat, error) {
	var rows []model.SubjectStat
	err := r.db.Raw(`
		SELECT s.id AS subject_id, s.name AS subject_name,
		       COUNT(DISTINCT q.id) AS question_count,
		       COUNT(qa.id) AS attempt_count
		FROM subjects s
		LEFT JOIN topics t ON t.subject_id = s.id
		LEFT JOIN questions q ON q.topic_id = t.id
		LEFT JOIN question_attempts qa ON qa.question_id = q.id
		GROUP BY s.id, s.name
		ORDER BY s.name`).Scan(&rows).Error
	return rows, err
}

// Leaderboard ranks students by average score then number of completed tests.
// A nil since covers all time.
func (r *analyticsRepository) Leaderboard(since *time.Time, limit int) ([]model.LeaderboardEntry, error) {
	var rows []model.LeaderboardEntry
	err := r.db.Raw(`
		SELECT u.id AS user_id, u.username,
		       TRIM(u.first_name || ' ' || u.last_name) AS full_name,
		       AVG(a.score) AS average_score,
		       COUNT(a.id) AS tests_taken
		FROM mock_test_attempts a
		JOIN users u ON u.id = a.user_id
		WHERE a.status = 'completed' AND u.role = 'student'
		  AND (CAST(? AS timestamptz) IS NULL OR a.completed_at >= ?)
		GROUP BY u.id, u.username, u.first_name, u.last_name
		ORDER BY average_score DESC, tests_taken DESC
		LIMIT ?`, since, since, limit).Scan(&rows).Error
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, err
}

// SubjectAnalytics returns nil when the user has no answers in the subject
func (r *analyticsRepository) SubjectAnalytics(userID, subjectID uuid.UUID) (*model.SubjectAnalytics, error) {
	var out model.SubjectAnalytics
	err := r.db.Raw(`
		SELECT s.id AS subject_id, s.name AS subject_name,
		       COUNT(qa.id) AS attempted,
		       COUNT(qa.id) FILTER (WHERE qa.is_correct) AS correct,
		       COALESCE(100.0 * COUNT(qa.id) FILTER (WHERE qa.is_correct) / NULLIF(COUNT(qa.id), 0), 0) AS accuracy,
		       COALESCE(AVG(qa.time_taken_seconds), 0) AS average_time_seconds
		FROM question_attempts qa
		JOIN mock_test_attempts a ON a.id = qa.attempt_id
		JOIN questions q ON q.id = qa.question_id
		JOIN topics t ON t.id = q.topic_id
		JOIN subjects s ON s.id = t.subject_id
		WHERE a.user_id = ? AND s.id = ?
		GROUP BY s.id, s.name`, userID, subjectID).Scan(&out).Error
	if err != nil {
		return nil, err
	}
	if out.Attempted == 0 {
		return nil, nil
	}

	err = r.db.Raw(`
		SELECT t.id AS topic_id, t.name AS topic_name,
		       COUNT(qa.id) AS attempted,
		       COUNT(qa.id) FILTER (WHERE qa.is_correct) AS correct,
		       COALESCE(100.0 * COUNT(qa.id) FILTER (WHERE qa.is_correct) / NULLIF(COUNT(qa.id), 0), 0) AS accuracy
		FROM question_attempts qa
		JOIN mock_test_attempts a ON a.id = qa.attempt_id
		JOIN questions q ON q.id = qa.question_id
		JOIN topics t ON t.id = q.topic_id
		WHERE a.user_id = ? AND t.subject_id = ?
		GROUP BY t.id, t.name
		ORDER BY t.name`, userID, subjectID).Scan(&out.Topics).Error
	return &out, err
}
