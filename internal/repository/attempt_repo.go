package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttemptResult is what a completed attempt is stamped with
type AttemptResult struct {
	Score            float64
	TotalMarks       int
	Accuracy         float64
	TimeTakenMinutes int
	CompletedAt      time.Time
}

// AttemptRepository handles mock test attempts and their answers
type AttemptRepository interface {
	Start(attempt *model.MockTestAttempt) (existing *model.MockTestAttempt, err error)
	FindByID(id uuid.UUID) (*model.MockTestAttempt, error)
	ListByUser(userID uuid.UUID) ([]model.MockTestAttempt, error)
	UpsertAnswer(answer *model.QuestionAttempt) error
	Answers(attemptID uuid.UUID) ([]model.QuestionAttempt, error)
	Complete(id uuid.UUID, result AttemptResult) error
	Abandon(id uuid.UUID, at time.Time) error
	SubjectAccuracy(userID uuid.UUID) ([]model.SubjectPerformance, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

// Start creates an in_progress attempt unless one already exists for the same
// user and test, in which case the existing attempt is returned and nothing is
// written. The partial unique index catches the concurrent case.
func (r *attemptRepository) Start(attempt *model.MockTestAttempt) (*model.MockTestAttempt, error) {
	var existing *model.MockTestAttempt
	err := r.db.Transaction(func(tx *gorm.DB) error {
		found, err := findInProgress(tx, attempt.UserID, attempt.MockTestID)
		if err == nil {
			existing = found
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		attempt.Status = model.AttemptInProgress
		return tx.Omit(clause.Associations).Create(attempt).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return findInProgress(r.db, attempt.UserID, attempt.MockTestID)
	}
	return existing, err
}

func findInProgress(db *gorm.DB, userID, testID uuid.UUID) (*model.MockTestAttempt, error) {
	var attempt model.MockTestAttempt
	err := db.
		Where("user_id = ? AND mock_test_id = ? AND status = ?", userID, testID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// FindByID loads an attempt with its test and answers
func (r *attemptRepository) FindByID(id uuid.UUID) (*model.MockTestAttempt, error) {
	var attempt model.MockTestAttempt
	err := r.db.
		Preload("MockTest").
		Preload("Answers").
		Where("id = ?", id).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ListByUser returns a user's attempts, newest first
func (r *attemptRepository) ListByUser(userID uuid.UUID) ([]model.MockTestAttempt, error) {
	var attempts []model.MockTestAttempt
	err := r.db.
		Preload("MockTest").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// UpsertAnswer records an answer, replacing any earlier answer to the same question
func (r *attemptRepository) UpsertAnswer(answer *model.QuestionAttempt) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option_id", "is_correct", "time_taken_seconds", "is_marked_for_review", "answered_at",
		}),
	}).Create(answer).Error
}

func (r *attemptRepository) Answers(attemptID uuid.UUID) ([]model.QuestionAttempt, error) {
	var answers []model.QuestionAttempt
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// Complete moves an in_progress attempt to completed. A second call finds no
// in_progress row and returns ErrNotUpdated.
func (r *attemptRepository) Complete(id uuid.UUID, result AttemptResult) error {
	res := r.db.Model(&model.MockTestAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":              model.AttemptCompleted,
			"score":               result.Score,
			"total_marks":         result.TotalMarks,
			"accuracy_percentage": result.Accuracy,
			"time_taken_minutes":  result.TimeTakenMinutes,
			"completed_at":        result.CompletedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotUpdated
	}
	return nil
}

func (r *attemptRepository) Abandon(id uuid.UUID, at time.Time) error {
	res := r.db.Model(&model.MockTestAttempt{}).
		Where("id = ? AND status = ?", id, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       model.AttemptAbandoned,
			"completed_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotUpdated
	}
	return nil
}

// SubjectAccuracy aggregates a user's answers per subject
func (r *attemptRepository) SubjectAccuracy(userID uuid.UUID) ([]model.SubjectPerformance, error) {
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
		ORDER BY s.name`, userID).Scan(&rows).Error
	return rows, err
}
