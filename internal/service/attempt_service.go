package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AccessChecker answers whether a user may sit paid tests
type AccessChecker interface {
	HasActiveSubscription(userID uuid.UUID) (bool, error)
}

// AchievementEvaluator awards badges after a submission
type AchievementEvaluator interface {
	Evaluate(userID uuid.UUID) ([]model.Achievement, error)
}

// AttemptService drives the mock test attempt lifecycle:
// in_progress → completed or in_progress → abandoned
type AttemptService struct {
	mockRepo     repository.MockTestRepository
	attemptRepo  repository.AttemptRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	access       AccessChecker
	notifier     Notifier
	achievements AchievementEvaluator
	now          func() time.Time
}

func NewAttemptService(
	mockRepo repository.MockTestRepository,
	attemptRepo repository.AttemptRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	access AccessChecker,
	notifier Notifier,
	achievements AchievementEvaluator,
) *AttemptService {
	return &AttemptService{
		mockRepo:     mockRepo,
		attemptRepo:  attemptRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		access:       access,
		notifier:     notifier,
		achievements: achievements,
		now:          time.Now,
	}
}

// CanTake reports whether the user may open test: free tests always, paid
// tests only with an active subscription
func (s *AttemptService) CanTake(userID uuid.UUID, test *model.MockTest) (bool, error) {
	if test.IsFree {
		return true, nil
	}
	if s.access == nil {
		return false, nil
	}
	return s.access.HasActiveSubscription(userID)
}

func (s *AttemptService) activeTest(testID uuid.UUID) (*model.MockTest, error) {
	test, err := s.mockRepo.FindByID(testID)
	if err != nil {
		return nil, lookupErr(err, "Mock test")
	}
	if !test.IsActive {
		return nil, notFound("Mock test")
	}
	return test, nil
}

// TestQuestions returns the questions of a test the user is allowed to open
func (s *AttemptService) TestQuestions(userID, testID uuid.UUID) ([]model.PublicQuestion, error) {
	test, err := s.activeTest(testID)
	if err != nil {
		return nil, err
	}
	ok, err := s.CanTake(userID, test)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubscriptionRequired
	}
	items, err := s.mockRepo.ListQuestions(testID)
	if err != nil {
		return nil, errors.Wrap(err, "list test questions")
	}
	return publicTestQuestions(items), nil
}

// Start opens a new attempt. A second start while one is in progress fails
// with an AttemptConflictError carrying the open attempt.
func (s *AttemptService) Start(userID, testID uuid.UUID) (*model.StartAttemptResponse, error) {
	test, err := s.activeTest(testID)
	if err != nil {
		return nil, err
	}

	ok, err := s.CanTake(userID, test)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSubscriptionRequired
	}

	attempt := &model.MockTestAttempt{
		UserID:     userID,
		MockTestID: test.ID,
		StartedAt:  s.now(),
		Status:     model.AttemptInProgress,
	}
	existing, err := s.attemptRepo.Start(attempt)
	if err != nil {
		return nil, errors.Wrap(err, "start attempt")
	}
	if existing != nil {
		return nil, &AttemptConflictError{AttemptID: existing.ID}
	}

	items, err := s.mockRepo.ListQuestions(test.ID)
	if err != nil {
		return nil, errors.Wrap(err, "list test questions")
	}

	log.Info().
		Str("user_id", userID.String()).
		Str("attempt_id", attempt.ID.String()).
		Str("mock_test", test.Name).
		Msg("📝 Attempt started")

	attempt.MockTest = test
	return &model.StartAttemptResponse{
		Message:   "Mock test started successfully",
		AttemptID: attempt.ID,
		Attempt:   attempt,
		Questions: publicTestQuestions(items),
	}, nil
}

// ownAttempt loads an attempt and hides other users' attempts behind a 404
func (s *AttemptService) ownAttempt(userID, attemptID uuid.UUID) (*model.MockTestAttempt, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, lookupErr(err, "Attempt")
	}
	if attempt.UserID != userID {
		return nil, notFound("Attempt")
	}
	return attempt, nil
}

// Answer records (or replaces) the answer to one question of an open attempt.
// Correctness is taken from the selected option at write time.
func (s *AttemptService) Answer(userID, attemptID uuid.UUID, req model.AnswerRequest) (*model.QuestionAttempt, error) {
	attempt, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsInProgress() {
		return nil, ErrAttemptClosed
	}

	if _, err := s.mockRepo.FindTestQuestion(attempt.MockTestID, req.QuestionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotInTest
		}
		return nil, errors.Wrap(err, "find test question")
	}

	isCorrect := false
	if req.SelectedOptionID != nil {
		question, err := s.questionRepo.FindQuestion(req.QuestionID)
		if err != nil {
			return nil, lookupErr(err, "Question")
		}
		option, ok := question.HasOption(*req.SelectedOptionID)
		if !ok {
			return nil, ErrOptionMismatch
		}
		isCorrect = option.IsCorrect
	}

	answer := &model.QuestionAttempt{
		AttemptID:         attempt.ID,
		QuestionID:        req.QuestionID,
		SelectedOptionID:  req.SelectedOptionID,
		IsCorrect:         isCorrect,
		TimeTakenSeconds:  req.TimeTakenSeconds,
		IsMarkedForReview: req.IsMarkedForReview,
		AnsweredAt:        s.now(),
	}
	if err := s.attemptRepo.UpsertAnswer(answer); err != nil {
		return nil, errors.Wrap(err, "save answer")
	}
	return answer, nil
}

// Submit scores and completes an open attempt. The completion is a conditional
// update, so a concurrent second submit fails with ErrAttemptClosed.
func (s *AttemptService) Submit(userID, attemptID uuid.UUID) (*model.SubmitAttemptResponse, error) {
	attempt, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsInProgress() {
		return nil, ErrAttemptClosed
	}

	answers, err := s.attemptRepo.Answers(attempt.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load answers")
	}
	marks, err := s.mockRepo.QuestionMarks(attempt.MockTestID)
	if err != nil {
		return nil, errors.Wrap(err, "load test marks")
	}

	now := s.now()
	score := model.ScoreAttempt(answers, marks)
	minutes := int(now.Sub(attempt.StartedAt).Minutes())
	if minutes < 0 {
		minutes = 0
	}

	err = s.attemptRepo.Complete(attempt.ID, repository.AttemptResult{
		Score:            score.Score,
		TotalMarks:       score.TotalMarks,
		Accuracy:         score.Accuracy,
		TimeTakenMinutes: minutes,
		CompletedAt:      now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrAttemptClosed
		}
		return nil, errors.Wrap(err, "complete attempt")
	}

	test := attempt.MockTest
	if test == nil {
		if test, err = s.mockRepo.FindByID(attempt.MockTestID); err != nil {
			return nil, lookupErr(err, "Mock test")
		}
	}
	passed := score.Score >= float64(test.PassingScore)

	log.Info().
		Str("user_id", userID.String()).
		Str("attempt_id", attempt.ID.String()).
		Float64("score", score.Score).
		Msg("✅ Attempt submitted")

	s.afterSubmit(userID, attempt.ID, test, score, passed)

	return &model.SubmitAttemptResponse{
		Message:          "Mock test submitted successfully",
		AttemptID:        attempt.ID,
		Score:            score.Score,
		TotalQuestions:   score.Total,
		CorrectAnswers:   score.Correct,
		AnsweredCount:    score.Answered,
		Accuracy:         score.Accuracy,
		TotalMarks:       score.TotalMarks,
		TimeTakenMinutes: minutes,
		Passed:           passed,
	}, nil
}

// afterSubmit runs the follow-ups of a completion. Failures are logged; the
// attempt stays completed.
func (s *AttemptService) afterSubmit(userID, attemptID uuid.UUID, test *model.MockTest, score model.AttemptScore, passed bool) {
	if err := s.refreshProfile(userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to refresh student profile")
	}

	if s.notifier != nil {
		verdict := "Keep practicing!"
		if passed {
			verdict = "You passed!"
		}
		_, _ = s.notifier.Notify(userID, model.NotificationTestResult,
			"Results for "+test.Name,
			fmt.Sprintf("You scored %.1f%% (%d/%d correct). %s", score.Score, score.Correct, score.Total, verdict),
			model.PriorityMedium,
			map[string]any{"attempt_id": attemptID.String(), "mock_test_id": test.ID.String(), "score": score.Score},
		)
	}

	if s.achievements != nil {
		if _, err := s.achievements.Evaluate(userID); err != nil {
			log.Warn().Err(err).Str("user_id", userID.String()).Msg("failed to evaluate achievements")
		}
	}
}

// refreshProfile recomputes the student's counters from completed attempts
func (s *AttemptService) refreshProfile(userID uuid.UUID) error {
	attempts, err := s.attemptRepo.ListByUser(userID)
	if err != nil {
		return err
	}
	var (
		taken    int
		accuracy float64
		minutes  int
	)
	for _, a := range attempts {
		if a.Status != model.AttemptCompleted {
			continue
		}
		taken++
		if a.AccuracyPercentage != nil {
			accuracy += *a.AccuracyPercentage
		}
		if a.TimeTakenMinutes != nil {
			minutes += *a.TimeTakenMinutes
		}
	}
	if taken > 0 {
		accuracy /= float64(taken)
	}
	return s.userRepo.UpdateStudentStats(userID, taken, accuracy, minutes)
}

// Abandon closes an open attempt without scoring it
func (s *AttemptService) Abandon(userID, attemptID uuid.UUID) (*model.MockTestAttempt, error) {
	attempt, err := s.ownAttempt(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsInProgress() {
		return nil, ErrAttemptClosed
	}
	now := s.now()
	if err := s.attemptRepo.Abandon(attempt.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotUpdated) {
			return nil, ErrAttemptClosed
		}
		return nil, errors.Wrap(err, "abandon attempt")
	}
	attempt.Status = model.AttemptAbandoned
	attempt.CompletedAt = &now
	return attempt, nil
}

func (s *AttemptService) List(userID uuid.UUID) ([]model.MockTestAttempt, error) {
	return s.attemptRepo.ListByUser(userID)
}

// Get returns an attempt owned by userID with its answers
func (s *AttemptService) Get(userID, attemptID uuid.UUID) (*model.MockTestAttempt, error) {
	return s.ownAttempt(userID, attemptID)
}
