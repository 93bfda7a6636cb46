package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository/inmem"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attemptFixture struct {
	db        *inmem.DB
	clock     *fixedClock
	notifier  *recordingNotifier
	svc       *AttemptService
	student   *model.User
	questions []model.Question
	freeTest  *model.MockTest
	paidTest  *model.MockTest
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	db := inmem.NewDB()
	clock := newClock(baseTime)
	db.SetClock(clock.Now)

	_, _, questions := seedQuestions(db, "Physics", 10)
	f := &attemptFixture{
		db:        db,
		clock:     clock,
		notifier:  &recordingNotifier{},
		student:   seedStudent(db, "sita@example.com"),
		questions: questions,
		freeTest:  seedMockTest(db, "IOE Free Set", true, questions),
		paidTest:  seedMockTest(db, "IOE Premium Set", false, questions),
	}

	subs := NewSubscriptionService(inmem.NewSubscriptionRepository(db), nil)
	subs.now = clock.Now
	f.svc = NewAttemptService(
		inmem.NewMockTestRepository(db),
		inmem.NewAttemptRepository(db),
		inmem.NewQuestionRepository(db),
		inmem.NewUserRepository(db),
		subs,
		f.notifier,
		nil,
	)
	f.svc.now = clock.Now
	return f
}

func (f *attemptFixture) answer(t *testing.T, attemptID uuid.UUID, q model.Question, optionIndex int) {
	t.Helper()
	_, err := f.svc.Answer(f.student.ID, attemptID, model.AnswerRequest{
		QuestionID:       q.ID,
		SelectedOptionID: &q.Options[optionIndex].ID,
		TimeTakenSeconds: 30,
	})
	require.NoError(t, err)
}

func TestAttempt_SubmitScoresCorrectOverTotal(t *testing.T) {
	f := newAttemptFixture(t)

	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)
	require.Len(t, started.Questions, 10)
	assert.Equal(t, 1, started.Questions[0].Order)

	// 8 correct (B), 1 wrong, 1 unanswered
	for _, q := range f.questions[:8] {
		f.answer(t, started.AttemptID, q, 1)
	}
	f.answer(t, started.AttemptID, f.questions[8], 0)

	f.clock.Advance(25 * time.Minute)
	res, err := f.svc.Submit(f.student.ID, started.AttemptID)
	require.NoError(t, err)

	assert.InDelta(t, 80.0, res.Score, 0.001)
	assert.Equal(t, 10, res.TotalQuestions)
	assert.Equal(t, 8, res.CorrectAnswers)
	assert.Equal(t, 9, res.AnsweredCount)
	assert.InDelta(t, 88.888, res.Accuracy, 0.01)
	assert.Equal(t, 8, res.TotalMarks)
	assert.Equal(t, 25, res.TimeTakenMinutes)
	assert.True(t, res.Passed)

	attempt, err := f.svc.Get(f.student.ID, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptCompleted, attempt.Status)
	require.NotNil(t, attempt.Score)
	assert.InDelta(t, 80.0, *attempt.Score, 0.001)

	assert.Equal(t, []model.NotificationType{model.NotificationTestResult}, f.notifier.Types())

	profile, err := inmem.NewUserRepository(f.db).GetStudentProfile(f.student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, profile.TotalMockTestsTaken)
	assert.Equal(t, 25, profile.TotalStudyTimeMinutes)
}

func TestAttempt_AnswerReplacesPreviousChoice(t *testing.T) {
	f := newAttemptFixture(t)
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)

	q := f.questions[0]
	f.answer(t, started.AttemptID, q, 0)
	f.answer(t, started.AttemptID, q, 1)

	res, err := f.svc.Submit(f.student.ID, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnsweredCount)
	assert.Equal(t, 1, res.CorrectAnswers)
	assert.InDelta(t, 10.0, res.Score, 0.001)
	assert.False(t, res.Passed)
}

func TestAttempt_SecondStartConflicts(t *testing.T) {
	f := newAttemptFixture(t)
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(f.student.ID, f.freeTest.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAttemptInProgress)

	var conflict *AttemptConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, started.AttemptID, conflict.AttemptID)

	// after completion a new attempt may start
	_, err = f.svc.Submit(f.student.ID, started.AttemptID)
	require.NoError(t, err)
	_, err = f.svc.Start(f.student.ID, f.freeTest.ID)
	assert.NoError(t, err)
}

func TestAttempt_ClosedAttemptsRejectWrites(t *testing.T) {
	f := newAttemptFixture(t)
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)

	_, err = f.svc.Submit(f.student.ID, started.AttemptID)
	require.NoError(t, err)

	_, err = f.svc.Submit(f.student.ID, started.AttemptID)
	assert.ErrorIs(t, err, ErrAttemptClosed)

	_, err = f.svc.Answer(f.student.ID, started.AttemptID, model.AnswerRequest{QuestionID: f.questions[0].ID})
	assert.ErrorIs(t, err, ErrAttemptClosed)

	_, err = f.svc.Abandon(f.student.ID, started.AttemptID)
	assert.ErrorIs(t, err, ErrAttemptClosed)
}

func TestAttempt_AnswerValidation(t *testing.T) {
	f := newAttemptFixture(t)
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)

	_, err = f.svc.Answer(f.student.ID, started.AttemptID, model.AnswerRequest{
		QuestionID:       f.questions[0].ID,
		SelectedOptionID: &f.questions[1].Options[1].ID,
	})
	assert.ErrorIs(t, err, ErrOptionMismatch)

	_, _, others := seedQuestions(f.db, "Chemistry", 1)
	_, err = f.svc.Answer(f.student.ID, started.AttemptID, model.AnswerRequest{QuestionID: others[0].ID})
	assert.ErrorIs(t, err, ErrQuestionNotInTest)

	intruder := seedStudent(f.db, "ram@example.com")
	_, err = f.svc.Answer(intruder.ID, started.AttemptID, model.AnswerRequest{QuestionID: f.questions[0].ID})
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestAttempt_PaidTestNeedsSubscription(t *testing.T) {
	f := newAttemptFixture(t)

	_, err := f.svc.Start(f.student.ID, f.paidTest.ID)
	assert.ErrorIs(t, err, ErrSubscriptionRequired)

	_, err = f.svc.TestQuestions(f.student.ID, f.paidTest.ID)
	assert.ErrorIs(t, err, ErrSubscriptionRequired)

	plan := seedPlan(f.db, "Premium", 999, true)
	f.db.PutSubscription(model.UserSubscription{
		UserID:    f.student.ID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionActive,
		StartDate: baseTime.Add(-24 * time.Hour),
		EndDate:   baseTime.AddDate(0, 0, 29),
	})

	_, err = f.svc.Start(f.student.ID, f.paidTest.ID)
	assert.NoError(t, err)
}

func TestAttempt_InactiveTestIsHidden(t *testing.T) {
	f := newAttemptFixture(t)
	repo := inmem.NewMockTestRepository(f.db)
	f.freeTest.IsActive = false
	require.NoError(t, repo.Update(f.freeTest))

	_, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestAttempt_Abandon(t *testing.T) {
	f := newAttemptFixture(t)
	started, err := f.svc.Start(f.student.ID, f.freeTest.ID)
	require.NoError(t, err)

	attempt, err := f.svc.Abandon(f.student.ID, started.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptAbandoned, attempt.Status)
	assert.Nil(t, attempt.Score)

	_, err = f.svc.Submit(f.student.ID, started.AttemptID)
	assert.ErrorIs(t, err, ErrAttemptClosed)
}
