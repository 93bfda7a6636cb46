package inmem

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"gorm.io/gorm"
)

type mockTestRepository struct {
	db *DB
}

func NewMockTestRepository(db *DB) repository.MockTestRepository {
	return &mockTestRepository{db: db}
}

func (repo *mockTestRepository) List(f model.MockTestFilter) ([]model.MockTest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.MockTest
	for _, t := range repo.db.mockTests {
		if !t.IsActive {
			continue
		}
		if f.TestType != "" && string(t.TestType) != f.TestType {
			continue
		}
		if f.IsFree != nil && t.IsFree != *f.IsFree {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (repo *mockTestRepository) FindByID(id uuid.UUID) (*model.MockTest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, ok := repo.db.mockTests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (repo *mockTestRepository) Create(test *model.MockTest) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&test.ID)
	test.CreatedAt, test.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *test
	cp.Questions = nil
	repo.db.mockTests[test.ID] = &cp
	return nil
}

func (repo *mockTestRepository) Update(test *model.MockTest) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	test.UpdatedAt = repo.db.now()
	cp := *test
	cp.Questions = nil
	repo.db.mockTests[test.ID] = &cp
	return nil
}

func (repo *mockTestRepository) Delete(id uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.mockTests[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(repo.db.mockTests, id)
	return nil
}

func (repo *mockTestRepository) AddQuestion(item *model.MockTestQuestion) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, tq := range repo.db.testQuestions {
		if tq.MockTestID == item.MockTestID && (tq.QuestionID == item.QuestionID || tq.Order == item.Order) {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&item.ID)
	cp := *item
	cp.Question = nil
	repo.db.testQuestions = append(repo.db.testQuestions, cp)
	return nil
}

func (repo *mockTestRepository) RemoveQuestion(testID, questionID uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i, tq := range repo.db.testQuestions {
		if tq.MockTestID == testID && tq.QuestionID == questionID {
			repo.db.testQuestions = append(repo.db.testQuestions[:i], repo.db.testQuestions[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (repo *mockTestRepository) ListQuestions(testID uuid.UUID) ([]model.MockTestQuestion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.MockTestQuestion
	for _, tq := range repo.db.testQuestions {
		if tq.MockTestID != testID {
			continue
		}
		cp := tq
		if q, ok := repo.db.questions[tq.QuestionID]; ok {
			qc := repo.db.questionCopy(q)
			cp.Question = &qc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (repo *mockTestRepository) FindTestQuestion(testID, questionID uuid.UUID) (*model.MockTestQuestion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, tq := range repo.db.testQuestions {
		if tq.MockTestID == testID && tq.QuestionID == questionID {
			cp := tq
			if q, ok := repo.db.questions[tq.QuestionID]; ok {
				qc := repo.db.questionCopy(q)
				cp.Question = &qc
			}
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (repo *mockTestRepository) QuestionMarks(testID uuid.UUID) (map[uuid.UUID]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	marks := map[uuid.UUID]int{}
	for _, tq := range repo.db.testQuestions {
		if tq.MockTestID == testID {
			marks[tq.QuestionID] = tq.Marks
		}
	}
	return marks, nil
}

type attemptRepository struct {
	db *DB
}

func NewAttemptRepository(db *DB) repository.AttemptRepository {
	return &attemptRepository{db: db}
}

func (repo *attemptRepository) Start(attempt *model.MockTestAttempt) (*model.MockTestAttempt, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, a := range repo.db.attempts {
		if a.UserID == attempt.UserID && a.MockTestID == attempt.MockTestID && a.IsInProgress() {
			cp := *a
			return &cp, nil
		}
	}
	ensureID(&attempt.ID)
	attempt.Status = model.AttemptInProgress
	cp := *attempt
	cp.MockTest, cp.Answers = nil, nil
	repo.db.attempts[attempt.ID] = &cp
	return nil, nil
}

func (repo *attemptRepository) FindByID(id uuid.UUID) (*model.MockTestAttempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	a, ok := repo.db.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *a
	if t, ok := repo.db.mockTests[a.MockTestID]; ok {
		tc := *t
		cp.MockTest = &tc
	}
	cp.Answers = append([]model.QuestionAttempt(nil), repo.db.answers[id]...)
	return &cp, nil
}

func (repo *attemptRepository) ListByUser(userID uuid.UUID) ([]model.MockTestAttempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.MockTestAttempt
	for _, a := range repo.db.attempts {
		if a.UserID != userID {
			continue
		}
		cp := *a
		if t, ok := repo.db.mockTests[a.MockTestID]; ok {
			tc := *t
			cp.MockTest = &tc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (repo *attemptRepository) UpsertAnswer(answer *model.QuestionAttempt) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	answers := repo.db.answers[answer.AttemptID]
	for i := range answers {
		if answers[i].QuestionID == answer.QuestionID {
			answer.ID = answers[i].ID
			answers[i] = *answer
			return nil
		}
	}
	ensureID(&answer.ID)
	repo.db.answers[answer.AttemptID] = append(answers, *answer)
	return nil
}

func (repo *attemptRepository) Answers(attemptID uuid.UUID) ([]model.QuestionAttempt, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]model.QuestionAttempt(nil), repo.db.answers[attemptID]...), nil
}

func (repo *attemptRepository) Complete(id uuid.UUID, result repository.AttemptResult) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.attempts[id]
	if !ok || !a.IsInProgress() {
		return repository.ErrNotUpdated
	}
	score, accuracy := result.Score, result.Accuracy
	marks, minutes := result.TotalMarks, result.TimeTakenMinutes
	completedAt := result.CompletedAt
	a.Status = model.AttemptCompleted
	a.Score, a.AccuracyPercentage = &score, &accuracy
	a.TotalMarks, a.TimeTakenMinutes = &marks, &minutes
	a.CompletedAt = &completedAt
	return nil
}

func (repo *attemptRepository) Abandon(id uuid.UUID, at time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a, ok := repo.db.attempts[id]
	if !ok || !a.IsInProgress() {
		return repository.ErrNotUpdated
	}
	a.Status = model.AttemptAbandoned
	a.CompletedAt = &at
	return nil
}

func (repo *attemptRepository) SubjectAccuracy(userID uuid.UUID) ([]model.SubjectPerformance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	bySubject := map[uuid.UUID]*model.SubjectPerformance{}
	for attemptID, answers := range repo.db.answers {
		a, ok := repo.db.attempts[attemptID]
		if !ok || a.UserID != userID {
			continue
		}
		for _, ans := range answers {
			q, ok := repo.db.questions[ans.QuestionID]
			if !ok {
				continue
			}
			t, ok := repo.db.topics[q.TopicID]
			if !ok {
				continue
			}
			perf, ok := bySubject[t.SubjectID]
			if !ok {
				perf = &model.SubjectPerformance{SubjectID: t.SubjectID}
				if s, ok := repo.db.subjects[t.SubjectID]; ok {
					perf.SubjectName = s.Name
				}
				bySubject[t.SubjectID] = perf
			}
			perf.Attempted++
			if ans.IsCorrect {
				perf.Correct++
			}
		}
	}

	out := make([]model.SubjectPerformance, 0, len(bySubject))
	for _, perf := range bySubject {
		perf.Accuracy = float64(perf.Correct) / float64(perf.Attempted) * 100
		out = append(out, *perf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubjectName < out[j].SubjectName })
	return out, nil
}
