package service

import (
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MockTestService manages mock tests and the questions assigned to them
type MockTestService struct {
	mockRepo     repository.MockTestRepository
	questionRepo repository.QuestionRepository
}

func NewMockTestService(mockRepo repository.MockTestRepository, questionRepo repository.QuestionRepository) *MockTestService {
	return &MockTestService{mockRepo: mockRepo, questionRepo: questionRepo}
}

func (s *MockTestService) List(f model.MockTestFilter) ([]model.MockTest, error) {
	return s.mockRepo.List(f)
}

// Get returns a test; inactive tests are hidden unless includeInactive is set
func (s *MockTestService) Get(id uuid.UUID, includeInactive bool) (*model.MockTest, error) {
	test, err := s.mockRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Mock test")
	}
	if !test.IsActive && !includeInactive {
		return nil, notFound("Mock test")
	}
	return test, nil
}

func (s *MockTestService) Create(adminID uuid.UUID, req model.MockTestRequest) (*model.MockTest, error) {
	test := &model.MockTest{CreatedByID: &adminID}
	applyMockTestRequest(test, req, true)
	if err := s.mockRepo.Create(test); err != nil {
		return nil, errors.Wrap(err, "create mock test")
	}
	return test, nil
}

func (s *MockTestService) Update(id uuid.UUID, req model.MockTestRequest) (*model.MockTest, error) {
	test, err := s.mockRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Mock test")
	}
	applyMockTestRequest(test, req, test.IsActive)
	test.Questions = nil
	if err := s.mockRepo.Update(test); err != nil {
		return nil, errors.Wrap(err, "update mock test")
	}
	return test, nil
}

func applyMockTestRequest(test *model.MockTest, req model.MockTestRequest, active bool) {
	test.Name = req.Name
	test.Description = req.Description
	test.TestType = req.TestType
	test.DurationMinutes = req.DurationMinutes
	test.TotalQuestions = req.TotalQuestions
	test.PassingScore = req.PassingScore
	test.IsFree = req.IsFree
	test.Price = req.Price
	if req.IsFree {
		test.Price = 0
	}
	test.IsActive = boolOr(req.IsActive, active)
}

func (s *MockTestService) Delete(id uuid.UUID) error {
	if err := s.mockRepo.Delete(id); err != nil {
		return lookupErr(err, "Mock test")
	}
	return nil
}

// AddQuestion places a bank question in a test. Order 0 appends; marks default
// to the question's own marks.
func (s *MockTestService) AddQuestion(testID uuid.UUID, req model.AddTestQuestionRequest) (*model.MockTestQuestion, error) {
	if _, err := s.mockRepo.FindByID(testID); err != nil {
		return nil, lookupErr(err, "Mock test")
	}
	question, err := s.questionRepo.FindQuestion(req.QuestionID)
	if err != nil {
		return nil, lookupErr(err, "Question")
	}

	order := req.Order
	if order == 0 {
		existing, err := s.mockRepo.ListQuestions(testID)
		if err != nil {
			return nil, errors.Wrap(err, "list test questions")
		}
		for _, q := range existing {
			if q.Order >= order {
				order = q.Order + 1
			}
		}
		if order == 0 {
			order = 1
		}
	}
	marks := req.Marks
	if marks == 0 {
		marks = question.Marks
	}

	item := &model.MockTestQuestion{
		MockTestID: testID,
		QuestionID: question.ID,
		Order:      order,
		Marks:      marks,
	}
	if err := s.mockRepo.AddQuestion(item); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "add test question")
	}
	item.Question = question
	return item, nil
}

func (s *MockTestService) RemoveQuestion(testID, questionID uuid.UUID) error {
	if err := s.mockRepo.RemoveQuestion(testID, questionID); err != nil {
		return lookupErr(err, "Test question")
	}
	return nil
}

// Questions returns the full question set of a test, answer key included
func (s *MockTestService) Questions(testID uuid.UUID) ([]model.MockTestQuestion, error) {
	if _, err := s.mockRepo.FindByID(testID); err != nil {
		return nil, lookupErr(err, "Mock test")
	}
	return s.mockRepo.ListQuestions(testID)
}

// PublicQuestions returns a test's questions in order without correctness flags
func (s *MockTestService) PublicQuestions(testID uuid.UUID) ([]model.PublicQuestion, error) {
	items, err := s.mockRepo.ListQuestions(testID)
	if err != nil {
		return nil, errors.Wrap(err, "list test questions")
	}
	return publicTestQuestions(items), nil
}

func publicTestQuestions(items []model.MockTestQuestion) []model.PublicQuestion {
	out := make([]model.PublicQuestion, 0, len(items))
	for _, item := range items {
		if item.Question == nil {
			continue
		}
		pq := item.Question.ToPublic()
		pq.Order = item.Order
		pq.Marks = item.Marks
		out = append(out, pq)
	}
	return out
}
