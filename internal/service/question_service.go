package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const practiceSetSize = 10

// QuestionService manages the question bank and per-user bookmarks
type QuestionService struct {
	questionRepo repository.QuestionRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// ==================== Subjects ====================

func (s *QuestionService) ListSubjects() ([]model.Subject, error) {
	return s.questionRepo.ListSubjects()
}

func (s *QuestionService) GetSubject(id uuid.UUID) (*model.Subject, error) {
	subject, err := s.questionRepo.FindSubject(id)
	if err != nil {
		return nil, lookupErr(err, "Subject")
	}
	return subject, nil
}

func (s *QuestionService) CreateSubject(req model.SubjectRequest) (*model.Subject, error) {
	subject := &model.Subject{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Icon:        req.Icon,
		IsActive:    boolOr(req.IsActive, true),
	}
	if err := s.questionRepo.CreateSubject(subject); err != nil {
		return nil, writeErr(err, "Subject", "create")
	}
	return subject, nil
}

func (s *QuestionService) UpdateSubject(id uuid.UUID, req model.SubjectRequest) (*model.Subject, error) {
	subject, err := s.questionRepo.FindSubject(id)
	if err != nil {
		return nil, lookupErr(err, "Subject")
	}
	subject.Name = strings.TrimSpace(req.Name)
	subject.Description = req.Description
	subject.Icon = req.Icon
	subject.IsActive = boolOr(req.IsActive, subject.IsActive)
	subject.Topics = nil
	if err := s.questionRepo.UpdateSubject(subject); err != nil {
		return nil, writeErr(err, "Subject", "update")
	}
	return subject, nil
}

func (s *QuestionService) DeleteSubject(id uuid.UUID) error {
	if err := s.questionRepo.DeleteSubject(id); err != nil {
		return writeErr(err, "Subject", "delete")
	}
	return nil
}

// ==================== Topics ====================

func (s *QuestionService) ListTopics(subjectID *uuid.UUID) ([]model.Topic, error) {
	return s.questionRepo.ListTopics(subjectID)
}

func (s *QuestionService) GetTopic(id uuid.UUID) (*model.Topic, error) {
	topic, err := s.questionRepo.FindTopic(id)
	if err != nil {
		return nil, lookupErr(err, "Topic")
	}
	return topic, nil
}

func (s *QuestionService) CreateTopic(req model.TopicRequest) (*model.Topic, error) {
	if _, err := s.questionRepo.FindSubject(req.SubjectID); err != nil {
		return nil, lookupErr(err, "Subject")
	}
	topic := &model.Topic{
		SubjectID:   req.SubjectID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Difficulty:  difficultyOr(req.Difficulty),
		IsActive:    boolOr(req.IsActive, true),
	}
	if err := s.questionRepo.CreateTopic(topic); err != nil {
		return nil, writeErr(err, "Topic", "create")
	}
	return topic, nil
}

func (s *QuestionService) UpdateTopic(id uuid.UUID, req model.TopicRequest) (*model.Topic, error) {
	topic, err := s.questionRepo.FindTopic(id)
	if err != nil {
		return nil, lookupErr(err, "Topic")
	}
	topic.SubjectID = req.SubjectID
	topic.Name = strings.TrimSpace(req.Name)
	topic.Description = req.Description
	topic.Difficulty = difficultyOr(req.Difficulty)
	topic.IsActive = boolOr(req.IsActive, topic.IsActive)
	topic.Subject = nil
	if err := s.questionRepo.UpdateTopic(topic); err != nil {
		return nil, writeErr(err, "Topic", "update")
	}
	return topic, nil
}

func (s *QuestionService) DeleteTopic(id uuid.UUID) error {
	if err := s.questionRepo.DeleteTopic(id); err != nil {
		return writeErr(err, "Topic", "delete")
	}
	return nil
}

func difficultyOr(d model.Difficulty) model.Difficulty {
	if d == "" {
		return model.DifficultyMedium
	}
	return d
}

// ==================== Questions ====================

func (s *QuestionService) ListQuestions(f model.QuestionFilter) (model.PageResponse[model.Question], error) {
	questions, count, err := s.questionRepo.ListQuestions(f)
	if err != nil {
		return model.PageResponse[model.Question]{}, err
	}
	return model.NewPage(questions, count, f.PageQuery), nil
}

func (s *QuestionService) GetQuestion(id uuid.UUID) (*model.Question, error) {
	question, err := s.questionRepo.FindQuestion(id)
	if err != nil {
		return nil, lookupErr(err, "Question")
	}
	return question, nil
}

func (s *QuestionService) CreateQuestion(adminID uuid.UUID, req model.QuestionRequest) (*model.Question, error) {
	if _, err := s.questionRepo.FindTopic(req.TopicID); err != nil {
		return nil, lookupErr(err, "Topic")
	}
	question := &model.Question{CreatedByID: &adminID, IsActive: true}
	applyQuestionRequest(question, req)
	question.Options = buildOptions(req.Options)
	if err := validateOptions(question.QuestionType, question.Options); err != nil {
		return nil, err
	}
	if err := s.questionRepo.CreateQuestion(question); err != nil {
		return nil, writeErr(err, "Question", "create")
	}
	return question, nil
}

// UpdateQuestion rewrites a question. A nil options list keeps the current
// options; any other list replaces them.
func (s *QuestionService) UpdateQuestion(id uuid.UUID, req model.QuestionRequest) (*model.Question, error) {
	question, err := s.questionRepo.FindQuestion(id)
	if err != nil {
		return nil, lookupErr(err, "Question")
	}
	if req.TopicID != question.TopicID {
		if _, err := s.questionRepo.FindTopic(req.TopicID); err != nil {
			return nil, lookupErr(err, "Topic")
		}
	}
	applyQuestionRequest(question, req)

	var options []model.QuestionOption
	if req.Options != nil {
		options = buildOptions(req.Options)
		if err := validateOptions(question.QuestionType, options); err != nil {
			return nil, err
		}
	} else if err := validateOptions(question.QuestionType, question.Options); err != nil {
		return nil, err
	}

	question.Topic = nil
	if err := s.questionRepo.ReplaceQuestion(question, options); err != nil {
		return nil, writeErr(err, "Question", "update")
	}
	return question, nil
}

func (s *QuestionService) DeleteQuestion(id uuid.UUID) error {
	if err := s.questionRepo.DeleteQuestion(id); err != nil {
		return writeErr(err, "Question", "delete")
	}
	return nil
}

func applyQuestionRequest(q *model.Question, req model.QuestionRequest) {
	q.TopicID = req.TopicID
	q.QuestionText = strings.TrimSpace(req.QuestionText)
	q.QuestionType = req.QuestionType
	if q.QuestionType == "" {
		q.QuestionType = model.QuestionTypeMCQ
	}
	q.Difficulty = difficultyOr(req.Difficulty)
	q.Marks = req.Marks
	if q.Marks == 0 {
		q.Marks = 1
	}
	q.Explanation = req.Explanation
}

func buildOptions(in []model.OptionInput) []model.QuestionOption {
	options := make([]model.QuestionOption, 0, len(in))
	for i, o := range in {
		order := o.Order
		if order == 0 {
			order = i + 1
		}
		options = append(options, model.QuestionOption{
			OptionText: strings.TrimSpace(o.OptionText),
			IsCorrect:  o.IsCorrect,
			Order:      order,
		})
	}
	return options
}

// validateOptions enforces exactly one correct option for choice questions
func validateOptions(t model.QuestionType, options []model.QuestionOption) error {
	if t == model.QuestionTypeNumerical {
		return nil
	}
	correct := 0
	orders := make(map[int]bool, len(options))
	for _, o := range options {
		if o.IsCorrect {
			correct++
		}
		if orders[o.Order] {
			return &ValidationError{Field: "options", Message: "Option order values must be unique"}
		}
		orders[o.Order] = true
	}
	if len(options) < 2 {
		return &ValidationError{Field: "options", Message: "At least two options are required"}
	}
	if correct != 1 {
		return ErrCorrectOption
	}
	return nil
}

// Practice samples a set of active questions from a subject, answer key removed
func (s *QuestionService) Practice(subjectID uuid.UUID) ([]model.PublicQuestion, error) {
	if _, err := s.questionRepo.FindSubject(subjectID); err != nil {
		return nil, lookupErr(err, "Subject")
	}
	questions, err := s.questionRepo.RandomQuestions(subjectID, practiceSetSize)
	if err != nil {
		return nil, errors.Wrap(err, "sample practice questions")
	}
	out := make([]model.PublicQuestion, 0, len(questions))
	for i := range questions {
		out = append(out, questions[i].ToPublic())
	}
	return out, nil
}

// ==================== Bookmarks ====================

// ToggleBookmark removes an existing bookmark or creates one. The bool result
// reports whether a bookmark was created.
func (s *QuestionService) ToggleBookmark(userID, questionID uuid.UUID, notes string) (*model.BookmarkToggleResponse, bool, error) {
	if _, err := s.questionRepo.FindQuestion(questionID); err != nil {
		return nil, false, lookupErr(err, "Question")
	}

	_, err := s.questionRepo.FindBookmark(userID, questionID)
	switch {
	case err == nil:
		if err := s.questionRepo.DeleteBookmark(userID, questionID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, errors.Wrap(err, "delete bookmark")
		}
		return &model.BookmarkToggleResponse{
			Bookmarked: false,
			QuestionID: questionID,
			Message:    "Bookmark removed",
		}, false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, errors.Wrap(err, "find bookmark")
	}

	bookmark := &model.BookmarkedQuestion{UserID: userID, QuestionID: questionID, Notes: notes}
	if err := s.questionRepo.CreateBookmark(bookmark); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, false, ErrAlreadyBookmarked
		}
		return nil, false, errors.Wrap(err, "create bookmark")
	}
	return &model.BookmarkToggleResponse{
		Bookmarked: true,
		QuestionID: questionID,
		Message:    "Question bookmarked",
	}, true, nil
}

func (s *QuestionService) ListBookmarks(userID uuid.UUID) ([]model.BookmarkedQuestion, error) {
	return s.questionRepo.ListBookmarks(userID)
}

// ==================== Import ====================

// ImportMCQs parses numbered MCQ text and creates each new question under the
// topic. Blocks that fail to parse or already exist are counted as skipped.
func (s *QuestionService) ImportMCQs(adminID uuid.UUID, req model.ImportQuestionsRequest) (*model.ImportQuestionsResponse, error) {
	if _, err := s.questionRepo.FindTopic(req.TopicID); err != nil {
		return nil, lookupErr(err, "Topic")
	}
	parsed, malformed := ParseMCQs(req.Text)
	if len(parsed) == 0 && len(malformed) == 0 {
		return nil, ErrInvalidImportInput
	}

	resp := &model.ImportQuestionsResponse{Skipped: len(malformed), Errors: malformed}
	for _, pq := range parsed {
		exists, err := s.questionRepo.QuestionExists(req.TopicID, pq.Text)
		if err != nil {
			return nil, errors.Wrap(err, "check duplicate question")
		}
		if exists {
			resp.Skipped++
			resp.Errors = append(resp.Errors, "Skipped: '"+truncate(pq.Text, 40)+"' (already exists)")
			continue
		}

		question := &model.Question{
			TopicID:      req.TopicID,
			QuestionText: pq.Text,
			QuestionType: model.QuestionTypeMCQ,
			Difficulty:   difficultyOr(req.Difficulty),
			Marks:        1,
			IsActive:     true,
			CreatedByID:  &adminID,
		}
		for i, o := range pq.Options {
			question.Options = append(question.Options, model.QuestionOption{
				OptionText: o.Text,
				IsCorrect:  o.Letter == pq.Answer,
				Order:      i + 1,
			})
		}
		if err := s.questionRepo.CreateQuestion(question); err != nil {
			return nil, errors.Wrap(err, "create imported question")
		}
		resp.Created++
	}

	log.Info().
		Int("created", resp.Created).
		Int("skipped", resp.Skipped).
		Str("topic_id", req.TopicID.String()).
		Msg("📥 MCQ import finished")
	return resp, nil
}
