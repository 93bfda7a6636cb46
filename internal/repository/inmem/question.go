package inmem

import (
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"gorm.io/gorm"
)

type questionRepository struct {
	db *DB
}

func NewQuestionRepository(db *DB) repository.QuestionRepository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) ListSubjects() ([]model.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Subject
	for _, s := range repo.db.subjects {
		if s.IsActive {
			cp := *s
			cp.Topics = repo.db.topicsOf(s.ID)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (db *DB) topicsOf(subjectID uuid.UUID) []model.Topic {
	var out []model.Topic
	for _, t := range db.topics {
		if t.SubjectID == subjectID && t.IsActive {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (repo *questionRepository) FindSubject(id uuid.UUID) (*model.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	s, ok := repo.db.subjects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	cp.Topics = repo.db.topicsOf(id)
	return &cp, nil
}

func (repo *questionRepository) CreateSubject(subject *model.Subject) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, s := range repo.db.subjects {
		if s.Name == subject.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&subject.ID)
	subject.CreatedAt, subject.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *subject
	cp.Topics = nil
	repo.db.subjects[subject.ID] = &cp
	return nil
}

func (repo *questionRepository) UpdateSubject(subject *model.Subject) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	subject.UpdatedAt = repo.db.now()
	cp := *subject
	cp.Topics = nil
	repo.db.subjects[subject.ID] = &cp
	return nil
}

func (repo *questionRepository) DeleteSubject(id uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.subjects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(repo.db.subjects, id)
	return nil
}

func (repo *questionRepository) ListTopics(subjectID *uuid.UUID) ([]model.Topic, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Topic
	for _, t := range repo.db.topics {
		if !t.IsActive || (subjectID != nil && t.SubjectID != *subjectID) {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (repo *questionRepository) FindTopic(id uuid.UUID) (*model.Topic, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	t, ok := repo.db.topics[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	if s, ok := repo.db.subjects[t.SubjectID]; ok {
		sc := *s
		cp.Subject = &sc
	}
	return &cp, nil
}

func (repo *questionRepository) CreateTopic(topic *model.Topic) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, t := range repo.db.topics {
		if t.SubjectID == topic.SubjectID && t.Name == topic.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&topic.ID)
	topic.CreatedAt, topic.UpdatedAt = repo.db.now(), repo.db.now()
	cp := *topic
	cp.Subject = nil
	repo.db.topics[topic.ID] = &cp
	return nil
}

func (repo *questionRepository) UpdateTopic(topic *model.Topic) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	topic.UpdatedAt = repo.db.now()
	cp := *topic
	cp.Subject = nil
	repo.db.topics[topic.ID] = &cp
	return nil
}

func (repo *questionRepository) DeleteTopic(id uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.topics[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(repo.db.topics, id)
	return nil
}

func (db *DB) questionCopy(q *model.Question) model.Question {
	cp := *q
	cp.Options = append([]model.QuestionOption(nil), q.Options...)
	sort.Slice(cp.Options, func(i, j int) bool { return cp.Options[i].Order < cp.Options[j].Order })
	return cp
}

func (repo *questionRepository) ListQuestions(f model.QuestionFilter) ([]model.Question, int64, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var matched []model.Question
	for _, q := range repo.db.questions {
		if !q.IsActive {
			continue
		}
		if f.TopicID != nil && q.TopicID != *f.TopicID {
			continue
		}
		if f.SubjectID != nil {
			t, ok := repo.db.topics[q.TopicID]
			if !ok || t.SubjectID != *f.SubjectID {
				continue
			}
		}
		if f.Difficulty != "" && string(q.Difficulty) != f.Difficulty {
			continue
		}
		if f.Type != "" && string(q.QuestionType) != f.Type {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(q.QuestionText), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, repo.db.questionCopy(q))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	page := f.PageQuery.Normalize()
	count := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], count, nil
}

func (repo *questionRepository) FindQuestion(id uuid.UUID) (*model.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	q, ok := repo.db.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := repo.db.questionCopy(q)
	return &cp, nil
}

func (repo *questionRepository) FindQuestionsByIDs(ids []uuid.UUID) ([]model.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Question
	for _, id := range ids {
		if q, ok := repo.db.questions[id]; ok {
			out = append(out, repo.db.questionCopy(q))
		}
	}
	return out, nil
}

func (repo *questionRepository) CreateQuestion(question *model.Question) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ensureID(&question.ID)
	now := repo.db.now()
	question.CreatedAt, question.UpdatedAt = now, now
	for i := range question.Options {
		ensureID(&question.Options[i].ID)
		question.Options[i].QuestionID = question.ID
	}
	cp := repo.db.questionCopy(question)
	cp.Topic = nil
	repo.db.questions[question.ID] = &cp
	return nil
}

func (repo *questionRepository) ReplaceQuestion(question *model.Question, options []model.QuestionOption) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	old, ok := repo.db.questions[question.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if options == nil {
		options = old.Options
	}
	for i := range options {
		ensureID(&options[i].ID)
		options[i].QuestionID = question.ID
	}
	question.Options = options
	question.UpdatedAt = repo.db.now()
	cp := repo.db.questionCopy(question)
	cp.Topic = nil
	repo.db.questions[question.ID] = &cp
	return nil
}

func (repo *questionRepository) DeleteQuestion(id uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(repo.db.questions, id)
	return nil
}

func (repo *questionRepository) QuestionExists(topicID uuid.UUID, text string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, q := range repo.db.questions {
		if q.TopicID == topicID && q.QuestionText == text {
			return true, nil
		}
	}
	return false, nil
}

// RandomQuestions relies on map iteration order for shuffling
func (repo *questionRepository) RandomQuestions(subjectID uuid.UUID, limit int) ([]model.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.Question
	for _, q := range repo.db.questions {
		if len(out) >= limit {
			break
		}
		t, ok := repo.db.topics[q.TopicID]
		if !q.IsActive || !ok || t.SubjectID != subjectID {
			continue
		}
		out = append(out, repo.db.questionCopy(q))
	}
	return out, nil
}

func (repo *questionRepository) FindBookmark(userID, questionID uuid.UUID) (*model.BookmarkedQuestion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, b := range repo.db.bookmarks {
		if b.UserID == userID && b.QuestionID == questionID {
			cp := b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (repo *questionRepository) CreateBookmark(bookmark *model.BookmarkedQuestion) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, b := range repo.db.bookmarks {
		if b.UserID == bookmark.UserID && b.QuestionID == bookmark.QuestionID {
			return gorm.ErrDuplicatedKey
		}
	}
	ensureID(&bookmark.ID)
	bookmark.CreatedAt = repo.db.now()
	cp := *bookmark
	cp.Question = nil
	repo.db.bookmarks = append(repo.db.bookmarks, cp)
	return nil
}

func (repo *questionRepository) DeleteBookmark(userID, questionID uuid.UUID) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for i, b := range repo.db.bookmarks {
		if b.UserID == userID && b.QuestionID == questionID {
			repo.db.bookmarks = append(repo.db.bookmarks[:i], repo.db.bookmarks[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (repo *questionRepository) ListBookmarks(userID uuid.UUID) ([]model.BookmarkedQuestion, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var out []model.BookmarkedQuestion
	for _, b := range repo.db.bookmarks {
		if b.UserID != userID {
			continue
		}
		cp := b
		if q, ok := repo.db.questions[b.QuestionID]; ok {
			qc := repo.db.questionCopy(q)
			cp.Question = &qc
		}
		out = append(out, cp)
	}
	return out, nil
}
