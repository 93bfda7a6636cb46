package repository

import (
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuestionRepository handles the question bank: subjects, topics, questions,
// their options and user bookmarks
type QuestionRepository interface {
	ListSubjects() ([]model.Subject, error)
	FindSubject(id uuid.UUID) (*model.Subject, error)
	CreateSubject(subject *model.Subject) error
	UpdateSubject(subject *model.Subject) error
	DeleteSubject(id uuid.UUID) error

	ListTopics(subjectID *uuid.UUID) ([]model.Topic, error)
	FindTopic(id uuid.UUID) (*model.Topic, error)
	CreateTopic(topic *model.Topic) error
	UpdateTopic(topic *model.Topic) error
	DeleteTopic(id uuid.UUID) error

	ListQuestions(f model.QuestionFilter) ([]model.Question, int64, error)
	FindQuestion(id uuid.UUID) (*model.Question, error)
	FindQuestionsByIDs(ids []uuid.UUID) ([]model.Question, error)
	CreateQuestion(question *model.Question) error
	ReplaceQuestion(question *model.Question, options []model.QuestionOption) error
	DeleteQuestion(id uuid.UUID) error
	QuestionExists(topicID uuid.UUID, text string) (bool, error)
	RandomQuestions(subjectID uuid.UUID, limit int) ([]model.Question, error)

	FindBookmark(userID, questionID uuid.UUID) (*model.BookmarkedQuestion, error)
	CreateBookmark(bookmark *model.BookmarkedQuestion) error
	DeleteBookmark(userID, questionID uuid.UUID) error
	ListBookmarks(userID uuid.UUID) ([]model.BookmarkedQuestion, error)
}

type questionRepository struct {
	db *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func preloadOptions(db *gorm.DB) *gorm.DB {
	return db.Order(`"order" ASC`)
}

// ListSubjects returns active subjects with their active topics
func (r *questionRepository) ListSubjects() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.db.
		Preload("Topics", "is_active = ?", true).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&subjects).Error
	return subjects, err
}

func (r *questionRepository) FindSubject(id uuid.UUID) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.Preload("Topics", "is_active = ?", true).Where("id = ?", id).First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *questionRepository) CreateSubject(subject *model.Subject) error {
	return r.db.Omit(clause.Associations).Create(subject).Error
}

func (r *questionRepository) UpdateSubject(subject *model.Subject) error {
	return r.db.Omit(clause.Associations).Save(subject).Error
}

func (r *questionRepository) DeleteSubject(id uuid.UUID) error {
	return deleteByID[model.Subject](r.db, id)
}

func (r *questionRepository) ListTopics(subjectID *uuid.UUID) ([]model.Topic, error) {
	query := r.db.Preload("Subject").Where("is_active = ?", true)
	if subjectID != nil {
		query = query.Where("subject_id = ?", *subjectID)
	}
	var topics []model.Topic
	err := query.Order("name ASC").Find(&topics).Error
	return topics, err
}

func (r *questionRepository) FindTopic(id uuid.UUID) (*model.Topic, error) {
	var topic model.Topic
	err := r.db.Preload("Subject").Where("id = ?", id).First(&topic).Error
	if err != nil {
		return nil, err
	}
	return &topic, nil
}

func (r *questionRepository) CreateTopic(topic *model.Topic) error {
	return r.db.Omit(clause.Associations).Create(topic).Error
}

func (r *questionRepository) UpdateTopic(topic *model.Topic) error {
	return r.db.Omit(clause.Associations).Save(topic).Error
}

func (r *questionRepository) DeleteTopic(id uuid.UUID) error {
	return deleteByID[model.Topic](r.db, id)
}

// ListQuestions returns one page of active questions matching the filter
func (r *questionRepository) ListQuestions(f model.QuestionFilter) ([]model.Question, int64, error) {
	query := r.db.Model(&model.Question{}).Where("questions.is_active = ?", true)
	if f.TopicID != nil {
		query = query.Where("questions.topic_id = ?", *f.TopicID)
	}
	if f.SubjectID != nil {
		query = query.Joins("JOIN topics ON topics.id = questions.topic_id").
			Where("topics.subject_id = ?", *f.SubjectID)
	}
	if f.Difficulty != "" {
		query = query.Where("questions.difficulty = ?", f.Difficulty)
	}
	if f.Type != "" {
		query = query.Where("questions.question_type = ?", f.Type)
	}
	if f.Search != "" {
		query = query.Where("questions.question_text ILIKE ?", "%"+f.Search+"%")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	page := f.PageQuery.Normalize()
	var questions []model.Question
	err := query.
		Preload("Topic.Subject").
		Preload("Options", preloadOptions).
		Order("questions.created_at DESC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&questions).Error
	return questions, count, err
}

// FindQuestion loads a question with its options in display order
func (r *questionRepository) FindQuestion(id uuid.UUID) (*model.Question, error) {
	var question model.Question
	err := r.db.
		Preload("Topic.Subject").
		Preload("Options", preloadOptions).
		Where("id = ?", id).
		First(&question).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *questionRepository) FindQuestionsByIDs(ids []uuid.UUID) ([]model.Question, error) {
	var questions []model.Question
	if len(ids) == 0 {
		return questions, nil
	}
	err := r.db.
		Preload("Options", preloadOptions).
		Where("id IN ?", ids).
		Find(&questions).Error
	return questions, err
}

// CreateQuestion inserts a question together with its options
func (r *questionRepository) CreateQuestion(question *model.Question) error {
	return r.db.Omit("Topic").Create(question).Error
}

// ReplaceQuestion saves the question row and swaps its option set in one transaction
func (r *questionRepository) ReplaceQuestion(question *model.Question, options []model.QuestionOption) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(question).Error; err != nil {
			return err
		}
		if options == nil {
			return nil
		}
		if err := tx.Where("question_id = ?", question.ID).Delete(&model.QuestionOption{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].QuestionID = question.ID
		}
		if len(options) > 0 {
			if err := tx.Create(&options).Error; err != nil {
				return err
			}
		}
		question.Options = options
		return nil
	})
}

func (r *questionRepository) DeleteQuestion(id uuid.UUID) error {
	return deleteByID[model.Question](r.db, id)
}

// QuestionExists reports an identical question text under the same topic
func (r *questionRepository) QuestionExists(topicID uuid.UUID, text string) (bool, error) {
	var count int64
	err := r.db.Model(&model.Question{}).
		Where("topic_id = ? AND question_text = ?", topicID, text).
		Count(&count).Error
	return count > 0, err
}

// RandomQuestions samples active questions of a subject
func (r *questionRepository) RandomQuestions(subjectID uuid.UUID, limit int) ([]model.Question, error) {
	var questions []model.Question
	err := r.db.
		Joins("JOIN topics ON topics.id = questions.topic_id").
		Where("topics.subject_id = ? AND questions.is_active = ?", subjectID, true).
		Preload("Options", preloadOptions).
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) FindBookmark(userID, questionID uuid.UUID) (*model.BookmarkedQuestion, error) {
	var bookmark model.BookmarkedQuestion
	err := r.db.Where("user_id = ? AND question_id = ?", userID, questionID).First(&bookmark).Error
	if err != nil {
		return nil, err
	}
	return &bookmark, nil
}

func (r *questionRepository) CreateBookmark(bookmark *model.BookmarkedQuestion) error {
	return r.db.Omit(clause.Associations).Create(bookmark).Error
}

func (r *questionRepository) DeleteBookmark(userID, questionID uuid.UUID) error {
	res := r.db.Where("user_id = ? AND question_id = ?", userID, questionID).Delete(&model.BookmarkedQuestion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *questionRepository) ListBookmarks(userID uuid.UUID) ([]model.BookmarkedQuestion, error) {
	var bookmarks []model.BookmarkedQuestion
	err := r.db.
		Preload("Question.Topic.Subject").
		Preload("Question.Options", preloadOptions).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	return bookmarks, err
}
