package model

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type QuestionType string

const (
	QuestionTypeMCQ       QuestionType = "mcq"
	QuestionTypeTrueFalse QuestionType = "true_false"
	QuestionTypeNumerical QuestionType = "numerical"
)

// Subject is the top level of the question taxonomy (Physics, Mathematics, ...)
type Subject struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `json:"name" gorm:"size:100;uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text;default:''"`
	Icon        string    `json:"icon" gorm:"size:50;default:''"`
	IsActive    bool      `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Topics []Topic `json:"topics,omitempty" gorm:"foreignKey:SubjectID"`
}

// Topic groups questions within a subject
type Topic struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SubjectID   uuid.UUID  `json:"subject_id" gorm:"type:uuid;not null;uniqueIndex:idx_topic_subject_name"`
	Name        string     `json:"name" gorm:"size:200;not null;uniqueIndex:idx_topic_subject_name"`
	Description string     `json:"description" gorm:"type:text;default:''"`
	Difficulty  Difficulty `json:"difficulty_level" gorm:"column:difficulty_level;size:10;not null;default:'medium'"`
	IsActive    bool       `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Subject *Subject `json:"subject,omitempty" gorm:"foreignKey:SubjectID"`
}

// Question is a single bank item
type Question struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TopicID      uuid.UUID    `json:"topic_id" gorm:"type:uuid;not null;index"`
	QuestionText string       `json:"question_text" gorm:"type:text;not null"`
	QuestionType QuestionType `json:"question_type" gorm:"size:20;not null;default:'mcq'"`
	Difficulty   Difficulty   `json:"difficulty" gorm:"size:10;not null;default:'medium'"`
	Marks        int          `json:"marks" gorm:"not null;default:1"`
	Explanation  string       `json:"explanation" gorm:"type:text;default:''"`
	IsActive     bool         `json:"is_active" gorm:"not null"`
	CreatedByID  *uuid.UUID   `json:"created_by" gorm:"column:created_by;type:uuid"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	Topic   *Topic           `json:"topic,omitempty" gorm:"foreignKey:TopicID"`
	Options []QuestionOption `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}

// CorrectOption returns the first option flagged correct, or nil
func (q *Question) CorrectOption() *QuestionOption {
	for i := range q.Options {
		if q.Options[i].IsCorrect {
			return &q.Options[i]
		}
	}
	return nil
}

// HasOption reports whether optionID belongs to the question
func (q *Question) HasOption(optionID uuid.UUID) (*QuestionOption, bool) {
	for i := range q.Options {
		if q.Options[i].ID == optionID {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// QuestionOption is one answer choice
type QuestionOption struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_option_question_order"`
	OptionText string    `json:"option_text" gorm:"size:500;not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"not null;default:false"`
	Order      int       `json:"order" gorm:"column:order;not null;default:0;uniqueIndex:idx_option_question_order"`
}

// BookmarkedQuestion is a user's saved question
type BookmarkedQuestion struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_question"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_bookmark_user_question"`
	Notes      string    `json:"notes" gorm:"type:text;default:''"`
	CreatedAt  time.Time `json:"created_at"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// ========== Question DTOs ==========

type QuestionFilter struct {
	SubjectID  *uuid.UUID `form:"-"`
	TopicID    *uuid.UUID `form:"-"`
	Difficulty string     `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Type       string     `form:"type" binding:"omitempty,oneof=mcq true_false numerical"`
	Search     string     `form:"search"`
	PageQuery
}

type SubjectRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Icon        string `json:"icon" binding:"max=50"`
	IsActive    *bool  `json:"is_active"`
}

type TopicRequest struct {
	SubjectID   uuid.UUID  `json:"subject_id" binding:"required"`
	Name        string     `json:"name" binding:"required,max=200"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty_level" binding:"omitempty,oneof=easy medium hard"`
	IsActive    *bool      `json:"is_active"`
}

type OptionInput struct {
	OptionText string `json:"option_text" binding:"required,max=500"`
	IsCorrect  bool   `json:"is_correct"`
	Order      int    `json:"order"`
}

type QuestionRequest struct {
	TopicID      uuid.UUID     `json:"topic_id" binding:"required"`
	QuestionText string        `json:"question_text" binding:"required"`
	QuestionType QuestionType  `json:"question_type" binding:"omitempty,oneof=mcq true_false numerical"`
	Difficulty   Difficulty    `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Marks        int           `json:"marks" binding:"omitempty,min=1,max=10"`
	Explanation  string        `json:"explanation"`
	Options      []OptionInput `json:"options" binding:"dive"`
}

// PublicOption hides the correctness flag from test takers
type PublicOption struct {
	ID         uuid.UUID `json:"id"`
	OptionText string    `json:"option_text"`
	Order      int       `json:"order"`
}

// PublicQuestion is a question without its answer key
type PublicQuestion struct {
	ID           uuid.UUID      `json:"id"`
	TopicID      uuid.UUID      `json:"topic_id"`
	QuestionText string         `json:"question_text"`
	QuestionType QuestionType   `json:"question_type"`
	Difficulty   Difficulty     `json:"difficulty"`
	Marks        int            `json:"marks"`
	Order        int            `json:"order,omitempty"`
	Options      []PublicOption `json:"options"`
}

// ToPublic strips correctness flags and explanation
func (q *Question) ToPublic() PublicQuestion {
	opts := make([]PublicOption, 0, len(q.Options))
	for _, o := range q.Options {
		opts = append(opts, PublicOption{ID: o.ID, OptionText: o.OptionText, Order: o.Order})
	}
	return PublicQuestion{
		ID:           q.ID,
		TopicID:      q.TopicID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		Difficulty:   q.Difficulty,
		Marks:        q.Marks,
		Options:      opts,
	}
}

type BookmarkRequest struct {
	Notes string `json:"notes"`
}

type BookmarkToggleResponse struct {
	Bookmarked bool      `json:"bookmarked"`
	QuestionID uuid.UUID `json:"question_id"`
	Message    string    `json:"message"`
}

type ImportQuestionsRequest struct {
	TopicID    uuid.UUID  `json:"topic_id" binding:"required"`
	Difficulty Difficulty `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Text       string     `json:"text" binding:"required"`
}

type ImportQuestionsResponse struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
