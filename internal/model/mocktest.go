package model

import (
	"time"

	"github.com/google/uuid"
)

type TestType string

const (
	TestTypeIOE    TestType = "IOE"
	TestTypeKU     TestType = "KU"
	TestTypePU     TestType = "PU"
	TestTypePoU    TestType = "PoU"
	TestTypeCustom TestType = "custom"
)

// AttemptStatus is the lifecycle state of a mock test sitting
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// MockTest is an ordered set of questions with a scoring rule
type MockTest struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string     `json:"name" gorm:"size:200;not null"`
	Description     string     `json:"description" gorm:"type:text;default:''"`
	TestType        TestType   `json:"test_type" gorm:"size:10;not null;default:'custom'"`
	DurationMinutes int        `json:"duration_minutes" gorm:"not null;default:120"`
	TotalQuestions  int        `json:"total_questions" gorm:"not null;default:100"`
	PassingScore    int        `json:"passing_score" gorm:"not null;default:40"`
	IsFree          bool       `json:"is_free" gorm:"not null;default:false"`
	Price           float64    `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	IsActive        bool       `json:"is_active" gorm:"not null"`
	CreatedByID     *uuid.UUID `json:"created_by" gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Questions []MockTestQuestion `json:"questions,omitempty" gorm:"foreignKey:MockTestID"`
}

// MockTestQuestion places a question in a test at a given order
type MockTestQuestion struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MockTestID uuid.UUID `json:"mock_test_id" gorm:"type:uuid;not null;uniqueIndex:idx_mtq_test_question;uniqueIndex:idx_mtq_test_order"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_mtq_test_question"`
	Order      int       `json:"order" gorm:"column:order;not null;uniqueIndex:idx_mtq_test_order"`
	Marks      int       `json:"marks" gorm:"not null;default:1"`

	Question *Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
}

// MockTestAttempt is one user's sitting of a mock test
type MockTestAttempt struct {
	ID                 uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID             uuid.UUID     `json:"user_id" gorm:"type:uuid;not null;index"`
	MockTestID         uuid.UUID     `json:"mock_test_id" gorm:"type:uuid;not null;index"`
	StartedAt          time.Time     `json:"started_at" gorm:"not null"`
	CompletedAt        *time.Time    `json:"completed_at"`
	Status             AttemptStatus `json:"status" gorm:"size:20;not null;default:'in_progress'"`
	Score              *float64      `json:"score"`
	TotalMarks         *int          `json:"total_marks"`
	AccuracyPercentage *float64      `json:"accuracy_percentage"`
	TimeTakenMinutes   *int          `json:"time_taken_minutes"`

	MockTest *MockTest        `json:"mock_test,omitempty" gorm:"foreignKey:MockTestID"`
	Answers  []QuestionAttempt `json:"answers,omitempty" gorm:"foreignKey:AttemptID"`
}

func (a *MockTestAttempt) IsInProgress() bool {
	return a.Status == AttemptInProgress
}

// QuestionAttempt is the recorded answer to one question within an attempt
type QuestionAttempt struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AttemptID         uuid.UUID  `json:"attempt_id" gorm:"type:uuid;not null;uniqueIndex:idx_qa_attempt_question"`
	QuestionID        uuid.UUID  `json:"question_id" gorm:"type:uuid;not null;uniqueIndex:idx_qa_attempt_question"`
	SelectedOptionID  *uuid.UUID `json:"selected_option_id" gorm:"type:uuid"`
	IsCorrect         bool       `json:"is_correct" gorm:"not null;default:false"`
	TimeTakenSeconds  int        `json:"time_taken_seconds" gorm:"not null;default:0"`
	IsMarkedForReview bool       `json:"is_marked_for_review" gorm:"not null;default:false"`
	AnsweredAt        time.Time  `json:"answered_at"`
}

// AttemptScore is the outcome of scoring a completed attempt
type AttemptScore struct {
	Correct    int
	Answered   int
	Total      int
	Score      float64
	Accuracy   float64
	TotalMarks int
}

// ScoreAttempt computes score = correct/total*100 over the test's questions
// and accuracy = correct/answered*100 over the answers actually given.
// marks maps question IDs in the test to their marks.
func ScoreAttempt(answers []QuestionAttempt, marks map[uuid.UUID]int) AttemptScore {
	res := AttemptScore{Total: len(marks)}
	for _, a := range answers {
		m, inTest := marks[a.QuestionID]
		if !inTest {
			continue
		}
		if a.SelectedOptionID != nil {
			res.Answered++
		}
		if a.IsCorrect {
			res.Correct++
			res.TotalMarks += m
		}
	}
	if res.Total > 0 {
		res.Score = float64(res.Correct) / float64(res.Total) * 100
	}
	if res.Answered > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Answered) * 100
	}
	return res
}

// ========== Mock test DTOs ==========

type MockTestFilter struct {
	TestType string `form:"test_type" binding:"omitempty,oneof=IOE KU PU PoU custom"`
	IsFree   *bool  `form:"is_free"`
	Search   string `form:"search"`
}

type MockTestRequest struct {
	Name            string   `json:"name" binding:"required,max=200"`
	Description     string   `json:"description"`
	TestType        TestType `json:"test_type" binding:"required,oneof=IOE KU PU PoU custom"`
	DurationMinutes int      `json:"duration_minutes" binding:"required,min=15,max=300"`
	TotalQuestions  int      `json:"total_questions" binding:"required,min=1,max=200"`
	PassingScore    int      `json:"passing_score" binding:"min=0,max=100"`
	IsFree          bool     `json:"is_free"`
	Price           float64  `json:"price" binding:"min=0"`
	IsActive        *bool    `json:"is_active"`
}

type AddTestQuestionRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Order      int       `json:"order" binding:"min=0"`
	Marks      int       `json:"marks" binding:"omitempty,min=1,max=10"`
}

type AnswerRequest struct {
	QuestionID        uuid.UUID  `json:"question_id" binding:"required"`
	SelectedOptionID  *uuid.UUID `json:"selected_option_id"`
	TimeTakenSeconds  int        `json:"time_taken_seconds" binding:"min=0"`
	IsMarkedForReview bool       `json:"is_marked_for_review"`
}

type StartAttemptResponse struct {
	Message   string           `json:"message"`
	AttemptID uuid.UUID        `json:"attempt_id"`
	Attempt   *MockTestAttempt `json:"attempt"`
	Questions []PublicQuestion `json:"questions"`
}

type SubmitAttemptResponse struct {
	Message          string    `json:"message"`
	AttemptID        uuid.UUID `json:"attempt_id"`
	Score            float64   `json:"score"`
	TotalQuestions   int       `json:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers"`
	AnsweredCount    int       `json:"answered_count"`
	Accuracy         float64   `json:"accuracy_percentage"`
	TotalMarks       int       `json:"total_marks"`
	TimeTakenMinutes int       `json:"time_taken_minutes"`
	Passed           bool      `json:"passed"`
}
