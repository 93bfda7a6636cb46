package model

import (
	"time"

	"github.com/google/uuid"
)

// UniversityCode identifies the university a college is affiliated with
type UniversityCode string

const (
	UniversityTU  UniversityCode = "TU"
	UniversityPU  UniversityCode = "PU"
	UniversityKU  UniversityCode = "KU"
	UniversityPoU UniversityCode = "PoU"
	UniversityMU  UniversityCode = "MU"
	UniversityFU  UniversityCode = "FU"
	UniversityLU  UniversityCode = "LU"
)

type ProgramType string

const (
	ProgramBE    ProgramType = "BE"
	ProgramBArch ProgramType = "BArch"
	ProgramBTech ProgramType = "BTech"
)

// College is an engineering college
type College struct {
	ID              uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name            string         `json:"name" gorm:"size:200;not null"`
	Code            string         `json:"code" gorm:"size:20;uniqueIndex;not null"`
	University      UniversityCode `json:"university" gorm:"size:10;not null;index"`
	Location        string         `json:"location" gorm:"size:200;not null"`
	EstablishedYear *int           `json:"established_year"`
	Website         string         `json:"website" gorm:"size:255;default:''"`
	Logo            string         `json:"logo" gorm:"size:500;default:''"`
	Description     string         `json:"description" gorm:"type:text;default:''"`
	IsActive        bool           `json:"is_active" gorm:"not null"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Programs []EngineeringProgram `json:"programs,omitempty" gorm:"foreignKey:CollegeID"`
}

// EngineeringProgram is a degree program offered by a college
type EngineeringProgram struct {
	ID             uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CollegeID      uuid.UUID   `json:"college_id" gorm:"type:uuid;not null;index"`
	Name           string      `json:"name" gorm:"size:200;not null"`
	ProgramType    ProgramType `json:"program_type" gorm:"size:10;not null"`
	DurationYears  int         `json:"duration_years" gorm:"not null;default:4"`
	TotalSeats     int         `json:"total_seats" gorm:"not null;default:0"`
	AvailableSeats int         `json:"available_seats" gorm:"not null;default:0"`
	FeeStructure   string      `json:"fee_structure" gorm:"type:text;default:''"`
	Description    string      `json:"description" gorm:"type:text;default:''"`
	IsActive       bool        `json:"is_active" gorm:"not null"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	College *College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

// EntranceExam is a scheduled entrance examination
type EntranceExam struct {
	ID                   uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name                 string     `json:"name" gorm:"size:200;not null"`
	ExamType             string     `json:"exam_type" gorm:"size:10;not null;index"`
	CollegeID            *uuid.UUID `json:"college_id" gorm:"type:uuid"`
	ExamDate             *time.Time `json:"exam_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	TotalQuestions       int        `json:"total_questions" gorm:"not null;default:100"`
	DurationMinutes      int        `json:"duration_minutes" gorm:"not null;default:120"`
	PassingScore         int        `json:"passing_score" gorm:"not null;default:40"`
	FeeAmount            float64    `json:"fee_amount" gorm:"type:numeric(10,2);not null;default:0"`
	Description          string     `json:"description" gorm:"type:text;default:''"`
	IsActive             bool       `json:"is_active" gorm:"not null"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`

	College *College `json:"college,omitempty" gorm:"foreignKey:CollegeID"`
}

// CollegeFilter narrows college listings
type CollegeFilter struct {
	University string `form:"university"`
	Location   string `form:"location"`
	Search     string `form:"search"`
	PageQuery
}

type ProgramFilter struct {
	CollegeID   *uuid.UUID `form:"-"`
	ProgramType string     `form:"program_type"`
}

type ExamFilter struct {
	ExamType string `form:"exam_type"`
	Upcoming bool   `form:"upcoming"`
}

type CollegeRequest struct {
	Name            string         `json:"name" binding:"required,max=200"`
	Code            string         `json:"code" binding:"required,max=20"`
	University      UniversityCode `json:"university" binding:"required,oneof=TU PU KU PoU MU FU LU"`
	Location        string         `json:"location" binding:"required,max=200"`
	EstablishedYear *int           `json:"established_year" binding:"omitempty,min=1800,max=2100"`
	Website         string         `json:"website" binding:"omitempty,url"`
	Logo            string         `json:"logo" binding:"omitempty,url"`
	Description     string         `json:"description"`
	IsActive        *bool          `json:"is_active"`
}

type ProgramRequest struct {
	CollegeID      uuid.UUID   `json:"college_id" binding:"required"`
	Name           string      `json:"name" binding:"required,max=200"`
	ProgramType    ProgramType `json:"program_type" binding:"required,oneof=BE BArch BTech"`
	DurationYears  int         `json:"duration_years" binding:"omitempty,min=1,max=6"`
	TotalSeats     int         `json:"total_seats" binding:"min=0"`
	AvailableSeats int         `json:"available_seats" binding:"min=0,ltefield=TotalSeats"`
	FeeStructure   string      `json:"fee_structure"`
	Description    string      `json:"description"`
}

type ExamRequest struct {
	Name                 string     `json:"name" binding:"required,max=200"`
	ExamType             string     `json:"exam_type" binding:"required,oneof=IOE KU PU PoU"`
	CollegeID            *uuid.UUID `json:"college_id"`
	ExamDate             *time.Time `json:"exam_date"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	TotalQuestions       int        `json:"total_questions" binding:"omitempty,min=1"`
	DurationMinutes      int        `json:"duration_minutes" binding:"omitempty,min=1"`
	PassingScore         int        `json:"passing_score" binding:"omitempty,min=0,max=100"`
	FeeAmount            float64    `json:"fee_amount" binding:"min=0"`
	Description          string     `json:"description"`
}
