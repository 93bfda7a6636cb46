package model

import (
	"time"

	"github.com/google/uuid"
)

type UniversityLevel string

const (
	LevelBachelors UniversityLevel = "bachelors"
	LevelMasters   UniversityLevel = "masters"
)

type CategoryType string

const (
	CategoryEntrance CategoryType = "entrance"
	CategoryNotes    CategoryType = "notes"
)

// University groups resource categories by awarding body
type University struct {
	ID        uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string          `json:"name" gorm:"size:255;not null"`
	Level     UniversityLevel `json:"level" gorm:"size:20;not null;default:'bachelors'"`
	IsActive  bool            `json:"is_active" gorm:"not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// ResourceCategory is a shelf of study material (entrance prep, notes)
type ResourceCategory struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string       `json:"name" gorm:"size:255;not null"`
	Type         CategoryType `json:"category_type" gorm:"column:category_type;size:20;not null"`
	UniversityID *uuid.UUID   `json:"university_id" gorm:"type:uuid"`
	IsActive     bool         `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time    `json:"created_at"`

	University *University `json:"university,omitempty" gorm:"foreignKey:UniversityID"`
}

// Resource is either an uploaded file or an external link
type Resource struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CategoryID   uuid.UUID  `json:"category_id" gorm:"type:uuid;not null;index"`
	Title        string     `json:"title" gorm:"size:255;not null"`
	Description  string     `json:"description" gorm:"type:text;default:''"`
	FileURL      string     `json:"file_url" gorm:"size:500;default:''"`
	FileKey      string     `json:"-" gorm:"size:500;default:''"`
	FileName     string     `json:"file_name" gorm:"size:255;default:''"`
	FileSize     int64      `json:"file_size" gorm:"not null;default:0"`
	MimeType     string     `json:"mime_type" gorm:"size:100;default:''"`
	Link         string     `json:"link" gorm:"size:500;default:''"`
	UploadedByID *uuid.UUID `json:"uploaded_by" gorm:"column:uploaded_by;type:uuid"`
	IsActive     bool       `json:"is_active" gorm:"not null"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Category *ResourceCategory `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

func (r *Resource) IsFile() bool {
	return r.FileKey != ""
}

// ========== Resource DTOs ==========

type UniversityRequest struct {
	Name  string          `json:"name" binding:"required,max=255"`
	Level UniversityLevel `json:"level" binding:"omitempty,oneof=bachelors masters"`
}

type CategoryRequest struct {
	Name         string       `json:"name" binding:"required,max=255"`
	Type         CategoryType `json:"category_type" binding:"required,oneof=entrance notes"`
	UniversityID *uuid.UUID   `json:"university_id"`
}

// ResourceForm is the multipart form for admin resource creation; the file
// part is read separately
type ResourceForm struct {
	Title       string    `form:"title" binding:"required,max=255"`
	Description string    `form:"description"`
	CategoryID  uuid.UUID `form:"-"`
	Link        string    `form:"link" binding:"omitempty,url,max=500"`
}

type ResourceFilter struct {
	CategoryID *uuid.UUID `form:"-"`
	Type       string     `form:"type" binding:"omitempty,oneof=entrance notes"`
	Search     string     `form:"search"`
}

type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
