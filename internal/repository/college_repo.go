package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollegeRepository handles colleges, their programs and entrance exams
type CollegeRepository interface {
	ListColleges(f model.CollegeFilter) ([]model.College, int64, error)
	FindCollege(id uuid.UUID) (*model.College, error)
	CreateCollege(college *model.College) error
	UpdateCollege(college *model.College) error
	DeleteCollege(id uuid.UUID) error

	ListPrograms(f model.ProgramFilter) ([]model.EngineeringProgram, error)
	FindProgram(id uuid.UUID) (*model.EngineeringProgram, error)
	CreateProgram(program *model.EngineeringProgram) error
	UpdateProgram(program *model.EngineeringProgram) error
	DeleteProgram(id uuid.UUID) error

	ListExams(f model.ExamFilter, now time.Time) ([]model.EntranceExam, error)
	FindExam(id uuid.UUID) (*model.EntranceExam, error)
	CreateExam(exam *model.EntranceExam) error
	UpdateExam(exam *model.EntranceExam) error
	DeleteExam(id uuid.UUID) error
}

type collegeRepository struct {
	db *gorm.DB
}

func NewCollegeRepository(db *gorm.DB) CollegeRepository {
	return &collegeRepository{db: db}
}

func (r *collegeRepository) ListColleges(f model.CollegeFilter) ([]model.College, int64, error) {
	query := r.db.Model(&model.College{}).Where("is_active = ?", true)
	if f.University != "" {
		query = query.Where("university = ?", f.University)
	}
	if f.Location != "" {
		query = query.Where("location ILIKE ?", "%"+f.Location+"%")
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ? OR location ILIKE ?", like, like, like)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	page := f.PageQuery.Normalize()
	var colleges []model.College
	err := query.Order("name ASC").
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&colleges).Error
	return colleges, count, err
}

// FindCollege loads a college with its active programs
func (r *collegeRepository) FindCollege(id uuid.UUID) (*model.College, error) {
	var college model.College
	err := r.db.
		Preload("Programs", "is_active = ?", true).
		Where("id = ?", id).
		First(&college).Error
	if err != nil {
		return nil, err
	}
	return &college, nil
}

func (r *collegeRepository) CreateCollege(college *model.College) error {
	return r.db.Create(college).Error
}

func (r *collegeRepository) UpdateCollege(college *model.College) error {
	return r.db.Omit(clause.Associations).Save(college).Error
}

func (r *collegeRepository) DeleteCollege(id uuid.UUID) error {
	return deleteByID[model.College](r.db, id)
}

func (r *collegeRepository) ListPrograms(f model.ProgramFilter) ([]model.EngineeringProgram, error) {
	query := r.db.Preload("College").Where("is_active = ?", true)
	if f.CollegeID != nil {
		query = query.Where("college_id = ?", *f.CollegeID)
	}
	if f.ProgramType != "" {
		query = query.Where("program_type = ?", f.ProgramType)
	}
	var programs []model.EngineeringProgram
	err := query.Order("name ASC").Find(&programs).Error
	return programs, err
}

func (r *collegeRepository) FindProgram(id uuid.UUID) (*model.EngineeringProgram, error) {
	var program model.EngineeringProgram
	err := r.db.Preload("College").Where("id = ?", id).First(&program).Error
	if err != nil {
		return nil, err
	}
	return &program, nil
}

func (r *collegeRepository) CreateProgram(program *model.EngineeringProgram) error {
	return r.db.Omit(clause.Associations).Create(program).Error
}

func (r *collegeRepository) UpdateProgram(program *model.EngineeringProgram) error {
	return r.db.Omit(clause.Associations).Save(program).Error
}

func (r *collegeRepository) DeleteProgram(id uuid.UUID) error {
	return deleteByID[model.EngineeringProgram](r.db, id)
}

// ListExams returns active exams; Upcoming keeps only exams dated after now
func (r *collegeRepository) ListExams(f model.ExamFilter, now time.Time) ([]model.EntranceExam, error) {
	query := r.db.Preload("College").Where("is_active = ?", true)
	if f.ExamType != "" {
		query = query.Where("exam_type = ?", f.ExamType)
	}
	if f.Upcoming {
		query = query.Where("exam_date > ?", now)
	}
	var exams []model.EntranceExam
	err := query.Order("exam_date ASC NULLS LAST").Find(&exams).Error
	return exams, err
}

func (r *collegeRepository) FindExam(id uuid.UUID) (*model.EntranceExam, error) {
	var exam model.EntranceExam
	err := r.db.Preload("College").Where("id = ?", id).First(&exam).Error
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *collegeRepository) CreateExam(exam *model.EntranceExam) error {
	return r.db.Omit(clause.Associations).Create(exam).Error
}

func (r *collegeRepository) UpdateExam(exam *model.EntranceExam) error {
	return r.db.Omit(clause.Associations).Save(exam).Error
}

func (r *collegeRepository) DeleteExam(id uuid.UUID) error {
	return deleteByID[model.EntranceExam](r.db, id)
}

// deleteByID removes one row and reports gorm.ErrRecordNotFound when nothing matched
func deleteByID[T any](db *gorm.DB, id uuid.UUID) error {
	res := db.Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
