package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// CollegeService manages colleges, programs and entrance exams
type CollegeService struct {
	collegeRepo repository.CollegeRepository
	now         func() time.Time
}

func NewCollegeService(collegeRepo repository.CollegeRepository) *CollegeService {
	return &CollegeService{collegeRepo: collegeRepo, now: time.Now}
}

// writeErr maps repository write failures onto client-facing errors
func writeErr(err error, resource, action string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ValidationError{Message: "Referenced record does not exist"}
	}
	return errors.Wrapf(err, "%s %s", action, resource)
}

// ==================== Colleges ====================

func (s *CollegeService) ListColleges(f model.CollegeFilter) (model.PageResponse[model.College], error) {
	colleges, count, err := s.collegeRepo.ListColleges(f)
	if err != nil {
		return model.PageResponse[model.College]{}, err
	}
	return model.NewPage(colleges, count, f.PageQuery), nil
}

func (s *CollegeService) GetCollege(id uuid.UUID) (*model.College, error) {
	college, err := s.collegeRepo.FindCollege(id)
	if err != nil {
		return nil, lookupErr(err, "College")
	}
	return college, nil
}

func (s *CollegeService) CreateCollege(req model.CollegeRequest) (*model.College, error) {
	college := &model.College{}
	if err := copier.Copy(college, &req); err != nil {
		return nil, errors.Wrap(err, "map college")
	}
	college.IsActive = boolOr(req.IsActive, true)
	if err := s.collegeRepo.CreateCollege(college); err != nil {
		return nil, writeErr(err, "College", "create")
	}
	return college, nil
}

func (s *CollegeService) UpdateCollege(id uuid.UUID, req model.CollegeRequest) (*model.College, error) {
	college, err := s.collegeRepo.FindCollege(id)
	if err != nil {
		return nil, lookupErr(err, "College")
	}
	active := college.IsActive
	if err := copier.Copy(college, &req); err != nil {
		return nil, errors.Wrap(err, "map college")
	}
	college.IsActive = boolOr(req.IsActive, active)
	college.Programs = nil
	if err := s.collegeRepo.UpdateCollege(college); err != nil {
		return nil, writeErr(err, "College", "update")
	}
	return college, nil
}

func (s *CollegeService) DeleteCollege(id uuid.UUID) error {
	if err := s.collegeRepo.DeleteCollege(id); err != nil {
		return writeErr(err, "College", "delete")
	}
	return nil
}

// ==================== Programs ====================

func (s *CollegeService) ListPrograms(f model.ProgramFilter) ([]model.EngineeringProgram, error) {
	return s.collegeRepo.ListPrograms(f)
}

func (s *CollegeService) GetProgram(id uuid.UUID) (*model.EngineeringProgram, error) {
	program, err := s.collegeRepo.FindProgram(id)
	if err != nil {
		return nil, lookupErr(err, "Program")
	}
	return program, nil
}

func (s *CollegeService) CreateProgram(req model.ProgramRequest) (*model.EngineeringProgram, error) {
	if _, err := s.collegeRepo.FindCollege(req.CollegeID); err != nil {
		return nil, lookupErr(err, "College")
	}
	program := &model.EngineeringProgram{IsActive: true}
	if err := copier.Copy(program, &req); err != nil {
		return nil, errors.Wrap(err, "map program")
	}
	if program.DurationYears == 0 {
		program.DurationYears = 4
	}
	if err := s.collegeRepo.CreateProgram(program); err != nil {
		return nil, writeErr(err, "Program", "create")
	}
	return program, nil
}

func (s *CollegeService) UpdateProgram(id uuid.UUID, req model.ProgramRequest) (*model.EngineeringProgram, error) {
	program, err := s.collegeRepo.FindProgram(id)
	if err != nil {
		return nil, lookupErr(err, "Program")
	}
	if err := copier.Copy(program, &req); err != nil {
		return nil, errors.Wrap(err, "map program")
	}
	if program.DurationYears == 0 {
		program.DurationYears = 4
	}
	program.College = nil
	if err := s.collegeRepo.UpdateProgram(program); err != nil {
		return nil, writeErr(err, "Program", "update")
	}
	return program, nil
}

func (s *CollegeService) DeleteProgram(id uuid.UUID) error {
	if err := s.collegeRepo.DeleteProgram(id); err != nil {
		return writeErr(err, "Program", "delete")
	}
	return nil
}

// ==================== Exams ====================

// ListExams lists active exams; the upcoming filter keeps exams dated from now on
func (s *CollegeService) ListExams(f model.ExamFilter) ([]model.EntranceExam, error) {
	return s.collegeRepo.ListExams(f, s.now())
}

func (s *CollegeService) GetExam(id uuid.UUID) (*model.EntranceExam, error) {
	exam, err := s.collegeRepo.FindExam(id)
	if err != nil {
		return nil, lookupErr(err, "Exam")
	}
	return exam, nil
}

func (s *CollegeService) CreateExam(req model.ExamRequest) (*model.EntranceExam, error) {
	exam := &model.EntranceExam{IsActive: true}
	if err := copier.Copy(exam, &req); err != nil {
		return nil, errors.Wrap(err, "map exam")
	}
	applyExamDefaults(exam)
	if err := s.collegeRepo.CreateExam(exam); err != nil {
		return nil, writeErr(err, "Exam", "create")
	}
	return exam, nil
}

func (s *CollegeService) UpdateExam(id uuid.UUID, req model.ExamRequest) (*model.EntranceExam, error) {
	exam, err := s.collegeRepo.FindExam(id)
	if err != nil {
		return nil, lookupErr(err, "Exam")
	}
	if err := copier.Copy(exam, &req); err != nil {
		return nil, errors.Wrap(err, "map exam")
	}
	applyExamDefaults(exam)
	exam.College = nil
	if err := s.collegeRepo.UpdateExam(exam); err != nil {
		return nil, writeErr(err, "Exam", "update")
	}
	return exam, nil
}

func applyExamDefaults(exam *model.EntranceExam) {
	if exam.TotalQuestions == 0 {
		exam.TotalQuestions = 100
	}
	if exam.DurationMinutes == 0 {
		exam.DurationMinutes = 120
	}
	if exam.PassingScore == 0 {
		exam.PassingScore = 40
	}
}

func (s *CollegeService) DeleteExam(id uuid.UUID) error {
	if err := s.collegeRepo.DeleteExam(id); err != nil {
		return writeErr(err, "Exam", "delete")
	}
	return nil
}
