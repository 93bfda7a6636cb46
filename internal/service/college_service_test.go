package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCollegeRepo struct {
	repository.CollegeRepository

	colleges map[uuid.UUID]model.College
	programs map[uuid.UUID]model.EngineeringProgram
	exams    []model.EntranceExam
}

func newStubCollegeRepo() *stubCollegeRepo {
	return &stubCollegeRepo{
		colleges: map[uuid.UUID]model.College{},
		programs: map[uuid.UUID]model.EngineeringProgram{},
	}
}

func (r *stubCollegeRepo) FindCollege(id uuid.UUID) (*model.College, error) {
	c, ok := r.colleges[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubCollegeRepo) CreateCollege(c *model.College) error {
	for _, existing := range r.colleges {
		if existing.Code == c.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	c.ID = uuid.New()
	r.colleges[c.ID] = *c
	return nil
}

func (r *stubCollegeRepo) UpdateCollege(c *model.College) error {
	r.colleges[c.ID] = *c
	return nil
}

func (r *stubCollegeRepo) DeleteCollege(id uuid.UUID) error {
	if _, ok := r.colleges[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.colleges, id)
	return nil
}

func (r *stubCollegeRepo) CreateProgram(p *model.EngineeringProgram) error {
	p.ID = uuid.New()
	r.programs[p.ID] = *p
	return nil
}

func (r *stubCollegeRepo) CreateExam(e *model.EntranceExam) error {
	if e.CollegeID != nil {
		if _, ok := r.colleges[*e.CollegeID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
	}
	e.ID = uuid.New()
	r.exams = append(r.exams, *e)
	return nil
}

func pulchowk() model.CollegeRequest {
	return model.CollegeRequest{
		Name:       "Pulchowk Campus",
		Code:       "PUL",
		University: "TU",
		Location:   "Lalitpur",
	}
}

func TestCollege_CreateDefaultsAndDuplicates(t *testing.T) {
	svc := NewCollegeService(newStubCollegeRepo())

	c, err := svc.CreateCollege(pulchowk())
	require.NoError(t, err)
	assert.True(t, c.IsActive)
	assert.Equal(t, "Lalitpur", c.Location)

	_, err = svc.CreateCollege(pulchowk())
	assert.ErrorIs(t, err, ErrDuplicate)

	req := pulchowk()
	req.Code = "THA"
	req.IsActive = ptr(false)
	hidden, err := svc.CreateCollege(req)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)
}

func TestCollege_UpdateKeepsActiveFlagWhenOmitted(t *testing.T) {
	repo := newStubCollegeRepo()
	svc := NewCollegeService(repo)
	c, err := svc.CreateCollege(pulchowk())
	require.NoError(t, err)

	req := pulchowk()
	req.Location = "Pulchowk, Lalitpur"
	updated, err := svc.UpdateCollege(c.ID, req)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
	assert.Equal(t, "Pulchowk, Lalitpur", repo.colleges[c.ID].Location)

	_, err = svc.UpdateCollege(uuid.New(), req)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestCollege_ProgramNeedsCollege(t *testing.T) {
	svc := NewCollegeService(newStubCollegeRepo())

	_, err := svc.CreateProgram(model.ProgramRequest{CollegeID: uuid.New(), Name: "Civil", ProgramType: "BE"})
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "College", nf.Resource)

	c, err := svc.CreateCollege(pulchowk())
	require.NoError(t, err)
	p, err := svc.CreateProgram(model.ProgramRequest{CollegeID: c.ID, Name: "Civil", ProgramType: "BE", TotalSeats: 48})
	require.NoError(t, err)
	assert.Equal(t, 4, p.DurationYears)
	assert.True(t, p.IsActive)
	assert.Equal(t, 48, p.TotalSeats)
}

func TestCollege_ExamDefaultsAndDanglingCollege(t *testing.T) {
	svc := NewCollegeService(newStubCollegeRepo())

	exam, err := svc.CreateExam(model.ExamRequest{Name: "IOE Entrance 2082", ExamType: "IOE"})
	require.NoError(t, err)
	assert.Equal(t, 100, exam.TotalQuestions)
	assert.Equal(t, 120, exam.DurationMinutes)
	assert.Equal(t, 40, exam.PassingScore)

	missing := uuid.New()
	_, err = svc.CreateExam(model.ExamRequest{Name: "KU CMAT", ExamType: "KU", CollegeID: &missing})
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestCollege_DeleteMissing(t *testing.T) {
	svc := NewCollegeService(newStubCollegeRepo())
	err := svc.DeleteCollege(uuid.New())
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}
