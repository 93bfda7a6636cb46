package repository

import (
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MockTestRepository handles mock tests and their question lists
type MockTestRepository interface {
	List(f model.MockTestFilter) ([]model.MockTest, error)
	FindByID(id uuid.UUID) (*model.MockTest, error)
	Create(test *model.MockTest) error
	Update(test *model.MockTest) error
	Delete(id uuid.UUID) error

	AddQuestion(item *model.MockTestQuestion) error
	RemoveQuestion(testID, questionID uuid.UUID) error
	ListQuestions(testID uuid.UUID) ([]model.MockTestQuestion, error)
	FindTestQuestion(testID, questionID uuid.UUID) (*model.MockTestQuestion, error)
	QuestionMarks(testID uuid.UUID) (map[uuid.UUID]int, error)
}

type mockTestRepository struct {
	db *gorm.DB
}

func NewMockTestRepository(db *gorm.DB) MockTestRepository {
	return &mockTestRepository{db: db}
}

// List returns active mock tests matching the filter
func (r *mockTestRepository) List(f model.MockTestFilter) ([]model.MockTest, error) {
	query := r.db.Where("is_active = ?", true)
	if f.TestType != "" {
		query = query.Where("test_type = ?", f.TestType)
	}
	if f.IsFree != nil {
		query = query.Where("is_free = ?", *f.IsFree)
	}
	if f.Search != "" {
		query = query.Where("name ILIKE ?", "%"+f.Search+"%")
	}
	var tests []model.MockTest
	err := query.Order("created_at DESC").Find(&tests).Error
	return tests, err
}

func (r *mockTestRepository) FindByID(id uuid.UUID) (*model.MockTest, error) {
	var test model.MockTest
	err := r.db.Where("id = ?", id).First(&test).Error
	if err != nil {
		return nil, err
	}
	return &test, nil
}

func (r *mockTestRepository) Create(test *model.MockTest) error {
	return r.db.Omit(clause.Associations).Create(test).Error
}

func (r *mockTestRepository) Update(test *model.MockTest) error {
	return r.db.Omit(clause.Associations).Save(test).Error
}

func (r *mockTestRepository) Delete(id uuid.UUID) error {
	return deleteByID[model.MockTest](r.db, id)
}

// AddQuestion places a question in a test. Duplicate question or order
// surfaces as gorm.ErrDuplicatedKey.
func (r *mockTestRepository) AddQuestion(item *model.MockTestQuestion) error {
	return r.db.Omit(clause.Associations).Create(item).Error
}

func (r *mockTestRepository) RemoveQuestion(testID, questionID uuid.UUID) error {
	res := r.db.Where("mock_test_id = ? AND question_id = ?", testID, questionID).Delete(&model.MockTestQuestion{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListQuestions returns the test's questions in order, options included
func (r *mockTestRepository) ListQuestions(testID uuid.UUID) ([]model.MockTestQuestion, error) {
	var items []model.MockTestQuestion
	err := r.db.
		Preload("Question.Options", preloadOptions).
		Where("mock_test_id = ?", testID).
		Order(`"order" ASC`).
		Find(&items).Error
	return items, err
}

func (r *mockTestRepository) FindTestQuestion(testID, questionID uuid.UUID) (*model.MockTestQuestion, error) {
	var item model.MockTestQuestion
	err := r.db.
		Preload("Question.Options", preloadOptions).
		Where("mock_test_id = ? AND question_id = ?", testID, questionID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// QuestionMarks maps every question of the test to its marks
func (r *mockTestRepository) QuestionMarks(testID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []model.MockTestQuestion
	err := r.db.Select("question_id", "marks").Where("mock_test_id = ?", testID).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	marks := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		marks[row.QuestionID] = row.Marks
	}
	return marks, nil
}
