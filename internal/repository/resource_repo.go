package repository

import (
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResourceRepository handles universities, resource categories and resources
type ResourceRepository interface {
	ListUniversities() ([]model.University, error)
	CreateUniversity(u *model.University) error
	ListCategories(categoryType string, universityID *uuid.UUID) ([]model.ResourceCategory, error)
	FindCategory(id uuid.UUID) (*model.ResourceCategory, error)
	CreateCategory(c *model.ResourceCategory) error

	List(f model.ResourceFilter) ([]model.Resource, error)
	FindByID(id uuid.UUID) (*model.Resource, error)
	Create(res *model.Resource) error
	Delete(id uuid.UUID) error
}

type resourceRepository struct {
	db *gorm.DB
}

func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &resourceRepository{db: db}
}

func (r *resourceRepository) ListUniversities() ([]model.University, error) {
	var us []model.University
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&us).Error
	return us, err
}

func (r *resourceRepository) CreateUniversity(u *model.University) error {
	return r.db.Create(u).Error
}

func (r *resourceRepository) ListCategories(categoryType string, universityID *uuid.UUID) ([]model.ResourceCategory, error) {
	query := r.db.Preload("University").Where("is_active = ?", true)
	if categoryType != "" {
		query = query.Where("category_type = ?", categoryType)
	}
	if universityID != nil {
		query = query.Where("university_id = ?", *universityID)
	}
	var cs []model.ResourceCategory
	err := query.Order("name ASC").Find(&cs).Error
	return cs, err
}

func (r *resourceRepository) FindCategory(id uuid.UUID) (*model.ResourceCategory, error) {
	var c model.ResourceCategory
	err := r.db.Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *resourceRepository) CreateCategory(c *model.ResourceCategory) error {
	return r.db.Omit(clause.Associations).Create(c).Error
}

func (r *resourceRepository) List(f model.ResourceFilter) ([]model.Resource, error) {
	query := r.db.Model(&model.Resource{}).
		Joins("JOIN resource_categories rc ON rc.id = resources.category_id").
		Where("resources.is_active = ? AND rc.is_active = ?", true, true)
	if f.CategoryID != nil {
		query = query.Where("resources.category_id = ?", *f.CategoryID)
	}
	if f.Type != "" {
		query = query.Where("rc.category_type = ?", f.Type)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		query = query.Where("resources.title ILIKE ? OR resources.description ILIKE ?", like, like)
	}
	var rs []model.Resource
	err := query.Preload("Category").Order("resources.created_at DESC").Find(&rs).Error
	return rs, err
}

func (r *resourceRepository) FindByID(id uuid.UUID) (*model.Resource, error) {
	var res model.Resource
	err := r.db.Preload("Category").Where("id = ?", id).First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *resourceRepository) Create(res *model.Resource) error {
	return r.db.Omit(clause.Associations).Create(res).Error
}

func (r *resourceRepository) Delete(id uuid.UUID) error {
	return deleteByID[model.Resource](r.db, id)
}
