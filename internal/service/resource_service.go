package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/repository"
	"github.com/hamroengineering/hamro/pkg/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	resourceFolder = "resources"
	downloadExpiry = 15 * time.Minute
)

// ResourceAccess decides whether a user may download paid resources
type ResourceAccess interface {
	CanAccessResources(userID uuid.UUID) (bool, error)
}

// ResourceService manages study material and its object storage
type ResourceService struct {
	resourceRepo repository.ResourceRepository
	storage      storage.Storage
	access       ResourceAccess
	now          func() time.Time
}

func NewResourceService(resourceRepo repository.ResourceRepository, store storage.Storage, access ResourceAccess) *ResourceService {
	return &ResourceService{
		resourceRepo: resourceRepo,
		storage:      store,
		access:       access,
		now:          time.Now,
	}
}

func (s *ResourceService) ListUniversities() ([]model.University, error) {
	return s.resourceRepo.ListUniversities()
}

func (s *ResourceService) CreateUniversity(req model.UniversityRequest) (*model.University, error) {
	u := &model.University{Name: strings.TrimSpace(req.Name), Level: req.Level, IsActive: true}
	if u.Level == "" {
		u.Level = model.LevelBachelors
	}
	if err := s.resourceRepo.CreateUniversity(u); err != nil {
		return nil, writeErr(err, "University", "create")
	}
	return u, nil
}

func (s *ResourceService) ListCategories(categoryType string, universityID *uuid.UUID) ([]model.ResourceCategory, error) {
	return s.resourceRepo.ListCategories(categoryType, universityID)
}

func (s *ResourceService) CreateCategory(req model.CategoryRequest) (*model.ResourceCategory, error) {
	c := &model.ResourceCategory{
		Name:         strings.TrimSpace(req.Name),
		Type:         req.Type,
		UniversityID: req.UniversityID,
		IsActive:     true,
	}
	if err := s.resourceRepo.CreateCategory(c); err != nil {
		return nil, writeErr(err, "Category", "create")
	}
	return c, nil
}

func (s *ResourceService) List(f model.ResourceFilter) ([]model.Resource, error) {
	return s.resourceRepo.List(f)
}

func (s *ResourceService) Get(id uuid.UUID) (*model.Resource, error) {
	res, err := s.resourceRepo.FindByID(id)
	if err != nil {
		return nil, lookupErr(err, "Resource")
	}
	if !res.IsActive {
		return nil, notFound("Resource")
	}
	return res, nil
}

// Create stores a resource backed by exactly one of an uploaded file or a link
func (s *ResourceService) Create(ctx context.Context, adminID uuid.UUID, form model.ResourceForm, file multipart.File, header *multipart.FileHeader) (*model.Resource, error) {
	hasFile := file != nil && header != nil
	link := strings.TrimSpace(form.Link)
	if hasFile == (link != "") {
		return nil, ErrResourceSource
	}
	if _, err := s.resourceRepo.FindCategory(form.CategoryID); err != nil {
		return nil, lookupErr(err, "Category")
	}

	res := &model.Resource{
		CategoryID:   form.CategoryID,
		Title:        strings.TrimSpace(form.Title),
		Description:  form.Description,
		Link:         link,
		UploadedByID: &adminID,
		IsActive:     true,
	}
	if hasFile {
		uploaded, err := s.storage.Upload(ctx, file, header, resourceFolder)
		if err != nil {
			return nil, errors.Wrap(err, "upload resource file")
		}
		res.FileKey = uploaded.Key
		res.FileURL = uploaded.URL
		res.FileName = uploaded.FileName
		res.FileSize = uploaded.FileSize
		res.MimeType = uploaded.MimeType
	}

	if err := s.resourceRepo.Create(res); err != nil {
		if res.IsFile() {
			if delErr := s.storage.Delete(ctx, res.FileKey); delErr != nil {
				log.Warn().Err(delErr).Str("key", res.FileKey).Msg("failed to remove orphaned upload")
			}
		}
		return nil, writeErr(err, "Resource", "create")
	}
	return res, nil
}

// Delete removes the resource row and its stored object
func (s *ResourceService) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.resourceRepo.FindByID(id)
	if err != nil {
		return lookupErr(err, "Resource")
	}
	if err := s.resourceRepo.Delete(id); err != nil {
		return writeErr(err, "Resource", "delete")
	}
	if res.IsFile() {
		if err := s.storage.Delete(ctx, res.FileKey); err != nil {
			log.Error().Err(err).Str("key", res.FileKey).Msg("failed to delete resource object")
		}
	}
	return nil
}

// Download issues a short-lived link to a stored file for users whose plan
// includes resource access
func (s *ResourceService) Download(ctx context.Context, userID, id uuid.UUID) (*model.DownloadResponse, error) {
	res, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if !res.IsFile() {
		return nil, ErrNotDownloadable
	}
	allowed, err := s.access.CanAccessResources(userID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrResourceAccessDenied
	}

	url, err := s.storage.PresignedURL(ctx, res.FileKey, res.FileName, downloadExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "presign resource download")
	}
	return &model.DownloadResponse{URL: url, ExpiresAt: s.now().Add(downloadExpiry)}, nil
}
