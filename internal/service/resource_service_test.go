package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeResourceRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]model.ResourceCategory
	resources  map[uuid.UUID]model.Resource
	failCreate error
}

func newFakeResourceRepo() *fakeResourceRepo {
	return &fakeResourceRepo{
		categories: map[uuid.UUID]model.ResourceCategory{},
		resources:  map[uuid.UUID]model.Resource{},
	}
}

func (r *fakeResourceRepo) ListUniversities() ([]model.University, error) { return nil, nil }

func (r *fakeResourceRepo) CreateUniversity(u *model.University) error {
	u.ID = uuid.New()
	return nil
}

func (r *fakeResourceRepo) ListCategories(string, *uuid.UUID) ([]model.ResourceCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.ResourceCategory, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeResourceRepo) FindCategory(id uuid.UUID) (*model.ResourceCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *fakeResourceRepo) CreateCategory(c *model.ResourceCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.New()
	r.categories[c.ID] = *c
	return nil
}

func (r *fakeResourceRepo) List(model.ResourceFilter) ([]model.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Resource
	for _, res := range r.resources {
		if res.IsActive {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeResourceRepo) FindByID(id uuid.UUID) (*model.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.resources[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r *fakeResourceRepo) Create(res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	res.ID = uuid.New()
	r.resources[res.ID] = *res
	return nil
}

func (r *fakeResourceRepo) Delete(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.resources[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.resources, id)
	return nil
}

type accessFunc func(uuid.UUID) (bool, error)

func (f accessFunc) CanAccessResources(userID uuid.UUID) (bool, error) { return f(userID) }

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func pdfUpload(name, body string) (multipart.File, *multipart.FileHeader) {
	header := &multipart.FileHeader{
		Filename: name,
		Size:     int64(len(body)),
		Header:   textproto.MIMEHeader{"Content-Type": {"application/pdf"}},
	}
	return memFile{bytes.NewReader([]byte(body))}, header
}

type resourceFixture struct {
	repo     *fakeResourceRepo
	store    *fakeStorage
	svc      *ResourceService
	category *model.ResourceCategory
	premium  map[uuid.UUID]bool
}

func newResourceFixture(t *testing.T) *resourceFixture {
	t.Helper()
	f := &resourceFixture{
		repo:    newFakeResourceRepo(),
		store:   newFakeStorage(),
		premium: map[uuid.UUID]bool{},
	}
	f.svc = NewResourceService(f.repo, f.store, accessFunc(func(id uuid.UUID) (bool, error) {
		return f.premium[id], nil
	}))
	f.svc.now = func() time.Time { return baseTime }

	cat, err := f.svc.CreateCategory(model.CategoryRequest{Name: " IOE Entrance ", Type: model.CategoryEntrance})
	require.NoError(t, err)
	f.category = cat
	return f
}

func TestResource_CreateNeedsExactlyOneSource(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, header := pdfUpload("notes.pdf", "%PDF-1.4")

	_, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Both", CategoryID: f.category.ID, Link: "https://example.com"}, file, header)
	assert.ErrorIs(t, err, ErrResourceSource)

	_, err = f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Neither", CategoryID: f.category.ID, Link: "   "}, nil, nil)
	assert.ErrorIs(t, err, ErrResourceSource)

	link, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: " Syllabus ", CategoryID: f.category.ID, Link: "https://ioe.edu.np/syllabus"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Syllabus", link.Title)
	assert.False(t, link.IsFile())

	stored, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Physics notes", CategoryID: f.category.ID}, file, header)
	require.NoError(t, err)
	assert.True(t, stored.IsFile())
	assert.True(t, strings.HasPrefix(stored.FileKey, resourceFolder+"/"))
	assert.Equal(t, "notes.pdf", stored.FileName)
	assert.Equal(t, "application/pdf", stored.MimeType)
}

func TestResource_CreateUnknownCategory(t *testing.T) {
	f := newResourceFixture(t)
	_, err := f.svc.Create(context.Background(), uuid.New(), model.ResourceForm{Title: "x", CategoryID: uuid.New(), Link: "https://a.b"}, nil, nil)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Category", nf.Resource)
}

func TestResource_FailedInsertRemovesUpload(t *testing.T) {
	f := newResourceFixture(t)
	f.repo.failCreate = errors.New("connection reset")
	file, header := pdfUpload("paper.pdf", "data")

	_, err := f.svc.Create(context.Background(), uuid.New(), model.ResourceForm{Title: "Old paper", CategoryID: f.category.ID}, file, header)
	require.Error(t, err)
	assert.Len(t, f.store.deleted, 1)
	assert.Empty(t, f.store.objects)
}

func TestResource_DownloadRequiresResourcePlan(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, header := pdfUpload("model-set.pdf", "data")
	res, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Model set", CategoryID: f.category.ID}, file, header)
	require.NoError(t, err)

	student := uuid.New()
	_, err = f.svc.Download(ctx, student, res.ID)
	assert.ErrorIs(t, err, ErrResourceAccessDenied)

	f.premium[student] = true
	dl, err := f.svc.Download(ctx, student, res.ID)
	require.NoError(t, err)
	assert.Contains(t, dl.URL, res.FileKey)
	assert.Contains(t, dl.URL, "signed=1")
	assert.Equal(t, baseTime.Add(downloadExpiry), dl.ExpiresAt)
}

func TestResource_LinkIsNotDownloadable(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	res, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Blog", CategoryID: f.category.ID, Link: "https://blog.example.com"}, nil, nil)
	require.NoError(t, err)

	student := uuid.New()
	f.premium[student] = true
	_, err = f.svc.Download(ctx, student, res.ID)
	assert.ErrorIs(t, err, ErrNotDownloadable)
}

func TestResource_DeleteRemovesObject(t *testing.T) {
	f := newResourceFixture(t)
	ctx := context.Background()
	file, header := pdfUpload("chem.pdf", "data")
	res, err := f.svc.Create(ctx, uuid.New(), model.ResourceForm{Title: "Chem", CategoryID: f.category.ID}, file, header)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, res.ID))
	assert.Equal(t, []string{res.FileKey}, f.store.deleted)

	_, err = f.svc.Get(res.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	err = f.svc.Delete(ctx, res.ID)
	assert.True(t, errors.As(err, &nf))
}
