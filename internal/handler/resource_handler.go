package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/internal/service"
	"github.com/pkg/errors"
)

// ResourceHandler serves universities, resource categories and study resources
type ResourceHandler struct {
	resourceService *service.ResourceService
}

func NewResourceHandler(resourceService *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// ListUniversities godoc
// @Summary List universities
// @Tags Resources
// @Produce json
// @Success 200 {array} model.University
// @Router /resources/universities [get]
func (h *ResourceHandler) ListUniversities(c *gin.Context) {
	items, err := h.resourceService.ListUniversities()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateUniversity godoc
// @Summary Create a university
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.UniversityRequest true "University"
// @Success 201 {object} model.University
// @Router /admin/resources/universities [post]
func (h *ResourceHandler) CreateUniversity(c *gin.Context) {
	var req model.UniversityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.resourceService.CreateUniversity(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

// ListCategories godoc
// @Summary List resource categories
// @Tags Resources
// @Produce json
// @Param type query string false "Category type" Enums(entrance, notes)
// @Param university_id query string false "University ID"
// @Success 200 {array} model.ResourceCategory
// @Router /resources/categories [get]
func (h *ResourceHandler) ListCategories(c *gin.Context) {
	universityID, ok := queryID(c, "university_id")
	if !ok {
		return
	}
	items, err := h.resourceService.ListCategories(c.Query("type"), universityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// CreateCategory godoc
// @Summary Create a resource category
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.CategoryRequest true "Category"
// @Success 201 {object} model.ResourceCategory
// @Router /admin/resources/categories [post]
func (h *ResourceHandler) CreateCategory(c *gin.Context) {
	var req model.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	cat, err := h.resourceService.CreateCategory(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// ListResources godoc
// @Summary List active resources
// @Tags Resources
// @Produce json
// @Param category_id query string false "Category ID"
// @Param type query string false "Category type" Enums(entrance, notes)
// @Param search query string false "Title contains"
// @Success 200 {array} model.Resource
// @Router /resources [get]
func (h *ResourceHandler) ListResources(c *gin.Context) {
	var f model.ResourceFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badRequest(c, err)
		return
	}
	var ok bool
	if f.CategoryID, ok = queryID(c, "category_id"); !ok {
		return
	}
	items, err := h.resourceService.List(f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetResource godoc
// @Summary Get a resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} model.Resource
// @Failure 404 {object} model.ErrorResponse
// @Router /resources/{id} [get]
func (h *ResourceHandler) GetResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.resourceService.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DownloadResource godoc
// @Summary Get a short-lived download URL for a resource file
// @Description Requires an active subscription whose plan includes resources
// @Tags Resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {object} model.DownloadResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /resources/{id}/download [get]
func (h *ResourceHandler) DownloadResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.resourceService.Download(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CreateResource godoc
// @Summary Create a resource from an uploaded file or an external link
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param category_id formData string true "Category ID"
// @Param description formData string false "Description"
// @Param link formData string false "External link (instead of a file)"
// @Param file formData file false "File (instead of a link)"
// @Success 201 {object} model.Resource
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/resources [post]
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	var form model.ResourceForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, err)
		return
	}
	categoryID, err := uuid.Parse(c.PostForm("category_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid category_id"})
		return
	}
	form.CategoryID = categoryID

	var (
		file   multipart.File
		header *multipart.FileHeader
	)
	f, hdr, err := c.Request.FormFile("file")
	switch {
	case err == nil:
		defer f.Close()
		file, header = f, hdr
	case errors.Is(err, http.ErrMissingFile):
	default:
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Failed to read file", Message: err.Error()})
		return
	}

	res, err := h.resourceService.Create(c.Request.Context(), currentUserID(c), form, file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// DeleteResource godoc
// @Summary Delete a resource and its stored file
// @Tags Admin
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 204
// @Router /admin/resources/{id} [delete]
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.resourceService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
