package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hamroengineering/hamro/internal/model"
	"github.com/hamroengineering/hamro/pkg/storage"
	"github.com/pkg/errors"
)

const (
	// Max upload size for documents: 50MB
	maxUploadSize = 50 << 20
	// Max upload size for images: 5MB
	maxImageSize = 5 << 20
	maxBatchSize = 10
)

// Allowed MIME types
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedDocumentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/zip":    true,
}

// UploadHandler handles admin media uploads (question figures, college logos, documents)
type UploadHandler struct {
	storage storage.Storage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(storage storage.Storage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadFile godoc
// @Summary Upload a file (image or document)
// @Description Upload a file to storage and return its public URL. Supports images (jpg, png, gif, webp) and documents (pdf, doc, zip).
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 200 {object} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /admin/upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "File too large (max 50MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "File is required", Message: err.Error()})
		return
	}
	defer file.Close()

	folder := determineFolder(header.Header.Get("Content-Type"))
	if folder == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "Unsupported file type",
			Message: "Allowed: jpg, png, gif, webp, pdf, doc, zip",
		})
		return
	}
	if folder == "images" && header.Size > maxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "Image too large (max 5MB)"})
		return
	}

	result, err := h.storage.Upload(c.Request.Context(), file, header, folder)
	if err != nil {
		respondError(c, errors.Wrap(err, "upload file"))
		return
	}

	c.JSON(http.StatusOK, toUploadResponse(result))
}

// UploadMultiple godoc
// @Summary Upload multiple files
// @Description Upload up to 10 files at once. Unsupported or failed files are skipped.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Files to upload (max 10)"
// @Success 200 {array} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /admin/upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid form data", Message: err.Error()})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "No files provided"})
		return
	}
	if len(files) > maxBatchSize {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Maximum 10 files allowed"})
		return
	}

	results := []model.UploadResponse{}
	for _, header := range files {
		folder := determineFolder(header.Header.Get("Content-Type"))
		if folder == "" {
			continue
		}

		file, err := header.Open()
		if err != nil {
			continue
		}
		result, err := h.storage.Upload(c.Request.Context(), file, header, folder)
		file.Close()
		if err != nil {
			continue
		}

		results = append(results, toUploadResponse(result))
	}

	c.JSON(http.StatusOK, results)
}

func toUploadResponse(r *storage.UploadResult) model.UploadResponse {
	return model.UploadResponse{
		URL:      r.URL,
		FileName: r.FileName,
		FileSize: r.FileSize,
		MimeType: r.MimeType,
	}
}

// determineFolder returns the storage folder based on content type
func determineFolder(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))

	if allowedImageTypes[ct] {
		return "images"
	}
	if allowedDocumentTypes[ct] {
		return "documents"
	}
	return ""
}
