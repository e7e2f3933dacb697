package handler

import (
	"net/http"
	"strings"

	"github.com/8Tech-Consults/skills-chat/internal/model"
	"github.com/8Tech-Consults/skills-chat/pkg/storage"
	"github.com/gin-gonic/gin"
)

// Max upload size: 50MB
const maxUploadSize = 50 << 20

// MIME types accepted per message kind
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
}

var allowedVoiceTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/ogg":  true,
	"audio/wav":  true,
	"audio/mp4":  true,
}

var allowedDocumentTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/zip":    true,
	"text/plain":         true,
}

// UploadHandler stores media for messages through the external storage
// collaborator and hands back a durable URL plus metadata.
type UploadHandler struct {
	storage *storage.MinIOStorage
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(storage *storage.MinIOStorage) *UploadHandler {
	return &UploadHandler{storage: storage}
}

// UploadFile godoc
// @Summary Upload media for a message
// @Description Stores the file and returns a durable URL with metadata. Supports images (jpg, png, gif, webp), videos (mp4, webm, mov), voice notes (mp3, ogg, wav, m4a) and documents (pdf, doc, zip, txt).
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File to upload"
// @Success 200 {object} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 413 {object} model.ErrorResponse
// @Router /upload [post]
func (h *UploadHandler) UploadFile(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "unavailable", Message: "File storage is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if err.Error() == "http: request body too large" {
			c.JSON(http.StatusRequestEntityTooLarge, model.ErrorResponse{Error: "invalid_content", Message: "File too large (max 50MB)"})
			return
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: "File is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	folder := folderForKind(contentType)
	if folder == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_content",
			Message: "Unsupported file type. Allowed: jpg, png, gif, webp, mp4, webm, mov, mp3, ogg, wav, m4a, pdf, doc, zip, txt",
		})
		return
	}

	result, err := h.storage.Upload(c.Request.Context(), file, header, folder)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "unavailable", Message: "Failed to store file"})
		return
	}

	c.JSON(http.StatusOK, model.UploadResponse{
		URL:      result.URL,
		FileName: result.FileName,
		FileSize: result.FileSize,
		MimeType: result.MimeType,
	})
}

// UploadMultiple godoc
// @Summary Upload multiple media files
// @Description Upload up to 10 files at once. Unsupported or failed files are skipped.
// @Tags Upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param files formData file true "Files to upload (max 10)"
// @Success 200 {array} model.UploadResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /upload/multiple [post]
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	if h.storage == nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "unavailable", Message: "File storage is not configured"})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: "Invalid form data"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: "No files provided"})
		return
	}
	if len(files) > 10 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_content", Message: "Maximum 10 files allowed"})
		return
	}

	results := []model.UploadResponse{}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			continue
		}

		folder := folderForKind(header.Header.Get("Content-Type"))
		if folder == "" {
			file.Close()
			continue
		}

		result, err := h.storage.Upload(c.Request.Context(), file, header, folder)
		file.Close()
		if err != nil {
			continue
		}

		results = append(results, model.UploadResponse{
			URL:      result.URL,
			FileName: result.FileName,
			FileSize: result.FileSize,
			MimeType: result.MimeType,
		})
	}

	c.JSON(http.StatusOK, results)
}

// folderForKind maps a MIME type to the storage folder matching the
// message kind the media belongs to.
func folderForKind(contentType string) string {
	ct := strings.ToLower(contentType)

	switch {
	case allowedImageTypes[ct]:
		return "images"
	case allowedVideoTypes[ct]:
		return "videos"
	case allowedVoiceTypes[ct]:
		return "voice"
	case allowedDocumentTypes[ct]:
		return "documents"
	}
	return "" // unsupported
}
