package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sstb-school/student-affairs-api/pkg/config"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/response"
	"github.com/sstb-school/student-affairs-api/pkg/storage"
)

// AttachmentHandler accepts image uploads for SOS alerts and lost & found
// items. Uploads are open to guests; the returned URL is referenced by the
// subsequent report payload.
type AttachmentHandler struct {
	storage *storage.LocalStorage
	cfg     config.AttachmentsConfig
}

// NewAttachmentHandler creates a new attachment handler.
func NewAttachmentHandler(store *storage.LocalStorage, cfg config.AttachmentsConfig) *AttachmentHandler {
	return &AttachmentHandler{storage: store, cfg: cfg}
}

// Upload godoc
// @Summary Upload an image attachment
// @Description Stores an image and returns its URL for use in report payloads
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file field required"))
		return
	}
	if h.cfg.MaxFileSizeBytes > 0 && fileHeader.Size > h.cfg.MaxFileSizeBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", h.cfg.MaxFileSizeBytes)))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := src.Read(head)
	if err != nil && err != io.EOF {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	mime := http.DetectContentType(head[:n])
	if !h.mimeAllowed(mime) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported content type %s", mime)))
		return
	}

	filename := fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(fileHeader.Filename))
	reader := io.MultiReader(bytes.NewReader(head[:n]), src)
	if _, err := h.storage.SaveStream(filename, reader); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload"))
		return
	}

	response.Created(c, gin.H{
		"url":          fmt.Sprintf("/api/v1/attachments/%s", filename),
		"filename":     filename,
		"content_type": mime,
		"size_bytes":   fileHeader.Size,
	})
}

// Serve godoc
// @Summary Serve an image attachment
// @Tags Attachments
// @Produce octet-stream
// @Param filename path string true "Attachment filename"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /attachments/{filename} [get]
func (h *AttachmentHandler) Serve(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	file, err := h.storage.Open(filename)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "attachment not found"))
		return
	}
	defer file.Close()
	c.File(file.Name())
}

func (h *AttachmentHandler) mimeAllowed(mime string) bool {
	if len(h.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedMIMEs {
		if mime == allowed {
			return true
		}
	}
	return false
}
