package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/service"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/response"
)

// DeductionHandler handles point deduction ledger endpoints.
type DeductionHandler struct {
	service *service.DeductionService
	exports *service.ExportService
	metrics *service.MetricsService
}

// NewDeductionHandler creates a new deduction handler.
func NewDeductionHandler(svc *service.DeductionService, exports *service.ExportService, metrics *service.MetricsService) *DeductionHandler {
	return &DeductionHandler{service: svc, exports: exports, metrics: metrics}
}

// Record godoc
// @Summary Record a deduction
// @Description Appends one ledger entry; the recording teacher is the caller
// @Tags Deductions
// @Accept json
// @Produce json
// @Param payload body service.RecordDeductionRequest true "Deduction payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /deductions [post]
func (h *DeductionHandler) Record(c *gin.Context) {
	var req service.RecordDeductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	detail, err := h.service.Record(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordDeduction()
	response.Created(c, detail)
}

// ListByStudent godoc
// @Summary List a student's ledger
// @Description Lists resolved ledger entries newest-first
// @Tags Deductions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/deductions [get]
func (h *DeductionHandler) ListByStudent(c *gin.Context) {
	details, err := h.service.ListByStudent(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details)
}

// Summary godoc
// @Summary Summarise a student's ledger
// @Description Aggregates total entries and points
// @Tags Deductions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/deductions/summary [get]
func (h *DeductionHandler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary)
}

// Export godoc
// @Summary Export a student's ledger
// @Description Renders the ledger to CSV or PDF and returns a signed link
// @Tags Deductions
// @Produce json
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /students/{id}/deductions/export [post]
func (h *DeductionHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.ExportStudentHistory(c.Request.Context(), actorFromContext(c), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Download godoc
// @Summary Download an export
// @Description Streams a previously rendered export via its signed token
// @Tags Deductions
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/download [get]
func (h *DeductionHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, name, err := h.exports.Download(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.FileAttachment(file.Name(), name)
}
