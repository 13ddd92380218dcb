package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/internal/service"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/response"
)

// LostFoundHandler handles lost & found endpoints.
type LostFoundHandler struct {
	service *service.LostFoundService
	metrics *service.MetricsService
}

// NewLostFoundHandler creates a new lost & found handler.
func NewLostFoundHandler(svc *service.LostFoundService, metrics *service.MetricsService) *LostFoundHandler {
	return &LostFoundHandler{service: svc, metrics: metrics}
}

// Report godoc
// @Summary Report an item
// @Description Files a lost or found item; open to guests
// @Tags LostFound
// @Accept json
// @Produce json
// @Param payload body service.ReportItemRequest true "Item payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /lost-found/items [post]
func (h *LostFoundHandler) Report(c *gin.Context) {
	var req service.ReportItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	item, err := h.service.Report(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordItemReported(string(req.Intent))
	response.Created(c, item)
}

// Claim godoc
// @Summary Claim an item
// @Description Transitions a FOUND item to CLAIMED
// @Tags LostFound
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /lost-found/items/{id}/claim [post]
func (h *LostFoundHandler) Claim(c *gin.Context) {
	item, err := h.service.Claim(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// List godoc
// @Summary List items
// @Description Lists items newest-first, optionally by status
// @Tags LostFound
// @Produce json
// @Param status query string false "Status filter (SEARCHING, FOUND or CLAIMED)"
// @Success 200 {object} response.Envelope
// @Router /lost-found/items [get]
func (h *LostFoundHandler) List(c *gin.Context) {
	var status *models.ItemStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ItemStatus(raw)
		if s != models.ItemStatusSearching && s != models.ItemStatusFound && s != models.ItemStatusClaimed {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown item status"))
			return
		}
		status = &s
	}

	items, err := h.service.List(c.Request.Context(), status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get an item
// @Description Returns one item
// @Tags LostFound
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /lost-found/items/{id} [get]
func (h *LostFoundHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}
