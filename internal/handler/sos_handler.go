package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/internal/service"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/response"
)

// SOSHandler handles emergency alert endpoints.
type SOSHandler struct {
	service *service.SOSService
	metrics *service.MetricsService
}

// NewSOSHandler creates a new SOS handler.
func NewSOSHandler(svc *service.SOSService, metrics *service.MetricsService) *SOSHandler {
	return &SOSHandler{service: svc, metrics: metrics}
}

// Raise godoc
// @Summary Raise an SOS alert
// @Description Files a new emergency alert; open to guests
// @Tags SOS
// @Accept json
// @Produce json
// @Param payload body service.RaiseAlertRequest true "Alert payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sos/alerts [post]
func (h *SOSHandler) Raise(c *gin.Context) {
	var req service.RaiseAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	alert, err := h.service.Raise(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordAlertRaised()
	response.Created(c, alert)
}

// Acknowledge godoc
// @Summary Acknowledge an alert
// @Description Transitions an alert from NEW to ACKNOWLEDGED
// @Tags SOS
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sos/alerts/{id}/acknowledge [post]
func (h *SOSHandler) Acknowledge(c *gin.Context) {
	alert, err := h.service.Acknowledge(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.RecordAlertAcknowledged()
	response.JSON(c, http.StatusOK, alert)
}

// ListQueue godoc
// @Summary List the alert queue
// @Description Lists alerts newest-first for staff, optionally by status
// @Tags SOS
// @Produce json
// @Param status query string false "Status filter (NEW or ACKNOWLEDGED)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sos/alerts [get]
func (h *SOSHandler) ListQueue(c *gin.Context) {
	var status *models.SOSStatus
	if raw := c.Query("status"); raw != "" {
		s := models.SOSStatus(raw)
		if s != models.SOSStatusNew && s != models.SOSStatusAcknowledged {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown alert status"))
			return
		}
		status = &s
	}

	alerts, err := h.service.ListQueue(c.Request.Context(), actorFromContext(c), status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, alerts)
}

// ListMine godoc
// @Summary List my alerts
// @Description Lists the caller's own alerts newest-first
// @Tags SOS
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /sos/alerts/mine [get]
func (h *SOSHandler) ListMine(c *gin.Context) {
	alerts, err := h.service.ListMine(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alerts)
}

// Get godoc
// @Summary Get an alert
// @Description Returns one alert; staff see all, others only their own
// @Tags SOS
// @Produce json
// @Param id path string true "Alert ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sos/alerts/{id} [get]
func (h *SOSHandler) Get(c *gin.Context) {
	alert, err := h.service.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, alert)
}
