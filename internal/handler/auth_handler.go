package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/models"
	"github.com/sstb-school/student-affairs-api/internal/service"
	appErrors "github.com/sstb-school/student-affairs-api/pkg/errors"
	"github.com/sstb-school/student-affairs-api/pkg/response"
)

// AuthHandler handles session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Identities godoc
// @Summary List staff identities
// @Description Lists the staff-like accounts selectable on the login screen
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/identities [get]
func (h *AuthHandler) Identities(c *gin.Context) {
	identities, err := h.service.Identities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, identities)
}

// CreateSession godoc
// @Summary Create a session
// @Description Issues a session token for a known directory identity
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body models.SessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/sessions [post]
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req models.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// Me godoc
// @Summary Current identity
// @Description Resolves the caller's directory record
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.service.WhoAmI(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
