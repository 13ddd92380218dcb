package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sstb-school/student-affairs-api/internal/service"
	"github.com/sstb-school/student-affairs-api/pkg/response"
)

// CatalogHandler serves the static reference catalogs.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: svc}
}

// Locations godoc
// @Summary List locations
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/locations [get]
func (h *CatalogHandler) Locations(c *gin.Context) {
	locations, err := h.service.Locations(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations)
}

// Rules godoc
// @Summary List behavior rules
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/rules [get]
func (h *CatalogHandler) Rules(c *gin.Context) {
	rules, err := h.service.Rules(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rules)
}

// IncidentCategories godoc
// @Summary List SOS incident categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/incident-categories [get]
func (h *CatalogHandler) IncidentCategories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.IncidentCategories())
}

// ItemCategories godoc
// @Summary List lost & found item categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/item-categories [get]
func (h *CatalogHandler) ItemCategories(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.ItemCategories())
}
