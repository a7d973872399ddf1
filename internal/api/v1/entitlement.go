package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/service"
)

type EntitlementHandler struct {
	service service.EntitlementService
	log     *logger.Logger
}

func NewEntitlementHandler(service service.EntitlementService, log *logger.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		service: service,
		log:     log,
	}
}

// @Summary Get entitlements
// @Description Plan limits granted by the caller's current subscription
// @Tags Entitlements
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.EntitlementsResponse
// @Router /entitlements [get]
func (h *EntitlementHandler) GetEntitlements(c *gin.Context) {
	resp, err := h.service.GetEntitlements(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Check photo quota
// @Description Fails with 403 once the caller holds as many photos as the plan allows
// @Tags Entitlements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CheckPhotoQuotaRequest true "Current photo count"
// @Success 200 {object} dto.PhotoQuotaResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /entitlements/photos/check [post]
func (h *EntitlementHandler) CheckPhotoQuota(c *gin.Context) {
	var req dto.CheckPhotoQuotaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CheckPhotoQuota(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
