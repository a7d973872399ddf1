package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/service"
)

type BillingHandler struct {
	service service.BillingService
	log     *logger.Logger
}

func NewBillingHandler(service service.BillingService, log *logger.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		log:     log,
	}
}

// bindOptionalJSON binds the body when one is sent; an empty body leaves req untouched
func bindOptionalJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// @Summary Create a checkout session
// @Description Opens a hosted checkout for a paid plan. First-time subscribers receive the configured trial.
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateCheckoutSessionRequest true "Plan"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /billing/checkout [post]
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateCheckoutSession(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Create a billing portal session
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreatePortalSessionRequest false "Return URL"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /billing/portal [post]
func (h *BillingHandler) CreatePortalSession(c *gin.Context) {
	var req dto.CreatePortalSessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.CreatePortalSession(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Start identity verification
// @Tags Identity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateIdentitySessionRequest false "Return URL"
// @Success 200 {object} dto.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Router /identity/sessions [post]
func (h *BillingHandler) CreateIdentitySession(c *gin.Context) {
	var req dto.CreateIdentitySessionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.CreateIdentitySession(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get identity verification status
// @Tags Identity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.IdentityStatusResponse
// @Router /identity [get]
func (h *BillingHandler) GetIdentityStatus(c *gin.Context) {
	resp, err := h.service.GetIdentityStatus(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
