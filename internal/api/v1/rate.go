package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/service"
)

type RateHandler struct {
	service service.RateService
	log     *logger.Logger
}

func NewRateHandler(service service.RateService, log *logger.Logger) *RateHandler {
	return &RateHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a rate
// @Description Adds a rate to the caller's profile. The rate must stay within 33% of the per-minute price of the reference rate of its context.
// @Tags Rates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rate body dto.CreateRateRequest true "Rate"
// @Success 201 {object} dto.RateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Router /rates [post]
func (h *RateHandler) CreateRate(c *gin.Context) {
	var req dto.CreateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateRate(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a rate
// @Tags Rates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rate ID"
// @Success 200 {object} dto.RateResponse
// @Failure 404 {object} ErrorResponse
// @Router /rates/{id} [get]
func (h *RateHandler) GetRate(c *gin.Context) {
	resp, err := h.service.GetRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List rates
// @Tags Rates
// @Produce json
// @Security BearerAuth
// @Param filter query dto.ListRatesRequest false "Filter"
// @Success 200 {object} dto.ListRatesResponse
// @Failure 400 {object} ErrorResponse
// @Router /rates [get]
func (h *RateHandler) ListRates(c *gin.Context) {
	var req dto.ListRatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ListRates(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a rate
// @Description Changes duration, price or base flag. The result is validated against the other active rates of the same context.
// @Tags Rates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Rate ID"
// @Param rate body dto.UpdateRateRequest true "Changes"
// @Success 200 {object} dto.RateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rates/{id} [patch]
func (h *RateHandler) UpdateRate(c *gin.Context) {
	var req dto.UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateRate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Delete a rate
// @Tags Rates
// @Security BearerAuth
// @Param id path string true "Rate ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /rates/{id} [delete]
func (h *RateHandler) DeleteRate(c *gin.Context) {
	if err := h.service.DeleteRate(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
