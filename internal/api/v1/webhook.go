package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/masseurmatch/masseurmatch/internal/api/dto"
	"github.com/masseurmatch/masseurmatch/internal/config"
	ierr "github.com/masseurmatch/masseurmatch/internal/errors"
	"github.com/masseurmatch/masseurmatch/internal/integration/stripe"
	"github.com/masseurmatch/masseurmatch/internal/logger"
	"github.com/masseurmatch/masseurmatch/internal/service"
	"github.com/masseurmatch/masseurmatch/internal/types"
)

// WebhookHandler receives provider deliveries. Responses carry only the
// status code so that nothing about the failure leaks to the sender.
type WebhookHandler struct {
	service service.WebhookService
	config  *config.Configuration
	logger  *logger.Logger
}

func NewWebhookHandler(service service.WebhookService, config *config.Configuration, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// @Summary Handle Stripe billing webhook
// @Description Receives subscription and invoice events signed with the billing webhook secret
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} dto.WebhookReceivedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	h.handle(c, types.WebhookSourceBilling)
}

// @Summary Handle Stripe identity webhook
// @Description Receives identity verification events signed with the identity webhook secret
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Stripe signature"
// @Success 200 {object} dto.WebhookReceivedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/stripe/identity [post]
func (h *WebhookHandler) HandleStripeIdentityWebhook(c *gin.Context) {
	h.handle(c, types.WebhookSourceIdentity)
}

func (h *WebhookHandler) handle(c *gin.Context, source types.WebhookSource) {
	log := h.logger.WithContext(c.Request.Context())

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.config.Stripe.WebhookBodyLimit()))
	if err != nil {
		log.Warnw("failed to read webhook body",
			"source", source,
			"error", err,
		)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest)})
		return
	}

	signature := c.GetHeader(stripe.SignatureHeader)

	if err := h.service.HandleStripeEvent(c.Request.Context(), body, signature, source); err != nil {
		if ierr.IsClientError(err) {
			log.Warnw("rejected stripe webhook",
				"source", source,
				"error", err,
			)
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: http.StatusText(http.StatusBadRequest)})
			return
		}
		log.Errorw("failed to process stripe webhook",
			"source", source,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)})
		return
	}

	c.JSON(http.StatusOK, dto.WebhookReceivedResponse{Received: true})
}
