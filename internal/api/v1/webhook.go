package v1

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/integration/razorpay"
	"github.com/pulsenote/billing/internal/integration/razorpay/webhook"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/service"
)

const headerRazorpaySignature = "X-Razorpay-Signature"

// WebhookHandler receives gateway webhook deliveries. Apart from a bad
// signature, the endpoint always acknowledges: returning an error would make
// the gateway redeliver an event we have already decided to drop.
type WebhookHandler struct {
	gateway        razorpay.Gateway
	reconciliation service.ReconciliationService
	log            *logger.Logger
}

func NewWebhookHandler(
	gateway razorpay.Gateway,
	reconciliation service.ReconciliationService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		gateway:        gateway,
		reconciliation: reconciliation,
		log:            log,
	}
}

// HandleRazorpayWebhook handles POST /webhooks/razorpay
func (h *WebhookHandler) HandleRazorpayWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("failed to read webhook body", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Failed to read request body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader(headerRazorpaySignature)
	if err := h.gateway.VerifyWebhookSignature(payload, signature); err != nil {
		h.log.Warnw("rejecting webhook with invalid signature", "error", err)
		c.Error(err)
		return
	}

	var event webhook.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		// Authentic but malformed; ack so the gateway stops redelivering.
		h.log.Errorw("failed to parse webhook payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.reconciliation.ApplyGatewayEvent(c.Request.Context(), &event); err != nil {
		h.log.Errorw("failed to apply gateway event",
			"error", err,
			"event_type", event.Event)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
