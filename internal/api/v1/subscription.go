package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsenote/billing/internal/api/dto"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	planChangeService   service.PlanChangeService
	log                 *logger.Logger
}

func NewSubscriptionHandler(
	subscriptionService service.SubscriptionService,
	planChangeService service.PlanChangeService,
	log *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		planChangeService:   planChangeService,
		log:                 log,
	}
}

// GetSubscription handles GET /subscriptions/:user_id
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID := c.Param("user_id")

	resp, err := h.subscriptionService.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorw("failed to get subscription", "error", err, "user_id", userID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChangePlan handles POST /subscriptions/change
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	var req dto.PlanChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.planChangeService.RequestPlanChange(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to change plan", "error", err, "user_id", req.UserID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelSubscription handles POST /subscriptions/cancel
func (h *SubscriptionHandler) CancelSubscription(c *gin.Context) {
	var req dto.CancellationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorw("failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.planChangeService.RequestCancellation(c.Request.Context(), &req)
	if err != nil {
		h.log.Errorw("failed to cancel subscription", "error", err, "user_id", req.UserID)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
