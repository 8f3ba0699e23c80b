package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/service"
)

type PlanHandler struct {
	service service.SubscriptionService
	log     *logger.Logger
}

func NewPlanHandler(service service.SubscriptionService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{service: service, log: log}
}

// ListPlans handles GET /plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	resp, err := h.service.ListPlans(c.Request.Context())
	if err != nil {
		h.log.Errorw("failed to list plans", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
