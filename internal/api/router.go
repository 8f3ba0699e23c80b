package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/pulsenote/billing/internal/api/v1"
	"github.com/pulsenote/billing/internal/rest/middleware"
)

type Handlers struct {
	Subscription *v1.SubscriptionHandler
	Plan         *v1.PlanHandler
	Webhook      *v1.WebhookHandler
	Health       *v1.HealthHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.CORSMiddleware)
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Health)

	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	plans := router.Group("/plans")
	{
		plans.GET("", handlers.Plan.ListPlans)
	}

	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/:user_id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/change", handlers.Subscription.ChangePlan)
		subscriptions.POST("/cancel", handlers.Subscription.CancelSubscription)
	}

	webhooks := router.Group("/webhooks")
	{
		webhooks.POST("/razorpay", handlers.Webhook.HandleRazorpayWebhook)
	}
}
