package service

import (
	"github.com/pulsenote/billing/internal/config"
	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/domain/subscription"
	"github.com/pulsenote/billing/internal/integration/razorpay"
	"github.com/pulsenote/billing/internal/logger"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger  *logger.Logger
	Config  *config.Configuration
	Catalog *plan.Catalog

	// Repositories
	SubscriptionRepo subscription.Repository

	// Integrations
	Gateway  razorpay.Gateway
	Notifier Notifier
}
