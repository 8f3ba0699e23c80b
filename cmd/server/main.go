package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/pulsenote/billing/internal/api"
	v1 "github.com/pulsenote/billing/internal/api/v1"
	"github.com/pulsenote/billing/internal/config"
	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/domain/subscription"
	"github.com/pulsenote/billing/internal/integration/razorpay"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/repository/mongodb"
	"github.com/pulsenote/billing/internal/service"
	"github.com/pulsenote/billing/internal/types"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Local overrides; absent in production deployments
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			config.NewConfig,
			provideLogger,
			provideMongoClient,
			provideSubscriptionRepository,
			provideCatalog,
			provideGateway,
			provideNotifier,
			provideServiceParams,
			service.NewSubscriptionService,
			service.NewPlanChangeService,
			service.NewReconciliationService,
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)
	app.Run()
}

func provideLogger(cfg *config.Configuration) (*logger.Logger, error) {
	return logger.NewLogger(string(cfg.Logging.Level))
}

func provideMongoClient(lc fx.Lifecycle, cfg *config.Configuration, log *logger.Logger) (*mongodb.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongodb.NewClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := mongodb.EnsureIndexes(ctx, client); err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	})
	return client, nil
}

func provideSubscriptionRepository(client *mongodb.Client, log *logger.Logger) subscription.Repository {
	return mongodb.NewSubscriptionRepository(client, log)
}

func provideCatalog() *plan.Catalog {
	return plan.DefaultCatalog()
}

func provideGateway(cfg *config.Configuration, log *logger.Logger) razorpay.Gateway {
	return razorpay.NewClient(cfg.Razorpay, log)
}

func provideNotifier(log *logger.Logger) service.Notifier {
	return service.NewLogNotifier(log)
}

func provideServiceParams(
	cfg *config.Configuration,
	log *logger.Logger,
	catalog *plan.Catalog,
	subscriptionRepo subscription.Repository,
	gateway razorpay.Gateway,
	notifier service.Notifier,
) service.ServiceParams {
	return service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		Catalog:          catalog,
		SubscriptionRepo: subscriptionRepo,
		Gateway:          gateway,
		Notifier:         notifier,
	}
}

func provideHandlers(
	cfg *config.Configuration,
	log *logger.Logger,
	client *mongodb.Client,
	gateway razorpay.Gateway,
	subscriptionService service.SubscriptionService,
	planChangeService service.PlanChangeService,
	reconciliationService service.ReconciliationService,
) api.Handlers {
	return api.Handlers{
		Subscription: v1.NewSubscriptionHandler(subscriptionService, planChangeService, log),
		Plan:         v1.NewPlanHandler(subscriptionService, log),
		Webhook:      v1.NewWebhookHandler(gateway, reconciliationService, log),
		Health:       v1.NewHealthHandler(client, log),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration) *gin.Engine {
	if cfg.Deployment.Mode == types.ModeProd {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting API server", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}
