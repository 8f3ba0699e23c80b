package testutil

import (
	"context"
	"time"

	"github.com/pulsenote/billing/internal/config"
	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores holds the repository fakes for testing
type Stores struct {
	SubscriptionRepo *InMemorySubscriptionStore
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	gateway  *FakeGateway
	notifier *FakeNotifier
	catalog  *plan.Catalog
	logger   *logger.Logger
	config   *config.Configuration
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	s.config = &config.Configuration{
		Logging: config.LoggingConfig{
			Level: types.LogLevelInfo,
		},
	}
	s.logger = logger.NewNop()
	s.catalog = plan.DefaultCatalog()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.stores = Stores{
		SubscriptionRepo: NewInMemorySubscriptionStore(),
	}
	s.gateway = NewFakeGateway()
	s.notifier = NewFakeNotifier()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.stores.SubscriptionRepo.Clear()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the fake payment gateway
func (s *BaseServiceTestSuite) GetGateway() *FakeGateway {
	return s.gateway
}

// GetNotifier returns the fake notifier
func (s *BaseServiceTestSuite) GetNotifier() *FakeNotifier {
	return s.notifier
}

// GetCatalog returns the default plan catalog
func (s *BaseServiceTestSuite) GetCatalog() *plan.Catalog {
	return s.catalog
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the time recorded at test setup
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
