package mongodb

import (
	"context"

	"github.com/pulsenote/billing/internal/config"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/logger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Client wraps the mongo database handle used by the repositories.
type Client struct {
	db     *mongo.Database
	logger *logger.Logger
}

// NewClient connects to MongoDB and pings it within the configured timeout.
func NewClient(ctx context.Context, cfg *config.Configuration, logger *logger.Logger) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(
		options.Client().
			ApplyURI(cfg.Mongo.URI).
			SetConnectTimeout(cfg.Mongo.ConnectTimeout).
			SetRetryWrites(true).
			SetRetryReads(true),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to MongoDB").
			Mark(ierr.ErrDatabase)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to ping MongoDB").
			Mark(ierr.ErrDatabase)
	}

	logger.Infow("connected to mongodb", "database", cfg.Mongo.Database)
	return &Client{
		db:     client.Database(cfg.Mongo.Database),
		logger: logger,
	}, nil
}

// Database returns the underlying database handle.
func (c *Client) Database() *mongo.Database {
	return c.db
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.Client().Ping(ctx, nil)
}

// Disconnect closes the underlying connection pool.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.db.Client().Disconnect(ctx)
}
