package service

import (
	"context"

	"github.com/pulsenote/billing/internal/domain/plan"
	"github.com/pulsenote/billing/internal/logger"
)

// Notifier delivers the one-time subscription confirmation message to the
// user. The reconciliation state machine guarantees at-most-once invocation
// per subscription lifetime; implementations do not need their own dedup.
type Notifier interface {
	SendPlanConfirmation(ctx context.Context, userID string, p *plan.Plan) error
}

// logNotifier is the default Notifier. It only records the send; the real
// delivery channel is wired by the embedding product.
type logNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier returns a Notifier that logs instead of sending.
func NewLogNotifier(logger *logger.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) SendPlanConfirmation(ctx context.Context, userID string, p *plan.Plan) error {
	n.logger.Infow("subscription confirmation notification",
		"user_id", userID,
		"plan_id", p.ID,
		"tier", p.Tier)
	return nil
}
