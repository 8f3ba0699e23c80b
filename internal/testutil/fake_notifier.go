package testutil

import (
	"context"
	"sync"

	"github.com/pulsenote/billing/internal/domain/plan"
)

// ConfirmationSend records one confirmation delivery.
type ConfirmationSend struct {
	UserID string
	PlanID string
}

// FakeNotifier records confirmation sends for assertions on the at-most-once
// guarantee.
type FakeNotifier struct {
	mu    sync.Mutex
	Err   error
	Sends []ConfirmationSend
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (n *FakeNotifier) SendPlanConfirmation(ctx context.Context, userID string, p *plan.Plan) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Sends = append(n.Sends, ConfirmationSend{UserID: userID, PlanID: p.ID})
	return n.Err
}

// SendCount returns how many confirmations were delivered.
func (n *FakeNotifier) SendCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Sends)
}
