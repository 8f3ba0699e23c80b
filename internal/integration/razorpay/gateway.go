package razorpay

import (
	"context"
	"time"

	"github.com/pulsenote/billing/internal/types"
)

// Gateway abstracts the Razorpay operations the billing core depends on.
// Every call is all-or-nothing with a bounded timeout; a timeout is treated
// as a failure of that step and never assumed to have silently succeeded.
type Gateway interface {
	CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error)
	UpdateSubscription(ctx context.Context, subscriptionID string, req *UpdateSubscriptionRequest) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) error
	FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error)
	CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error)
	CreateRefund(ctx context.Context, paymentID string, amountMinor int64, notes types.Metadata) (*Refund, error)
	VerifyWebhookSignature(payload []byte, signature string) error
}

// CreateSubscriptionRequest creates a recurring subscription on a plan.
type CreateSubscriptionRequest struct {
	PlanID         string
	TotalCount     int
	CustomerNotify bool
	Notes          types.Metadata
}

// UpdateSubscriptionRequest modifies a subscription in place. EffectiveNow
// asks the gateway to apply the change to the running cycle with its own
// proration rather than at the next renewal.
type UpdateSubscriptionRequest struct {
	PlanID          string
	EffectiveNow    bool
	RemainingCycles int
}

// Subscription is the subset of the gateway subscription entity the billing
// core consumes.
type Subscription struct {
	ID           string
	PlanID       string
	Status       string
	CustomerID   string
	ShortURL     string
	CurrentStart *time.Time
	CurrentEnd   *time.Time
	EndedAt      *time.Time
	PaidCount    int
	TotalCount   int
}

// CreateOrderRequest creates a one-off order.
type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	Notes       types.Metadata
}

// Order is a gateway order.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Status      string
}

// CreateInvoiceRequest creates a standalone invoice, used for the discounted
// first charge when a mandate-based subscription is swapped mid-cycle.
type CreateInvoiceRequest struct {
	SubscriptionID string
	CustomerID     string
	AmountMinor    int64
	Currency       string
	Description    string
	Notes          types.Metadata
}

// Invoice is a gateway invoice.
type Invoice struct {
	ID          string
	Status      string
	ShortURL    string
	AmountMinor int64
}

// Refund is a gateway refund.
type Refund struct {
	ID          string
	Status      string
	AmountMinor int64
}
