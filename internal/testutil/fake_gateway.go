package testutil

import (
	"context"
	"fmt"
	"sync"

	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/integration/razorpay"
	"github.com/pulsenote/billing/internal/types"
)

// FakeGateway implements razorpay.Gateway for tests. Each method records its
// arguments and can be scripted to fail independently, which is how the
// primary-vs-secondary failure semantics of the plan change flows get
// exercised.
type FakeGateway struct {
	mu     sync.Mutex
	subSeq int

	CreateSubscriptionErr error
	UpdateSubscriptionErr error
	CancelSubscriptionErr error
	FetchSubscriptionErr  error
	CreateOrderErr        error
	CreateInvoiceErr      error
	CreateRefundErr       error

	// NextSubscription, when set, is returned by the next CreateSubscription
	// call instead of a generated one.
	NextSubscription *razorpay.Subscription

	CreatedSubscriptions []*razorpay.CreateSubscriptionRequest
	SubscriptionUpdates  []SubscriptionUpdateCall
	Cancellations        []CancelCall
	Invoices             []*razorpay.CreateInvoiceRequest
	Orders               []*razorpay.CreateOrderRequest
	Refunds              []RefundCall

	calls map[string]int
}

// SubscriptionUpdateCall records one UpdateSubscription invocation.
type SubscriptionUpdateCall struct {
	SubscriptionID string
	Request        *razorpay.UpdateSubscriptionRequest
}

// CancelCall records one CancelSubscription invocation.
type CancelCall struct {
	SubscriptionID string
	AtCycleEnd     bool
}

// RefundCall records one CreateRefund invocation.
type RefundCall struct {
	PaymentID   string
	AmountMinor int64
	Notes       types.Metadata
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{calls: make(map[string]int)}
}

// CallCount returns how many times the named method was invoked.
func (g *FakeGateway) CallCount(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

// TotalCalls returns the number of gateway invocations across all methods.
func (g *FakeGateway) TotalCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	total := 0
	for _, n := range g.calls {
		total += n
	}
	return total
}

func (g *FakeGateway) CreateSubscription(ctx context.Context, req *razorpay.CreateSubscriptionRequest) (*razorpay.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CreateSubscription"]++
	g.CreatedSubscriptions = append(g.CreatedSubscriptions, req)

	if g.CreateSubscriptionErr != nil {
		return nil, g.CreateSubscriptionErr
	}
	if next := g.NextSubscription; next != nil {
		g.NextSubscription = nil
		return next, nil
	}

	g.subSeq++
	return &razorpay.Subscription{
		ID:         fmt.Sprintf("sub_fake%03d", g.subSeq),
		PlanID:     req.PlanID,
		Status:     "created",
		ShortURL:   fmt.Sprintf("https://rzp.io/i/fake%03d", g.subSeq),
		TotalCount: req.TotalCount,
	}, nil
}

func (g *FakeGateway) UpdateSubscription(ctx context.Context, subscriptionID string, req *razorpay.UpdateSubscriptionRequest) (*razorpay.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["UpdateSubscription"]++
	g.SubscriptionUpdates = append(g.SubscriptionUpdates, SubscriptionUpdateCall{
		SubscriptionID: subscriptionID,
		Request:        req,
	})

	if g.UpdateSubscriptionErr != nil {
		return nil, g.UpdateSubscriptionErr
	}
	return &razorpay.Subscription{
		ID:         subscriptionID,
		PlanID:     req.PlanID,
		Status:     "active",
		TotalCount: req.RemainingCycles,
	}, nil
}

func (g *FakeGateway) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CancelSubscription"]++
	g.Cancellations = append(g.Cancellations, CancelCall{
		SubscriptionID: subscriptionID,
		AtCycleEnd:     atCycleEnd,
	})
	return g.CancelSubscriptionErr
}

func (g *FakeGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*razorpay.Subscription, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["FetchSubscription"]++

	if g.FetchSubscriptionErr != nil {
		return nil, g.FetchSubscriptionErr
	}
	return &razorpay.Subscription{ID: subscriptionID, Status: "active"}, nil
}

func (g *FakeGateway) CreateOrder(ctx context.Context, req *razorpay.CreateOrderRequest) (*razorpay.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CreateOrder"]++
	g.Orders = append(g.Orders, req)

	if g.CreateOrderErr != nil {
		return nil, g.CreateOrderErr
	}
	return &razorpay.Order{
		ID:          fmt.Sprintf("order_fake%03d", len(g.Orders)),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Status:      "created",
	}, nil
}

func (g *FakeGateway) CreateInvoice(ctx context.Context, req *razorpay.CreateInvoiceRequest) (*razorpay.Invoice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CreateInvoice"]++
	g.Invoices = append(g.Invoices, req)

	if g.CreateInvoiceErr != nil {
		return nil, g.CreateInvoiceErr
	}
	return &razorpay.Invoice{
		ID:          fmt.Sprintf("inv_fake%03d", len(g.Invoices)),
		Status:      "issued",
		AmountMinor: req.AmountMinor,
	}, nil
}

func (g *FakeGateway) CreateRefund(ctx context.Context, paymentID string, amountMinor int64, notes types.Metadata) (*razorpay.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["CreateRefund"]++
	g.Refunds = append(g.Refunds, RefundCall{
		PaymentID:   paymentID,
		AmountMinor: amountMinor,
		Notes:       notes,
	})

	if g.CreateRefundErr != nil {
		return nil, g.CreateRefundErr
	}
	return &razorpay.Refund{
		ID:          fmt.Sprintf("rfnd_fake%03d", len(g.Refunds)),
		Status:      "processed",
		AmountMinor: amountMinor,
	}, nil
}

func (g *FakeGateway) VerifyWebhookSignature(payload []byte, signature string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls["VerifyWebhookSignature"]++

	if signature == "invalid" {
		return ierr.NewError("invalid webhook signature").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

// GatewayError builds a scripted failure in the shape real gateway calls
// return.
func GatewayError(message string) error {
	return ierr.NewError(message).
		WithHint("The payment gateway request failed").
		Mark(ierr.ErrGateway)
}
