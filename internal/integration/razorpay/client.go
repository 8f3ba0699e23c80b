package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/pulsenote/billing/internal/config"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/pulsenote/billing/internal/types"
	razorpay "github.com/razorpay/razorpay-go"
)

// client implements Gateway on top of the official Razorpay SDK.
type client struct {
	sdk    *razorpay.Client
	config config.RazorpayConfig
	logger *logger.Logger
}

// NewClient creates a new Razorpay gateway client
func NewClient(cfg config.RazorpayConfig, logger *logger.Logger) Gateway {
	sdk := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	if cfg.CallTimeout > 0 {
		sdk.SetTimeout(int16(cfg.CallTimeout / time.Second))
	}
	return &client{
		sdk:    sdk,
		config: cfg,
		logger: logger,
	}
}

// CreateSubscription creates a subscription in Razorpay
func (c *client) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"plan_id":         req.PlanID,
		"total_count":     req.TotalCount,
		"customer_notify": boolToInt(req.CustomerNotify),
		"notes":           notesData(req.Notes),
	}

	raw, err := c.sdk.Subscription.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create subscription in Razorpay",
			"error", err,
			"plan_id", req.PlanID)
		return nil, ierr.NewError("failed to create subscription in Razorpay").
			WithHint("Unable to create subscription with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"plan_id": req.PlanID,
				"error":   err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	sub := subscriptionFromMap(raw)
	c.logger.Infow("successfully created subscription in Razorpay",
		"subscription_id", sub.ID,
		"plan_id", req.PlanID,
		"status", sub.Status)
	return sub, nil
}

// UpdateSubscription updates a subscription in place in Razorpay
func (c *client) UpdateSubscription(ctx context.Context, subscriptionID string, req *UpdateSubscriptionRequest) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"plan_id":         req.PlanID,
		"remaining_count": req.RemainingCycles,
	}
	if req.EffectiveNow {
		data["schedule_change_at"] = "now"
	} else {
		data["schedule_change_at"] = "cycle_end"
	}

	raw, err := c.sdk.Subscription.Update(subscriptionID, data, nil)
	if err != nil {
		c.logger.Errorw("failed to update subscription in Razorpay",
			"error", err,
			"subscription_id", subscriptionID,
			"plan_id", req.PlanID)
		return nil, ierr.NewError("failed to update subscription in Razorpay").
			WithHint("Unable to update subscription with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
				"plan_id":         req.PlanID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	sub := subscriptionFromMap(raw)
	c.logger.Infow("successfully updated subscription in Razorpay",
		"subscription_id", sub.ID,
		"plan_id", req.PlanID,
		"status", sub.Status)
	return sub, nil
}

// CancelSubscription cancels a subscription in Razorpay
func (c *client) CancelSubscription(ctx context.Context, subscriptionID string, atCycleEnd bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data := map[string]interface{}{
		"cancel_at_cycle_end": boolToInt(atCycleEnd),
	}

	_, err := c.sdk.Subscription.Cancel(subscriptionID, data, nil)
	if err != nil {
		c.logger.Errorw("failed to cancel subscription in Razorpay",
			"error", err,
			"subscription_id", subscriptionID,
			"at_cycle_end", atCycleEnd)
		return ierr.NewError("failed to cancel subscription in Razorpay").
			WithHint("Unable to cancel subscription with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	c.logger.Infow("successfully cancelled subscription in Razorpay",
		"subscription_id", subscriptionID,
		"at_cycle_end", atCycleEnd)
	return nil
}

// FetchSubscription retrieves a subscription from Razorpay by ID
func (c *client) FetchSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.sdk.Subscription.Fetch(subscriptionID, nil, nil)
	if err != nil {
		c.logger.Errorw("failed to fetch subscription from Razorpay",
			"error", err,
			"subscription_id", subscriptionID)
		return nil, ierr.NewError("failed to fetch subscription from Razorpay").
			WithHint("Unable to retrieve subscription from the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	return subscriptionFromMap(raw), nil
}

// CreateOrder creates a one-off order in Razorpay
func (c *client) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"notes":    notesData(req.Notes),
	}

	raw, err := c.sdk.Order.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create order in Razorpay",
			"error", err,
			"amount", req.AmountMinor,
			"currency", req.Currency)
		return nil, ierr.NewError("failed to create order in Razorpay").
			WithHint("Unable to create order with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"error": err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	order := &Order{
		ID:          getString(raw, "id"),
		AmountMinor: getInt64(raw, "amount"),
		Currency:    getString(raw, "currency"),
		Status:      getString(raw, "status"),
	}
	c.logger.Infow("successfully created order in Razorpay",
		"order_id", order.ID,
		"amount", order.AmountMinor)
	return order, nil
}

// CreateInvoice creates an invoice in Razorpay with a single inline line item
func (c *client) CreateInvoice(ctx context.Context, req *CreateInvoiceRequest) (*Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"type":     "invoice",
		"currency": req.Currency,
		"line_items": []map[string]interface{}{
			{
				"name":     req.Description,
				"amount":   req.AmountMinor,
				"currency": req.Currency,
				"quantity": 1,
			},
		},
		"notes": notesData(req.Notes),
	}
	if req.CustomerID != "" {
		data["customer_id"] = req.CustomerID
	}
	if req.SubscriptionID != "" {
		data["subscription_id"] = req.SubscriptionID
	}

	raw, err := c.sdk.Invoice.Create(data, nil)
	if err != nil {
		c.logger.Errorw("failed to create invoice in Razorpay",
			"error", err,
			"subscription_id", req.SubscriptionID,
			"amount", req.AmountMinor)
		return nil, ierr.NewError("failed to create invoice in Razorpay").
			WithHint("Unable to create invoice with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": req.SubscriptionID,
				"error":           err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	invoice := &Invoice{
		ID:          getString(raw, "id"),
		Status:      getString(raw, "status"),
		ShortURL:    getString(raw, "short_url"),
		AmountMinor: getInt64(raw, "amount"),
	}
	c.logger.Infow("successfully created invoice in Razorpay",
		"invoice_id", invoice.ID,
		"status", invoice.Status)
	return invoice, nil
}

// CreateRefund issues a partial refund against a captured payment
func (c *client) CreateRefund(ctx context.Context, paymentID string, amountMinor int64, notes types.Metadata) (*Refund, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"notes": notesData(notes),
	}

	raw, err := c.sdk.Payment.Refund(paymentID, int(amountMinor), data, nil)
	if err != nil {
		c.logger.Errorw("failed to create refund in Razorpay",
			"error", err,
			"payment_id", paymentID,
			"amount", amountMinor)
		return nil, ierr.NewError("failed to create refund in Razorpay").
			WithHint("Unable to issue refund with the payment gateway").
			WithReportableDetails(map[string]interface{}{
				"payment_id": paymentID,
				"error":      err.Error(),
			}).
			Mark(ierr.ErrGateway)
	}

	refund := &Refund{
		ID:          getString(raw, "id"),
		Status:      getString(raw, "status"),
		AmountMinor: getInt64(raw, "amount"),
	}
	c.logger.Infow("successfully created refund in Razorpay",
		"refund_id", refund.ID,
		"payment_id", paymentID,
		"amount", amountMinor)
	return refund, nil
}

// VerifyWebhookSignature verifies the Razorpay webhook signature.
// Razorpay signs the raw webhook body with HMAC SHA256.
func (c *client) VerifyWebhookSignature(payload []byte, signature string) error {
	// Webhooks should use the webhook secret; fall back to the API secret
	// when no webhook secret is configured.
	secret := c.config.WebhookSecret
	if secret == "" {
		c.logger.Warnw("webhook secret not configured, using API secret key as fallback")
		secret = c.config.KeySecret
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		c.logger.Errorw("webhook signature mismatch",
			"payload_length", len(payload),
			"using_webhook_secret", c.config.WebhookSecret != "")
		return ierr.NewError("webhook signature verification failed").
			WithHint("Invalid webhook signature").
			Mark(ierr.ErrPermissionDenied)
	}

	return nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func notesData(notes types.Metadata) map[string]interface{} {
	data := make(map[string]interface{}, len(notes))
	for k, v := range notes {
		data[k] = v
	}
	return data
}

// subscriptionFromMap decodes the SDK's raw response into the typed entity.
// Numeric fields arrive as json float64.
func subscriptionFromMap(raw map[string]interface{}) *Subscription {
	return &Subscription{
		ID:           getString(raw, "id"),
		PlanID:       getString(raw, "plan_id"),
		Status:       getString(raw, "status"),
		CustomerID:   getString(raw, "customer_id"),
		ShortURL:     getString(raw, "short_url"),
		CurrentStart: getUnixTime(raw, "current_start"),
		CurrentEnd:   getUnixTime(raw, "current_end"),
		EndedAt:      getUnixTime(raw, "ended_at"),
		PaidCount:    int(getInt64(raw, "paid_count")),
		TotalCount:   int(getInt64(raw, "total_count")),
	}
}

func getString(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func getInt64(raw map[string]interface{}, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func getUnixTime(raw map[string]interface{}, key string) *time.Time {
	ts := getInt64(raw, key)
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
