package webhook

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of Razorpay webhook event
type EventType string

const (
	// Subscription lifecycle events
	EventSubscriptionActivated     EventType = "subscription.activated"
	EventSubscriptionAuthenticated EventType = "subscription.authenticated"
	EventSubscriptionCharged       EventType = "subscription.charged"
	EventSubscriptionCompleted     EventType = "subscription.completed"
	EventSubscriptionResumed       EventType = "subscription.resumed"
	EventSubscriptionUpdated       EventType = "subscription.updated"
	EventSubscriptionCancelled     EventType = "subscription.cancelled"
	EventSubscriptionHalted        EventType = "subscription.halted"

	// Payment events
	EventPaymentCaptured EventType = "payment.captured"
	EventPaymentFailed   EventType = "payment.failed"
)

// Event represents a Razorpay webhook event envelope
type Event struct {
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	Payload   Payload  `json:"payload"`
	CreatedAt int64    `json:"created_at"`
}

// Type returns the typed event name
func (e *Event) Type() EventType {
	return EventType(e.Event)
}

// Payload represents the payload of a Razorpay webhook. Which entity is
// present depends on the event family.
type Payload struct {
	Subscription *PayloadSubscription `json:"subscription,omitempty"`
	Payment      *PayloadPayment      `json:"payment,omitempty"`
}

// PayloadSubscription wraps the subscription entity in the webhook payload
type PayloadSubscription struct {
	Entity SubscriptionEntity `json:"entity"`
}

// PayloadPayment wraps the payment entity in the webhook payload
type PayloadPayment struct {
	Entity PaymentEntity `json:"entity"`
}

// SubscriptionEntity is a Razorpay subscription as delivered in webhooks
type SubscriptionEntity struct {
	ID            string        `json:"id"`
	Entity        string        `json:"entity"`
	PlanID        string        `json:"plan_id"`
	CustomerID    string        `json:"customer_id"`
	Status        string        `json:"status"`         // created, authenticated, active, halted, cancelled, completed
	PaymentMethod string        `json:"payment_method"` // upi, card, netbanking, wallet
	CurrentStart  int64         `json:"current_start"`  // Unix timestamp of the running cycle start
	CurrentEnd    int64         `json:"current_end"`    // Unix timestamp of the running cycle end
	EndedAt       int64         `json:"ended_at"`       // Unix timestamp when the subscription ended, 0 while running
	ChargeAt      int64         `json:"charge_at"`      // Unix timestamp of the next charge
	TotalCount    int           `json:"total_count"`
	PaidCount     int           `json:"paid_count"`
	Notes         FlexibleNotes `json:"notes"`
	CreatedAt     int64         `json:"created_at"`
}

// CurrentPeriod returns the billing window reported by the event, when present.
func (s *SubscriptionEntity) CurrentPeriod() (start, end *time.Time) {
	return unixPtr(s.CurrentStart), unixPtr(s.CurrentEnd)
}

// EndedAtTime returns the subscription end time, when reported.
func (s *SubscriptionEntity) EndedAtTime() *time.Time {
	return unixPtr(s.EndedAt)
}

// PaymentEntity is a Razorpay payment as delivered in webhooks
type PaymentEntity struct {
	ID               string        `json:"id"`
	Entity           string        `json:"entity"`
	Amount           int64         `json:"amount"`   // Amount in smallest currency unit (paise)
	Currency         string        `json:"currency"` // Currency code (INR, USD, etc.)
	Status           string        `json:"status"`   // created, authorized, captured, refunded, failed
	OrderID          string        `json:"order_id"`
	InvoiceID        string        `json:"invoice_id"`
	Method           string        `json:"method"` // card, netbanking, wallet, upi
	Description      string        `json:"description"`
	Email            string        `json:"email"`
	Contact          string        `json:"contact"`
	ErrorCode        string        `json:"error_code"`
	ErrorDescription string        `json:"error_description"`
	ErrorSource      string        `json:"error_source"`
	ErrorStep        string        `json:"error_step"`
	ErrorReason      string        `json:"error_reason"`
	Notes            FlexibleNotes `json:"notes"`
	CreatedAt        int64         `json:"created_at"`
}

// UserID extracts the internal user identity reference from the event's
// entity notes. Subscription notes take precedence over payment notes.
func (e *Event) UserID() string {
	if e.Payload.Subscription != nil {
		if id := e.Payload.Subscription.Entity.Notes.String("user_id"); id != "" {
			return id
		}
	}
	if e.Payload.Payment != nil {
		if id := e.Payload.Payment.Entity.Notes.String("user_id"); id != "" {
			return id
		}
	}
	return ""
}

// FlexibleNotes handles both array and object formats from Razorpay
// Razorpay sometimes sends empty array [] instead of empty object {}
type FlexibleNotes map[string]interface{}

// String returns the note value for a key when it is a string.
func (fn FlexibleNotes) String(key string) string {
	if v, ok := fn[key].(string); ok {
		return v
	}
	return ""
}

// UnmarshalJSON implements custom unmarshaling to handle both [] and {} formats
func (fn *FlexibleNotes) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as object first
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err == nil {
		*fn = m
		return nil
	}

	// If that fails, it might be an array (empty [])
	// Just initialize as empty map
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err == nil {
		*fn = make(map[string]interface{})
		return nil
	}

	// If both fail, return error
	return fmt.Errorf("notes must be either object or array")
}

func unixPtr(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
