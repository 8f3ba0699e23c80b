package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/pulsenote/billing/internal/config"
	"github.com/pulsenote/billing/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, cfg config.RazorpayConfig) *client {
	t.Helper()
	c, ok := NewClient(cfg, logger.NewNop()).(*client)
	require.True(t, ok)
	return c
}

func TestNewClientAppliesCallTimeout(t *testing.T) {
	c := newTestClient(t, config.RazorpayConfig{
		KeyID:       "rzp_test_key",
		KeySecret:   "secret",
		CallTimeout: 30 * time.Second,
	})
	assert.NotNil(t, c.sdk)
	assert.Equal(t, 30*time.Second, c.config.CallTimeout)
}

func TestVerifyWebhookSignature(t *testing.T) {
	c := newTestClient(t, config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "api_secret",
		WebhookSecret: "whsec",
	})

	payload := []byte(`{"entity":"event","event":"subscription.activated"}`)
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	assert.NoError(t, c.VerifyWebhookSignature(payload, signature))
	assert.Error(t, c.VerifyWebhookSignature(payload, "deadbeef"))
	assert.Error(t, c.VerifyWebhookSignature([]byte(`{"tampered":true}`), signature))
}

func TestSubscriptionFromMap(t *testing.T) {
	raw := map[string]interface{}{
		"id":            "sub_001",
		"plan_id":       "plan_pro_monthly",
		"status":        "active",
		"customer_id":   "cust_001",
		"short_url":     "https://rzp.io/i/abc",
		"current_start": float64(1717200000),
		"current_end":   float64(1719792000),
		"ended_at":      nil,
		"paid_count":    float64(2),
		"total_count":   float64(12),
	}

	sub := subscriptionFromMap(raw)
	assert.Equal(t, "sub_001", sub.ID)
	assert.Equal(t, "plan_pro_monthly", sub.PlanID)
	assert.Equal(t, "active", sub.Status)
	assert.Equal(t, 2, sub.PaidCount)
	assert.Equal(t, 12, sub.TotalCount)
	require.NotNil(t, sub.CurrentStart)
	assert.Equal(t, int64(1717200000), sub.CurrentStart.Unix())
	assert.Nil(t, sub.EndedAt)
}

func TestGetInt64ToleratesNumericVariants(t *testing.T) {
	raw := map[string]interface{}{
		"as_float": float64(42),
		"as_int":   7,
		"as_int64": int64(9),
		"missing":  nil,
	}
	assert.Equal(t, int64(42), getInt64(raw, "as_float"))
	assert.Equal(t, int64(7), getInt64(raw, "as_int"))
	assert.Equal(t, int64(9), getInt64(raw, "as_int64"))
	assert.Zero(t, getInt64(raw, "missing"))
	assert.Zero(t, getInt64(raw, "absent"))
}
