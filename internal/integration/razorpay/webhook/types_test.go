package webhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventUnmarshal(t *testing.T) {
	payload := `{
		"entity": "event",
		"event": "subscription.activated",
		"contains": ["subscription"],
		"payload": {
			"subscription": {
				"entity": {
					"id": "sub_001",
					"entity": "subscription",
					"plan_id": "plan_basic_monthly",
					"customer_id": "cust_001",
					"status": "active",
					"payment_method": "upi",
					"current_start": 1756400000,
					"current_end": 1758992000,
					"total_count": 12,
					"paid_count": 1,
					"notes": {"user_id": "user_1"}
				}
			}
		},
		"created_at": 1756400100
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, EventSubscriptionActivated, event.Type())
	assert.Equal(t, "user_1", event.UserID())

	sub := event.Payload.Subscription.Entity
	assert.Equal(t, "sub_001", sub.ID)
	assert.Equal(t, "plan_basic_monthly", sub.PlanID)

	start, end := sub.CurrentPeriod()
	require.NotNil(t, start)
	require.NotNil(t, end)
	assert.True(t, end.After(*start))
	assert.Nil(t, sub.EndedAtTime())
}

func TestEventUserIDFromPaymentNotes(t *testing.T) {
	payload := `{
		"entity": "event",
		"event": "payment.captured",
		"payload": {
			"payment": {
				"entity": {
					"id": "pay_001",
					"entity": "payment",
					"amount": 9933,
					"currency": "INR",
					"status": "captured",
					"notes": {"user_id": "user_1", "plan_id": "plan_pro_monthly"}
				}
			}
		}
	}`

	var event Event
	require.NoError(t, json.Unmarshal([]byte(payload), &event))

	assert.Equal(t, EventPaymentCaptured, event.Type())
	assert.Equal(t, "user_1", event.UserID())
	assert.Equal(t, "plan_pro_monthly", event.Payload.Payment.Entity.Notes.String("plan_id"))
}

func TestFlexibleNotesAcceptsEmptyArray(t *testing.T) {
	var notes FlexibleNotes
	require.NoError(t, json.Unmarshal([]byte(`[]`), &notes))
	assert.Empty(t, notes)
	assert.Equal(t, "", notes.String("user_id"))

	require.NoError(t, json.Unmarshal([]byte(`{"user_id": "user_1"}`), &notes))
	assert.Equal(t, "user_1", notes.String("user_id"))

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &notes))
}

func TestEventWithoutNotesHasNoUserID(t *testing.T) {
	var event Event
	require.NoError(t, json.Unmarshal([]byte(`{"entity":"event","event":"subscription.charged","payload":{}}`), &event))
	assert.Equal(t, "", event.UserID())
}
