package mongodb

import (
	"context"

	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
	"github.com/pulsenote/billing/internal/logger"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const subscriptionCollection = "subscription_records"

type subscriptionRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

// NewSubscriptionRepository creates a mongo-backed subscription.Repository.
func NewSubscriptionRepository(client *Client, logger *logger.Logger) subscription.Repository {
	return &subscriptionRepository{
		coll:   client.Database().Collection(subscriptionCollection),
		logger: logger,
	}
}

// EnsureIndexes creates the unique user_id index. Called once at startup.
func EnsureIndexes(ctx context.Context, client *Client) error {
	coll := client.Database().Collection(subscriptionCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription record indexes").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) GetByUser(ctx context.Context, userID string) (*subscription.Record, error) {
	var rec subscription.Record
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ierr.NewError("record not found").
				WithHintf("no billing record for user %s", userID).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch billing record").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrDatabase)
	}
	return &rec, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, record *subscription.Record) error {
	_, err := r.coll.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ierr.NewError("record already exists").
				WithHintf("billing record for user %s already exists", record.UserID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create billing record").
			WithReportableDetails(map[string]any{"user_id": record.UserID}).
			Mark(ierr.ErrDatabase)
	}
	return nil
}

// Update translates the structured diff into field-level $set/$unset so
// concurrent writers touching disjoint fields never clobber each other.
func (r *subscriptionRepository) Update(ctx context.Context, userID string, update *subscription.RecordUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	set, unset := updateDocuments(update)
	doc := bson.M{"$currentDate": bson.M{"updated_at": true}}
	if len(set) > 0 {
		doc["$set"] = set
	}
	if len(unset) > 0 {
		doc["$unset"] = unset
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"user_id": userID}, doc)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing record").
			WithReportableDetails(map[string]any{"user_id": userID}).
			Mark(ierr.ErrDatabase)
	}
	if res.MatchedCount == 0 {
		return ierr.NewError("record not found").
			WithHintf("no billing record for user %s", userID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func updateDocuments(u *subscription.RecordUpdate) (set bson.M, unset bson.M) {
	set = bson.M{}
	unset = bson.M{}

	if u.Tier != nil {
		set["tier"] = *u.Tier
	}
	if u.RenewalPeriod != nil {
		set["billing.renewal_period"] = *u.RenewalPeriod
	}
	if u.CurrentPeriodStart != nil {
		set["billing.current_period_start"] = *u.CurrentPeriodStart
	}
	if u.CurrentPeriodEnd != nil {
		set["billing.current_period_end"] = *u.CurrentPeriodEnd
	}
	if u.GatewaySubscriptionID != nil {
		set["billing.gateway_subscription_id"] = *u.GatewaySubscriptionID
	}
	if u.GatewayCustomerID != nil {
		set["billing.gateway_customer_id"] = *u.GatewayCustomerID
	}
	if u.PaymentMethod != nil {
		set["billing.payment_method"] = *u.PaymentMethod
	}
	if u.LastPaymentStatus != nil {
		set["billing.last_payment_status"] = *u.LastPaymentStatus
	}
	if u.LastPaymentAt != nil {
		set["billing.last_payment_at"] = *u.LastPaymentAt
	}
	if u.Status != nil {
		set["billing.status"] = *u.Status
	}
	if u.StatusReason != nil {
		set["billing.status_reason"] = *u.StatusReason
	}
	if u.StatusChangedAt != nil {
		set["billing.status_changed_at"] = *u.StatusChangedAt
	}
	if u.UpgradeInProgress != nil {
		set["billing.upgrade_in_progress"] = *u.UpgradeInProgress
	}
	if u.TargetPlanID != nil {
		set["billing.target_plan_id"] = *u.TargetPlanID
	}
	if u.TransitionAt != nil {
		set["billing.transition_at"] = *u.TransitionAt
	}
	if u.ConfirmationSent != nil {
		set["billing.confirmation_sent"] = *u.ConfirmationSent
	}
	if u.SupersededSubscriptionID != nil {
		set["billing.superseded_subscription_id"] = *u.SupersededSubscriptionID
	}

	if u.ClearGatewaySubscriptionID {
		unset["billing.gateway_subscription_id"] = ""
	}
	if u.ClearPeriod {
		unset["billing.current_period_start"] = ""
		unset["billing.current_period_end"] = ""
	}
	if u.ClearTargetPlan {
		unset["billing.target_plan_id"] = ""
		unset["billing.transition_at"] = ""
	}
	if u.ClearSupersededSubscriptionID {
		unset["billing.superseded_subscription_id"] = ""
	}

	return set, unset
}
