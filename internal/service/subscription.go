package service

import (
	"context"

	"github.com/pulsenote/billing/internal/api/dto"
	"github.com/pulsenote/billing/internal/domain/subscription"
	ierr "github.com/pulsenote/billing/internal/errors"
)

// SubscriptionService exposes read access to subscription records and the
// plan catalog.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)
	ListPlans(ctx context.Context) (*dto.ListPlansResponse, error)
}

type subscriptionService struct {
	ServiceParams
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(params ServiceParams) SubscriptionService {
	return &subscriptionService{ServiceParams: params}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	if userID == "" {
		return nil, ierr.NewError("user_id is required").
			WithHint("Please provide a user id").
			Mark(ierr.ErrValidation)
	}

	rec, err := s.SubscriptionRepo.GetByUser(ctx, userID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, ierr.WithError(subscription.ErrNoSubscription).
				WithHint("User has no billing record").
				Mark(ierr.ErrNotFound)
		}
		return nil, err
	}

	return &dto.SubscriptionResponse{Record: rec}, nil
}

func (s *subscriptionService) ListPlans(ctx context.Context) (*dto.ListPlansResponse, error) {
	return dto.NewListPlansResponse(s.Catalog.List()), nil
}
