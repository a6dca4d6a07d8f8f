// Package services implements higher-level business logic that coordinates
// across multiple repositories. Handlers stay thin and delegate the
// cross-cutting decisions, like plan enforcement, to this layer.
package services

import (
	"context"
	"fmt"

	"github.com/tanx-mis/tanx-mis/internal/db/models"
	"github.com/tanx-mis/tanx-mis/internal/db/repositories"
	"github.com/tanx-mis/tanx-mis/internal/telemetry"
)

// SubscriptionService enforces plan entitlements for an organization. The
// only hard limit a plan carries today is the number of simultaneously
// active projects; everything else on the plan is informational.
type SubscriptionService struct {
	subRepo     *repositories.SubscriptionRepository
	projectRepo *repositories.ProjectRepository
}

func NewSubscriptionService(subRepo *repositories.SubscriptionRepository, projectRepo *repositories.ProjectRepository) *SubscriptionService {
	return &SubscriptionService{
		subRepo:     subRepo,
		projectRepo: projectRepo,
	}
}

// GetActive returns the organization's current subscription joined with its
// plan, or nil when the organization has no usable subscription.
func (s *SubscriptionService) GetActive(ctx context.Context, orgID string) (*models.ActiveSubscription, error) {
	return s.subRepo.GetActiveSubscription(ctx, orgID)
}

// ProjectActivationDecision is the outcome of a plan check for activating a
// project. Limit is nil when the plan is unlimited or when there is no
// active subscription at all.
type ProjectActivationDecision struct {
	Allowed bool
	Reason  string
	Limit   *int
	Active  int
}

// CanActivateProject decides whether the organization may move one more
// project into the active state. Organizations without an active
// subscription cannot activate anything; existing active projects are never
// touched by this check, it only gates new activations.
func (s *SubscriptionService) CanActivateProject(ctx context.Context, orgID string) (*ProjectActivationDecision, error) {
	sub, err := s.subRepo.GetActiveSubscription(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}
	return s.CheckProjectLimit(ctx, orgID, sub)
}

// CheckProjectLimit applies the active-project limit of an already-fetched
// subscription. Callers that have looked up the subscription for other gates
// use this to avoid a second query; sub may be nil.
func (s *SubscriptionService) CheckProjectLimit(ctx context.Context, orgID string, sub *models.ActiveSubscription) (*ProjectActivationDecision, error) {
	if sub == nil {
		telemetry.PlanLimitRejectionsTotal.Inc()
		return &ProjectActivationDecision{
			Allowed: false,
			Reason:  "organization has no active subscription",
		}, nil
	}

	if sub.Plan.ProjectsAllowed == nil {
		return &ProjectActivationDecision{Allowed: true}, nil
	}

	active, err := s.projectRepo.CountActive(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to check plan limit: %w", err)
	}

	limit := *sub.Plan.ProjectsAllowed
	if active >= limit {
		telemetry.PlanLimitRejectionsTotal.Inc()
		return &ProjectActivationDecision{
			Allowed: false,
			Reason:  fmt.Sprintf("plan allows %d active projects and %d are already active", limit, active),
			Limit:   sub.Plan.ProjectsAllowed,
			Active:  active,
		}, nil
	}

	return &ProjectActivationDecision{
		Allowed: true,
		Limit:   sub.Plan.ProjectsAllowed,
		Active:  active,
	}, nil
}
