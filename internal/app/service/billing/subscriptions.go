package billing

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/types"
)

// GetUserSubscriptions returns the dashboard view of a user's
// subscriptions, newest first.
func (s *Service) GetUserSubscriptions(ctx context.Context, userID string) ([]*types.UserSubscriptionInfo, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at desc").
		Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return lo.Map(subs, func(sub *models.Subscription, _ int) *types.UserSubscriptionInfo {
		info := &types.UserSubscriptionInfo{
			PlanID:      sub.PlanID,
			Status:      sub.Status,
			AccessLevel: sub.AccessLevel,
			ExpiresAt:   sub.ExpiresAt,
		}
		if plan := s.cfg.ResolvePlan(sub.PlanID); plan != nil {
			info.PlanName = plan.Name
		}
		return info
	}), nil
}
