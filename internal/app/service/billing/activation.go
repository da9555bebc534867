package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/logctx"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

// ActivateByEmail resolves the account for a customer email and activates
// the plan. Shared by the webhook success path and the pending-payment
// poller so the two never drift.
func (s *Service) ActivateByEmail(ctx context.Context, email, subscriptionID, planID string, isTest bool) error {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, email)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	return s.Activate(ctx, user.ID, subscriptionID, planID, isTest)
}

// Activate upserts the user+plan subscription to active with a fresh
// 30-day window and appends the audit trail entry.
func (s *Service) Activate(ctx context.Context, userID, subscriptionID, planID string, isTest bool) error {
	plan := s.cfg.ResolvePlan(planID)
	if plan == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPlan, planID)
	}

	expiresAt := time.Now().Add(BillingPeriod)

	sub := &models.Subscription{
		UserID:         userID,
		PlanID:         plan.ID,
		SubscriptionID: subscriptionID,
		Status:         types.SubscriptionStatusActive,
		AccessLevel:    plan.AccessLevel,
		ExpiresAt:      lo.ToPtr(expiresAt),
		IsTest:         isTest,
	}
	if err := s.upsertSubscription(ctx, sub); err != nil {
		return err
	}

	logctx.FromCtx(ctx, s.log).Infow("subscription_activated",
		"user_id", userID, "plan_id", plan.ID, "access_level", plan.AccessLevel, "expires_at", expiresAt)

	entry := &models.SubscriptionHistoryEntry{
		ID:     tool.GenerateSnowflakeID(),
		UserID: userID,
		PlanID: plan.ID,
		Action: types.SubscriptionHistoryActionUpgrade,
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append subscription history: %w", err)
	}
	return nil
}

// upsertSubscription creates or replaces the row keyed by user+plan,
// preserving the original id and creation time on replace.
func (s *Service) upsertSubscription(ctx context.Context, sub *models.Subscription) error {
	var original models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND plan_id = ?", sub.UserID, sub.PlanID).
		First(&original).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load original subscription: %w", err)
	}

	if original.ID != "" {
		sub.ID = original.ID
		sub.CreatedAt = original.CreatedAt
	} else if sub.ID == "" {
		sub.ID = tool.GenerateUUIDV7()
	}

	if err := s.db.WithContext(ctx).Save(sub).Error; err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

// MarkTransaction flips a transaction's status; used by the reconciliation
// poller when the gateway reports a final state.
func (s *Service) MarkTransaction(ctx context.Context, id string, status types.TransactionStatus) error {
	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to mark transaction: %w", res.Error)
	}
	return nil
}
