package billing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/logctx"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

// GrantPlan activates a plan for a user without payment (operator comp).
// It records a zero-amount transaction so the grant shows up in the ledger,
// then runs the same activation routine as a paid event.
func (s *Service) GrantPlan(ctx context.Context, userID, planID, operatorID string) error {
	if userID == "" || planID == "" {
		return fmt.Errorf("invalid params: userID and planID required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	grantID := tool.GenerateUUIDV7()
	txn := &models.Transaction{
		ID:            grantID,
		TransactionID: "grant_" + grantID,
		CustomerEmail: user.Email,
		PlanID:        planID,
		AmountCents:   0,
		Status:        types.TransactionStatusSuccess,
		PaymentMethod: "comp",
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to record grant transaction: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("plan_granted", "user_id", userID, "plan_id", planID, "operator_id", operatorID)

	return s.Activate(ctx, userID, txn.TransactionID, planID, false)
}
