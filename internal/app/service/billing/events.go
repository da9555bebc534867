package billing

import (
	"context"
	"fmt"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/logctx"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

// HandlePaymentSucceeded records the payment and (re)activates the
// subscription. Steps run sequentially with no compensation: a failure
// after the transaction insert leaves the transaction behind, which is
// logged as a partial commit and left for the reconciliation poller.
func (s *Service) HandlePaymentSucceeded(ctx context.Context, r *PaymentReceipt) error {
	if err := s.insertTransaction(ctx, r, types.TransactionStatusSuccess); err != nil {
		return err
	}

	if err := s.ActivateByEmail(ctx, r.CustomerEmail, r.TransactionID, r.PlanID, r.IsTest); err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("payment_partial_commit",
			"transaction_id", r.TransactionID,
			"customer_email", r.CustomerEmail,
			"completed_steps", "insert_transaction",
			"error", err.Error(),
		)
		return err
	}
	return nil
}

// HandlePaymentFailed records the failure and flags any subscription the
// provider already created for this payment. A missing subscription is a
// no-op, not an error.
func (s *Service) HandlePaymentFailed(ctx context.Context, r *PaymentReceipt) error {
	if err := s.insertTransaction(ctx, r, types.TransactionStatusFailed); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscription_id = ?", r.TransactionID).
		Update("status", types.SubscriptionStatusPaymentFailed)
	if res.Error != nil {
		return fmt.Errorf("failed to flag subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Infow("payment_failed_without_subscription", "subscription_id", r.TransactionID)
	}
	return nil
}

// HandleSubscriptionCancelled marks the matching subscription cancelled.
// Cancellations write no transaction row.
func (s *Service) HandleSubscriptionCancelled(ctx context.Context, externalID string) error {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("subscription_id = ?", externalID).
		Update("status", types.SubscriptionStatusCancelled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		logctx.FromCtx(ctx, s.log).Infow("cancellation_without_subscription", "subscription_id", externalID)
	}
	return nil
}

// insertTransaction appends the payment record. Redelivered events insert a
// second row on purpose; duplicates stay visible for reconciliation.
func (s *Service) insertTransaction(ctx context.Context, r *PaymentReceipt, status types.TransactionStatus) error {
	txn := &models.Transaction{
		ID:            tool.GenerateUUIDV7(),
		TransactionID: r.TransactionID,
		CustomerEmail: r.CustomerEmail,
		PlanID:        r.PlanID,
		AmountCents:   r.AmountCents,
		Status:        status,
		PaymentMethod: r.Method,
		IsTest:        r.IsTest,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}
