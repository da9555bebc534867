package types

import "time"

type SubscriptionStatus string

const (
	SubscriptionStatusActive        SubscriptionStatus = "active"
	SubscriptionStatusPaymentFailed SubscriptionStatus = "payment_failed"
	SubscriptionStatusCancelled     SubscriptionStatus = "cancelled"
)

type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusFailed  TransactionStatus = "failed"
	TransactionStatusPending TransactionStatus = "pending"
)

// SubscriptionHistoryAction labels entries in the subscription audit trail.
type SubscriptionHistoryAction string

const (
	SubscriptionHistoryActionUpgrade SubscriptionHistoryAction = "upgrade"
)

// UserSubscriptionInfo is the dashboard-facing view of a subscription.
type UserSubscriptionInfo struct {
	PlanID      string             `json:"plan_id"`
	PlanName    string             `json:"plan_name"`
	Status      SubscriptionStatus `json:"status"`
	AccessLevel AccessLevel        `json:"access_level"`
	ExpiresAt   *time.Time         `json:"expires_at"`
}
