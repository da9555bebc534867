package models

import (
	"time"

	"github.com/arbops/billing/pkg/types"
)

// Subscription stores a user's entitlement for one plan. One row per
// user+plan; SubscriptionID is the external id assigned by the payment
// provider and is what failure/cancellation events key their updates on.
type Subscription struct {
	ID             string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID         string                   `gorm:"column:user_id;type:uuid;not null;uniqueIndex:uniq_user_plan,priority:1" json:"user_id"`
	PlanID         string                   `gorm:"column:plan_id;type:varchar(64);not null;uniqueIndex:uniq_user_plan,priority:2" json:"plan_id"`
	SubscriptionID string                   `gorm:"column:subscription_id;type:varchar(128);not null;index" json:"subscription_id"`
	Status         types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	AccessLevel    types.AccessLevel        `gorm:"column:access_level;type:varchar(32);not null" json:"access_level"`
	// ExpiresAt is only meaningful while Status is active.
	ExpiresAt *time.Time `gorm:"column:expires_at;default:null" json:"expires_at"`
	IsTest    bool       `gorm:"column:is_test;not null;default:false" json:"is_test"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "user_subscriptions"
}

// Valid reports whether the subscription currently grants access.
func (s *Subscription) Valid() bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.ExpiresAt != nil &&
		s.ExpiresAt.After(time.Now())
}
