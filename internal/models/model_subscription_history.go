package models

import (
	"time"

	"github.com/arbops/billing/pkg/types"
)

// SubscriptionHistoryEntry is an append-only audit trail of subscription
// activations. It is never read back by the billing flow itself.
type SubscriptionHistoryEntry struct {
	ID        int64                           `gorm:"column:id;primary_key;autoIncrement:false" json:"id"`
	UserID    string                          `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	PlanID    string                          `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`
	Action    types.SubscriptionHistoryAction `gorm:"column:action;type:varchar(32);not null" json:"action"`
	CreatedAt time.Time                       `json:"created_at"`
}

func (SubscriptionHistoryEntry) TableName() string {
	return "subscription_history"
}
