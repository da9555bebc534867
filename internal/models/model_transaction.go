package models

import (
	"time"

	"github.com/arbops/billing/pkg/types"
)

// Transaction is an append-only record of a payment-provider event.
// One inbound event produces exactly one row; rows are never updated apart
// from the pending→final status flip done by the reconciliation poller,
// and never deleted. There is deliberately no unique index on
// transaction_id: the provider redelivers at-least-once and duplicates are
// kept visible for reconciliation.
type Transaction struct {
	ID            string                  `gorm:"column:id;primary_key;type:uuid" json:"id"`
	TransactionID string                  `gorm:"column:transaction_id;type:varchar(128);not null;index" json:"transaction_id"`
	CustomerEmail string                  `gorm:"column:customer_email;type:varchar(255);not null;index" json:"customer_email"`
	PlanID        string                  `gorm:"column:plan_id;type:varchar(64);not null" json:"plan_id"`
	AmountCents   int64                   `gorm:"column:amount_cents;type:bigint;not null" json:"amount_cents"`
	Status        types.TransactionStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	PaymentMethod string                  `gorm:"column:payment_method;type:varchar(64)" json:"payment_method"`
	IsTest        bool                    `gorm:"column:is_test;not null;default:false" json:"is_test"`
	CreatedAt     time.Time               `json:"created_at"`
}

func (Transaction) TableName() string {
	return "payment_transactions"
}
