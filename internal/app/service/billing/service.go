package billing

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/types"
)

// BillingPeriod is the fixed entitlement window granted per successful
// payment. It is not derived from the plan's billing frequency.
const BillingPeriod = 30 * 24 * time.Hour

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

// PaymentReceipt is the provider-independent view of one payment event,
// produced at the webhook boundary and consumed by the handlers below.
type PaymentReceipt struct {
	TransactionID string
	CustomerEmail string
	CustomerName  string
	PlanID        string
	AmountCents   int64
	Method        string
	Status        types.TransactionStatus
	IsTest        bool
	OccurredAt    time.Time
}
