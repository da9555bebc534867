package poller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/internal/platform/gateway"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/types"
)

// Poller re-checks externally pending payments on a fixed interval and
// activates subscriptions once the gateway reports approval. Activation
// goes through the same billing routine as the webhook success path.
type Poller struct {
	db       *gorm.DB
	gw       gateway.Client
	billing  *billing.Service
	log      *zap.SugaredLogger
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg *config.Config, db *gorm.DB, gw gateway.Client, b *billing.Service, log *zap.SugaredLogger) *Poller {
	interval := cfg.Gateway.PollInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Poller{db: db, gw: gw, billing: b, log: log, interval: interval}
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RunOnce(ctx); err != nil {
				p.log.Errorw("pending_payment_poll_failed", "error", err.Error())
			}
		}
	}
}

// RunOnce reconciles every pending transaction against the gateway.
// Per-transaction failures are logged and skipped so one bad payment does
// not stall the rest of the batch.
func (p *Poller) RunOnce(ctx context.Context) error {
	var pending []*models.Transaction
	if err := p.db.WithContext(ctx).
		Where("status = ?", types.TransactionStatusPending).
		Find(&pending).Error; err != nil {
		return err
	}

	for _, txn := range pending {
		if err := p.reconcile(ctx, txn); err != nil {
			p.log.Warnw("pending_payment_reconcile_failed",
				"transaction_id", txn.TransactionID, "error", err.Error())
		}
	}
	return nil
}

func (p *Poller) reconcile(ctx context.Context, txn *models.Transaction) error {
	payment, err := p.gw.GetPaymentStatus(ctx, txn.TransactionID)
	if err != nil {
		if errors.Is(err, gateway.ErrPaymentNotFound) {
			p.log.Warnw("pending_payment_unknown_to_gateway", "transaction_id", txn.TransactionID)
			return nil
		}
		return err
	}

	switch payment.Status {
	case gateway.PaymentStatusApproved:
		if err := p.billing.MarkTransaction(ctx, txn.ID, types.TransactionStatusSuccess); err != nil {
			return err
		}
		return p.billing.ActivateByEmail(ctx, txn.CustomerEmail, txn.TransactionID, txn.PlanID, txn.IsTest)
	case gateway.PaymentStatusRefused:
		return p.billing.MarkTransaction(ctx, txn.ID, types.TransactionStatusFailed)
	default:
		// still pending, check again next tick
		return nil
	}
}

func register(lc fx.Lifecycle, p *Poller) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			p.cancel = cancel
			p.done = make(chan struct{})
			go p.run(runCtx)
			p.log.Infow("pending payment poller started", "interval", p.interval.String())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if p.cancel != nil {
				p.cancel()
				select {
				case <-p.done:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
