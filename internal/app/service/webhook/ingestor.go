package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/eventlog"
	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/logctx"
)

// providerName labels journal rows; there is a single payment provider.
const providerName = "gateway"

var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrBadSignature     = errors.New("invalid signature")
	ErrInvalidEvent     = errors.New("invalid event payload")
)

// Ingestor authenticates, decodes and dispatches provider notifications.
type Ingestor struct {
	cfg     *config.Config
	billing *billing.Service
	events  *eventlog.Service
	Logger  *zap.SugaredLogger
}

func NewIngestor(cfg *config.Config, b *billing.Service, ev *eventlog.Service, log *zap.SugaredLogger) *Ingestor {
	return &Ingestor{cfg: cfg, billing: b, events: ev, Logger: log}
}

// Handle processes one raw provider notification. Authentication and shape
// validation happen before any store write; an unrecognized event kind is
// journaled and acknowledged without side effects. Retries are the
// provider's job, so nothing here retries or compensates.
func (i *Ingestor) Handle(ctx context.Context, body []byte, signature string) (resErr error) {
	if signature == "" {
		return ErrMissingSignature
	}
	if !VerifySignature(i.cfg.Webhook.Secret, body, signature) {
		return ErrBadSignature
	}

	var event PaymentEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.Event == "" || event.Data == nil {
		return fmt.Errorf("%w: missing event or data", ErrInvalidEvent)
	}

	var traceID string
	if v, ok := ctx.Value("traceID").(string); ok {
		traceID = v
	}

	i.events.Save(ctx, &models.WebhookEventLog{
		Provider:   providerName,
		TraceID:    traceID,
		EventKind:  event.Event,
		ExternalID: event.Data.ID,
		Data:       datatypes.JSON(body),
		Status:     models.WebhookEventLogStatusReceived,
	})

	defer func() {
		status := models.WebhookEventLogStatusHandled
		resMap := map[string]any{"external_id": event.Data.ID}
		if resErr != nil {
			status = models.WebhookEventLogStatusHandleFailed
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		i.events.Save(ctx, &models.WebhookEventLog{
			Provider:   providerName,
			TraceID:    traceID,
			EventKind:  event.Event,
			ExternalID: event.Data.ID,
			Data:       datatypes.JSON(body),
			Result:     func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }(),
			Status:     status,
		})
	}()

	switch ParseEventKind(event.Event) {
	case EventKindPaymentSucceeded:
		resErr = i.billing.HandlePaymentSucceeded(ctx, event.Data.toReceipt())
	case EventKindPaymentFailed:
		resErr = i.billing.HandlePaymentFailed(ctx, event.Data.toReceipt())
	case EventKindSubscriptionCancelled:
		resErr = i.billing.HandleSubscriptionCancelled(ctx, event.Data.ID)
	default:
		// Forward-compatible no-op: acknowledge kinds we do not know yet.
		logctx.FromCtx(ctx, i.Logger).Infow("webhook_event_ignored", "event", event.Event)
	}
	return resErr
}
