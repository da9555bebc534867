package webhook

import (
	"math"
	"time"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/pkg/types"
)

// EventKind enumerates the provider notification kinds this service acts
// on. The raw event string is decoded exactly once, at the boundary;
// everything downstream switches on the decoded kind.
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindPaymentSucceeded
	EventKindPaymentFailed
	EventKindSubscriptionCancelled
)

func ParseEventKind(s string) EventKind {
	switch s {
	case "payment.success":
		return EventKindPaymentSucceeded
	case "payment.failed":
		return EventKindPaymentFailed
	case "subscription.cancelled":
		return EventKindSubscriptionCancelled
	default:
		return EventKindUnknown
	}
}

// PaymentEvent is the provider's webhook envelope.
type PaymentEvent struct {
	Event string     `json:"event"`
	Data  *EventData `json:"data"`
}

// EventData is the payload the provider ships with every notification.
// ID is the provider-side transaction/subscription id.
type EventData struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Customer  CustomerInfo `json:"customer"`
	Plan      PlanInfo     `json:"plan"`
	Payment   PaymentInfo  `json:"payment"`
	CreatedAt time.Time    `json:"created_at"`
}

type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type PlanInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type PaymentInfo struct {
	Method string  `json:"method"`
	Status string  `json:"status"`
	Amount float64 `json:"amount"`
	Test   *bool   `json:"test,omitempty"`
}

// toReceipt converts the wire payload into the billing-domain receipt.
// The provider quotes amounts as decimal currency units.
func (d *EventData) toReceipt() *billing.PaymentReceipt {
	isTest := d.Payment.Test != nil && *d.Payment.Test
	return &billing.PaymentReceipt{
		TransactionID: d.ID,
		CustomerEmail: d.Customer.Email,
		CustomerName:  d.Customer.Name,
		PlanID:        d.Plan.ID,
		AmountCents:   int64(math.Round(d.Payment.Amount * 100)),
		Method:        d.Payment.Method,
		Status:        types.TransactionStatus(d.Payment.Status),
		IsTest:        isTest,
		OccurredAt:    d.CreatedAt,
	}
}
