package webhook

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/eventlog"
	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

const testSecret = "whsec_test"

func newTestIngestor(t *testing.T) (*Ingestor, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.Subscription{},
		&models.SubscriptionHistoryEntry{},
		&models.WebhookEventLog{},
	))

	cfg := &config.Config{
		Webhook: config.WebhookConfig{Secret: testSecret},
		Plans: []*types.PlanDescriptor{
			{ID: "ieFcYbH", Name: "Arbitragem Básico", PriceCents: 5000, AccessLevel: types.AccessLevelBasic},
		},
	}
	log := zap.NewNop().Sugar()
	b := billing.NewService(cfg, db, log)
	ev := eventlog.New(db, log)
	return NewIngestor(cfg, b, ev, log), db
}

func signedEvent(t *testing.T, kind string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": kind,
		"data": map[string]any{
			"id":         "tx_1",
			"status":     "success",
			"customer":   map[string]any{"email": "a@b.com", "name": "Ana"},
			"plan":       map[string]any{"id": "ieFcYbH", "name": "Básico", "price": 50.0},
			"payment":    map[string]any{"method": "credit_card", "status": "success", "amount": 50.0},
			"created_at": "2025-01-01T00:00:00Z",
		},
	})
	require.NoError(t, err)
	return body, ComputeSignature(testSecret, body)
}

func countWrites(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var txns, subs int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txns).Error)
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subs).Error)
	return txns + subs
}

func TestIngestor_MissingSignature(t *testing.T) {
	ing, db := newTestIngestor(t)
	body, _ := signedEvent(t, "payment.success")

	err := ing.Handle(context.Background(), body, "")
	require.ErrorIs(t, err, ErrMissingSignature)
	require.Zero(t, countWrites(t, db))
}

func TestIngestor_BadSignature(t *testing.T) {
	ing, db := newTestIngestor(t)
	body, _ := signedEvent(t, "payment.success")

	err := ing.Handle(context.Background(), body, "0000")
	require.ErrorIs(t, err, ErrBadSignature)
	require.Zero(t, countWrites(t, db))
}

func TestIngestor_MalformedBody(t *testing.T) {
	ing, db := newTestIngestor(t)
	body := []byte(`{not json`)

	err := ing.Handle(context.Background(), body, ComputeSignature(testSecret, body))
	require.ErrorIs(t, err, ErrInvalidEvent)
	require.Zero(t, countWrites(t, db))
}

func TestIngestor_MissingEventOrData(t *testing.T) {
	ing, db := newTestIngestor(t)

	for _, raw := range []string{
		`{"data":{"id":"tx_1"}}`,
		`{"event":"payment.success"}`,
	} {
		body := []byte(raw)
		err := ing.Handle(context.Background(), body, ComputeSignature(testSecret, body))
		require.ErrorIs(t, err, ErrInvalidEvent, raw)
	}
	require.Zero(t, countWrites(t, db))
}

func TestIngestor_UnknownEventKindIsAcknowledged(t *testing.T) {
	ing, db := newTestIngestor(t)
	body, sig := signedEvent(t, "subscription.renewed")

	require.NoError(t, ing.Handle(context.Background(), body, sig))
	require.Zero(t, countWrites(t, db))
}

func TestIngestor_DispatchesPaymentSucceeded(t *testing.T) {
	ing, db := newTestIngestor(t)
	require.NoError(t, db.Create(&models.User{ID: tool.GenerateUUIDV7(), Email: "a@b.com"}).Error)

	body, sig := signedEvent(t, "payment.success")
	require.NoError(t, ing.Handle(context.Background(), body, sig))

	var txn models.Transaction
	require.NoError(t, db.First(&txn).Error)
	require.Equal(t, "tx_1", txn.TransactionID)

	var sub models.Subscription
	require.NoError(t, db.First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, types.AccessLevelBasic, sub.AccessLevel)
}

func TestIngestor_DispatchesCancellation(t *testing.T) {
	ing, db := newTestIngestor(t)
	require.NoError(t, db.Create(&models.User{ID: tool.GenerateUUIDV7(), Email: "a@b.com"}).Error)

	body, sig := signedEvent(t, "payment.success")
	require.NoError(t, ing.Handle(context.Background(), body, sig))

	body, sig = signedEvent(t, "subscription.cancelled")
	require.NoError(t, ing.Handle(context.Background(), body, sig))

	var sub models.Subscription
	require.NoError(t, db.First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusCancelled, sub.Status)
}
