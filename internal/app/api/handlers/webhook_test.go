package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arbops/billing/internal/app/service/billing"
	"github.com/arbops/billing/internal/app/service/eventlog"
	webhooksvc "github.com/arbops/billing/internal/app/service/webhook"
	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

const testSecret = "whsec_handler_test"

func newWebhookRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	ing := webhooksvc.NewIngestor(cfg, billing.NewService(cfg, db, log), eventlog.New(db, log), log)

	r := gin.New()
	g := r.Group("/api/v1/billing")
	RegisterWebhookRoutes(g, ing)
	return r, db
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(webhooksvc.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func successEventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"event": "payment.success",
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
	return body
}

func TestApiPaymentWebhook_Success(t *testing.T) {
	r, db := newWebhookRouter(t)
	require.NoError(t, db.Create(&models.User{ID: tool.GenerateUUIDV7(), Email: "a@b.com"}).Error)

	body := successEventBody(t)
	w := postWebhook(r, body, webhooksvc.ComputeSignature(testSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.Equal(t, int64(1), txnCount)
}

func TestApiPaymentWebhook_MissingSignature(t *testing.T) {
	r, db := newWebhookRouter(t)

	w := postWebhook(r, successEventBody(t), "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.Zero(t, txnCount)
}

func TestApiPaymentWebhook_BadSignature(t *testing.T) {
	r, db := newWebhookRouter(t)

	w := postWebhook(r, successEventBody(t), "deadbeef")

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.Zero(t, txnCount)
}

func TestApiPaymentWebhook_MalformedBody(t *testing.T) {
	r, _ := newWebhookRouter(t)

	body := []byte(`{"event":""}`)
	w := postWebhook(r, body, webhooksvc.ComputeSignature(testSecret, body))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}

func TestApiPaymentWebhook_UnknownEventAcknowledged(t *testing.T) {
	r, db := newWebhookRouter(t)

	body := []byte(`{"event":"payout.created","data":{"id":"p_1"}}`)
	w := postWebhook(r, body, webhooksvc.ComputeSignature(testSecret, body))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.Zero(t, txnCount)
}

// Handler-level failure path: well-formed signed event for a user that does
// not exist surfaces as a 500 to trigger the provider's retry.
func TestApiPaymentWebhook_UnknownUser(t *testing.T) {
	r, _ := newWebhookRouter(t)

	body := successEventBody(t)
	w := postWebhook(r, body, webhooksvc.ComputeSignature(testSecret, body))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}
