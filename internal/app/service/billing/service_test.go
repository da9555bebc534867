package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arbops/billing/internal/models"
	"github.com/arbops/billing/pkg/config"
	"github.com/arbops/billing/pkg/tool"
	"github.com/arbops/billing/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
		&models.Subscription{},
		&models.SubscriptionHistoryEntry{},
		&models.WebhookEventLog{},
	))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Plans: []*types.PlanDescriptor{
			{ID: "ieFcYbH", Name: "Arbitragem Básico", PriceCents: 5000, AccessLevel: types.AccessLevelBasic},
			{ID: "tQz3VxN", Name: "Arbitragem Pro", PriceCents: 9900, AccessLevel: types.AccessLevelPro},
		},
	}
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewService(testConfig(), db, zap.NewNop().Sugar()), db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{ID: tool.GenerateUUIDV7(), Email: email, Name: "Test User"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func receipt(email string) *PaymentReceipt {
	return &PaymentReceipt{
		TransactionID: "tx_1",
		CustomerEmail: email,
		CustomerName:  "Test User",
		PlanID:        "ieFcYbH",
		AmountCents:   5000,
		Method:        "credit_card",
		Status:        types.TransactionStatusSuccess,
		OccurredAt:    time.Now(),
	}
}

func TestHandlePaymentSucceeded_ActivatesSubscription(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))

	var txns []models.Transaction
	require.NoError(t, db.Find(&txns).Error)
	require.Len(t, txns, 1)
	require.Equal(t, "tx_1", txns[0].TransactionID)
	require.Equal(t, types.TransactionStatusSuccess, txns[0].Status)
	require.Equal(t, int64(5000), txns[0].AmountCents)

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", user.ID, "ieFcYbH").First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, types.AccessLevelBasic, sub.AccessLevel)
	require.Equal(t, "tx_1", sub.SubscriptionID)
	require.NotNil(t, sub.ExpiresAt)
	require.WithinDuration(t, time.Now().Add(BillingPeriod), *sub.ExpiresAt, time.Minute)
	require.True(t, sub.Valid())

	var history []models.SubscriptionHistoryEntry
	require.NoError(t, db.Find(&history).Error)
	require.Len(t, history, 1)
	require.Equal(t, types.SubscriptionHistoryActionUpgrade, history[0].Action)
	require.Equal(t, user.ID, history[0].UserID)
}

func TestHandlePaymentSucceeded_UnknownPlanLeavesTransaction(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "a@b.com")

	r := receipt("a@b.com")
	r.PlanID = "nope"
	err := svc.HandlePaymentSucceeded(context.Background(), r)
	require.ErrorIs(t, err, ErrUnknownPlan)

	// partial commit: the transaction insert stands, nothing else does
	var txnCount, subCount, historyCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subCount).Error)
	require.NoError(t, db.Model(&models.SubscriptionHistoryEntry{}).Count(&historyCount).Error)
	require.Equal(t, int64(1), txnCount)
	require.Zero(t, subCount)
	require.Zero(t, historyCount)
}

func TestHandlePaymentSucceeded_UnknownUser(t *testing.T) {
	svc, db := newTestService(t)

	err := svc.HandlePaymentSucceeded(context.Background(), receipt("ghost@b.com"))
	require.ErrorIs(t, err, ErrUserNotFound)

	var txnCount, subCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subCount).Error)
	require.Equal(t, int64(1), txnCount)
	require.Zero(t, subCount)
}

func TestHandlePaymentSucceeded_RedeliveryDuplicatesTransactionOnly(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("transaction_id = ?", "tx_1").Count(&txnCount).Error)
	require.Equal(t, int64(2), txnCount)

	var subs []models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&subs).Error)
	require.Len(t, subs, 1)
	require.Equal(t, types.SubscriptionStatusActive, subs[0].Status)
}

func TestHandlePaymentFailed(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))

	r := receipt("a@b.com")
	r.Status = types.TransactionStatusFailed
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), r))

	var failed models.Transaction
	require.NoError(t, db.Where("status = ?", types.TransactionStatusFailed).First(&failed).Error)
	require.Equal(t, "tx_1", failed.TransactionID)

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusPaymentFailed, sub.Status)
	require.False(t, sub.Valid())
}

func TestHandlePaymentFailed_NoSubscriptionIsNoop(t *testing.T) {
	svc, db := newTestService(t)

	r := receipt("a@b.com")
	r.Status = types.TransactionStatusFailed
	require.NoError(t, svc.HandlePaymentFailed(context.Background(), r))

	var txnCount, subCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&txnCount).Error)
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subCount).Error)
	require.Equal(t, int64(1), txnCount)
	require.Zero(t, subCount)
}

func TestHandleSubscriptionCancelled_WritesNoTransaction(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))

	var before int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&before).Error)

	require.NoError(t, svc.HandleSubscriptionCancelled(context.Background(), "tx_1"))

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusCancelled, sub.Status)

	var after int64
	require.NoError(t, db.Model(&models.Transaction{}).Count(&after).Error)
	require.Equal(t, before, after)
}

// Deliveries are not ordered across events for the same subscription: the
// store's last write wins. A success arriving after a cancellation
// reactivates the subscription.
func TestConcurrentDeliveries_LastWriteWins(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))
	require.NoError(t, svc.HandleSubscriptionCancelled(context.Background(), "tx_1"))

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusCancelled, sub.Status)

	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
}

func TestGrantPlan(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")

	require.NoError(t, svc.GrantPlan(context.Background(), user.ID, "tQz3VxN", "op_1"))

	var txn models.Transaction
	require.NoError(t, db.First(&txn).Error)
	require.Equal(t, "comp", txn.PaymentMethod)
	require.Zero(t, txn.AmountCents)

	var sub models.Subscription
	require.NoError(t, db.Where("user_id = ? AND plan_id = ?", user.ID, "tQz3VxN").First(&sub).Error)
	require.Equal(t, types.SubscriptionStatusActive, sub.Status)
	require.Equal(t, types.AccessLevelPro, sub.AccessLevel)
}

func TestGrantPlan_UnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.GrantPlan(context.Background(), "missing", "tQz3VxN", "op_1")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestScanTransactions(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "a@b.com")

	for i, status := range []types.TransactionStatus{
		types.TransactionStatusSuccess,
		types.TransactionStatusFailed,
		types.TransactionStatusSuccess,
	} {
		require.NoError(t, db.Create(&models.Transaction{
			ID:            tool.GenerateUUIDV7(),
			TransactionID: "tx_scan",
			CustomerEmail: "a@b.com",
			PlanID:        "ieFcYbH",
			AmountCents:   int64(1000 * (i + 1)),
			Status:        status,
		}).Error)
	}

	res, err := svc.ScanTransactions(context.Background(), &ScanTransactionsRequest{
		Filters: []*types.CommonFilter{
			{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{string(types.TransactionStatusSuccess)}},
		},
		Size: 10,
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), res.Total)
	require.Len(t, res.Items, 2)

	// pagination
	res, err = svc.ScanTransactions(context.Background(), &ScanTransactionsRequest{Size: 2, SortBy: "amount_cents", SortOrder: "asc"})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, int64(1000), res.Items[0].AmountCents)
}

func TestGetUserSubscriptions(t *testing.T) {
	svc, db := newTestService(t)
	user := seedUser(t, db, "a@b.com")
	require.NoError(t, svc.HandlePaymentSucceeded(context.Background(), receipt("a@b.com")))

	subs, err := svc.GetUserSubscriptions(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	require.Equal(t, "ieFcYbH", subs[0].PlanID)
	require.Equal(t, "Arbitragem Básico", subs[0].PlanName)
	require.Equal(t, types.SubscriptionStatusActive, subs[0].Status)
}
