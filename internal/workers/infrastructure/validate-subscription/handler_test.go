// internal/workers/infrastructure/validate-subscription/handler_test.go
package validatesubscription

import (
	"context"
	"testing"
	"time"

	"admissions-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	handler := NewHandler(LoadConfig(), db, client, logger.NewNoOpLogger())
	handler.now = func() time.Time { return testNow }
	return handler, mock, mr
}

func subscriptionRows(tier, expiresAt string, valid bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"user_id", "tier", "expires_at", "is_valid"}).
		AddRow("user-1", tier, expiresAt, valid)
}

func TestExecute_PremiumTierEnablesAIGeneration(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("premium", testNow.AddDate(1, 0, 0).Format(time.RFC3339), true))

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.Equal(t, "premium", output.TierLevel)
	assert.True(t, output.AIGenerationEnabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_BasicTierValidWithoutAI(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("basic", "", true))

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, output.IsValid)
	assert.False(t, output.AIGenerationEnabled)
}

func TestExecute_UnknownUser(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "tier", "expires_at", "is_valid"}))

	_, err := handler.Execute(context.Background(), &Input{UserID: "nobody"})
	assert.ErrorIs(t, err, ErrSubscriptionInvalid)
}

func TestExecute_ExpiredSubscription(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("premium", testNow.AddDate(0, -1, 0).Format(time.RFC3339), true))

	_, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrSubscriptionExpired)
}

func TestExecute_InvalidatedSubscription(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("premium", "", false))

	_, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrSubscriptionInvalid)
}

func TestExecute_UnknownTier(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("legacy-gold", "", true))

	_, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	assert.ErrorIs(t, err, ErrSubscriptionInvalid)
}

func TestExecute_UnparseableExpirySkipsExpiryCheck(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("free", "next spring", true))

	output, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	require.NoError(t, err)
	assert.True(t, output.IsValid)
}

func TestExecute_SecondLookupServedFromCache(t *testing.T) {
	handler, mock, _ := newTestHandler(t)
	// Only one database round trip is expected for two lookups.
	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid FROM user_subscriptions").
		WithArgs("user-1").
		WillReturnRows(subscriptionRows("enterprise", "", true))

	first, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	require.NoError(t, err)

	second, err := handler.Execute(context.Background(), &Input{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_MissingUserID(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, ErrSubscriptionInvalid)
}
