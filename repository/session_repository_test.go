package repository

import (
	"context"
	"testing"
	"time"

	"storefront-service/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestSessionSlotRoundTrip(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	session := &models.PaymentSession{
		ExternalID:   "order_1",
		GatewayID:    "gw_1",
		PixCode:      "pixcode",
		Amount:       49.64,
		ExpiresAt:    time.Date(2026, 8, 31, 12, 10, 0, 0, time.UTC),
		ExpirySource: models.ExpirySourceServer,
		CreatedAt:    time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveSession(ctx, "s1", session))

	got, err := repo.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, session.ExternalID, got.ExternalID)
	assert.Equal(t, session.Amount, got.Amount)
	assert.True(t, got.ExpiresAt.Equal(session.ExpiresAt))
}

func TestSessionSlotOverwrite(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, "s1", &models.PaymentSession{ExternalID: "order_1"}))
	require.NoError(t, repo.SaveSession(ctx, "s1", &models.PaymentSession{ExternalID: "order_2"}))

	got, err := repo.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "order_2", got.ExternalID)
}

func TestLoadSessionEmptySlot(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)

	got, err := repo.LoadSession(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadSessionCorruptPayload(t *testing.T) {
	client := newTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "payment:session:s1", "{not json", 0).Err())

	got, err := repo.LoadSession(ctx, "s1")
	require.NoError(t, err, "corrupt slot reads as empty, never as an error")
	assert.Nil(t, got)
}

func TestClearSession(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, "s1", &models.PaymentSession{ExternalID: "order_1"}))
	require.NoError(t, repo.ClearSession(ctx, "s1"))

	got, err := repo.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestOrderExpiryRoundTrip(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	deadline := time.Date(2026, 8, 31, 12, 10, 0, 0, time.UTC)
	require.NoError(t, repo.SaveOrderExpiry(ctx, "order_1", deadline))

	got, ok, err := repo.GetOrderExpiry(ctx, "order_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(deadline))

	require.NoError(t, repo.DeleteOrderExpiry(ctx, "order_1"))
	_, ok, err = repo.GetOrderExpiry(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderExpiryCorruptValue(t *testing.T) {
	client := newTestRedis(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "payment:expiry:order_1", "not-a-number", 0).Err())

	_, ok, err := repo.GetOrderExpiry(ctx, "order_1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderAnalyticsRoundTrip(t *testing.T) {
	repo := NewSessionRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	order := &models.UtmifyOrder{
		OrderID:       "order_1",
		Platform:      "tudoakilo",
		PaymentMethod: "pix",
		Status:        "waiting_payment",
		Commission:    models.UtmifyCommission{TotalPriceInCents: 4964, Currency: "BRL"},
	}
	require.NoError(t, repo.SaveOrderAnalytics(ctx, "order_1", order))

	got, err := repo.LoadOrderAnalytics(ctx, "order_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "waiting_payment", got.Status)
	assert.Equal(t, int64(4964), got.Commission.TotalPriceInCents)
	assert.Nil(t, got.ApprovedDate)

	require.NoError(t, repo.DeleteOrderAnalytics(ctx, "order_1"))
	got, err = repo.LoadOrderAnalytics(ctx, "order_1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
