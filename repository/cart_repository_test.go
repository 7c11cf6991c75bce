package repository

import (
	"context"
	"testing"
	"time"

	"storefront-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartRoundTrip(t *testing.T) {
	repo := NewCartRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	cart := &models.Cart{
		SessionID: "s1",
		Items: []models.CartLine{
			{ID: "p1", Name: "Kit", VariantLabel: "P", UnitPrice: 29.90, Quantity: 2},
		},
	}
	require.NoError(t, repo.SaveCart(ctx, cart))

	got, err := repo.GetCart(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.InDelta(t, 59.80, got.Subtotal(), 1e-9)
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestGetCartMissingSession(t *testing.T) {
	repo := NewCartRepository(newTestRedis(t), time.Hour)

	got, err := repo.GetCart(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteCart(t *testing.T) {
	repo := NewCartRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.SaveCart(ctx, &models.Cart{SessionID: "s1"}))
	require.NoError(t, repo.DeleteCart(ctx, "s1"))

	got, err := repo.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDraftRoundTrip(t *testing.T) {
	repo := NewDraftRepository(newTestRedis(t), time.Hour)
	ctx := context.Background()

	draft := &models.OrderDraft{
		SessionID:       "s1",
		Step:            2,
		Customer:        models.Customer{Name: "Maria Silva", CPF: "11144477735"},
		AddressUnlocked: true,
	}
	require.NoError(t, repo.SaveDraft(ctx, draft))

	got, err := repo.LoadDraft(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Step)
	assert.True(t, got.AddressUnlocked)
	assert.Equal(t, "Maria Silva", got.Customer.Name)
}

func TestLoadDraftMissingSession(t *testing.T) {
	repo := NewDraftRepository(newTestRedis(t), time.Hour)

	got, err := repo.LoadDraft(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}
