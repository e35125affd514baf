package repository

import (
	"context"
	"testing"
	"time"

	"store-api/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoredBasket(createdAt time.Time) *model.StoredBasket {
	return &model.StoredBasket{
		ID:        uuid.New(),
		Location:  model.Location{Zone: model.UnsetZone},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func TestBasketRepository_Lifecycle(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBasketRepository(pool, zerolog.Nop())
	ctx := context.Background()

	basket := newStoredBasket(time.Now().UTC())
	require.NoError(t, repo.Create(ctx, basket))

	stored, err := repo.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, model.UnsetZone, stored.Location.Zone)
	assert.Empty(t, stored.Items)

	bread := model.StoredItem{ProductSlug: "sourdough", Quantity: 1, DeliveryType: model.DeliveryTypeDelivery, DeliveryDate: "2024-6-1"}
	require.NoError(t, repo.UpsertItem(ctx, basket.ID, bread))

	bread.Quantity = 3
	require.NoError(t, repo.UpsertItem(ctx, basket.ID, bread))

	sameSlugOtherDay := bread
	sameSlugOtherDay.DeliveryDate = "2024-6-2"
	sameSlugOtherDay.Quantity = 1
	require.NoError(t, repo.UpsertItem(ctx, basket.ID, sameSlugOtherDay))

	stored, err = repo.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 2)
	assert.Equal(t, 3, stored.Items[0].Quantity, "quantity is replaced, not added")

	found, err := repo.UpdateZone(ctx, basket.ID, model.Location{Address: "Storgatan 1", Zone: 1})
	require.NoError(t, err)
	assert.True(t, found)

	removed, err := repo.RemoveItem(ctx, basket.ID, sameSlugOtherDay)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveItem(ctx, basket.ID, sameSlugOtherDay)
	require.NoError(t, err)
	assert.False(t, removed)

	stored, err = repo.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, "Storgatan 1", stored.Location.Address)
	assert.Equal(t, 1, stored.Location.Zone)

	require.NoError(t, repo.Delete(ctx, basket.ID))

	stored, err = repo.GetByID(ctx, basket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestBasketRepository_MissingBasket(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBasketRepository(pool, zerolog.Nop())
	ctx := context.Background()
	id := uuid.New()

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, stored)

	found, err := repo.UpdateZone(ctx, id, model.Location{Zone: 0})
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, repo.Delete(ctx, id))
}

func TestBasketRepository_DeleteOlderThan(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewBasketRepository(pool, zerolog.Nop())
	ctx := context.Background()

	now := time.Now().UTC()
	old := newStoredBasket(now.Add(-8 * 24 * time.Hour))
	fresh := newStoredBasket(now)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.UpsertItem(ctx, old.ID, model.StoredItem{ProductSlug: "a", Quantity: 1, DeliveryType: model.DeliveryTypeCollection}))

	n, err := repo.DeleteOlderThan(ctx, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := repo.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	stored, err = repo.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}
