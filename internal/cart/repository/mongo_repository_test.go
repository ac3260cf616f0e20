package repository

import (
	"context"
	"testing"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestDB(t *testing.T) (*MongoRepository, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo := NewMongoRepository(db)
	require.NoError(t, repo.CreateIndexes(ctx))

	cleanup := func() {
		if err := db.Client().Disconnect(ctx); err != nil {
			t.Logf("failed to disconnect: %v", err)
		}
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return repo, cleanup
}

func TestGetCart_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetCart(context.Background(), "user-none")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestAddItem_CreatesCartAndIncrements(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := "guest-abc123"

	require.NoError(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-001", Quantity: 2}))
	require.NoError(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-004", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-001", Quantity: 3}))

	cart, err := repo.GetCart(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, cart.UserID)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, "prod-001", cart.Items[0].ProductID)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, 1, cart.Items[1].Quantity)
	assert.False(t, cart.CreatedAt.IsZero())
}

func TestAddItem_CapsLineQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := "user-andi"

	require.NoError(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-001", Quantity: domain.MaxCartItemQuantity - 1}))
	require.NoError(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-001", Quantity: 1}))
	assert.ErrorIs(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-001", Quantity: 1}), ErrQuantityLimit)
	assert.ErrorIs(t, repo.AddItem(ctx, userID, domain.CartItem{ProductID: "prod-002", Quantity: domain.MaxCartItemQuantity + 1}), ErrQuantityLimit)

	cart, err := repo.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, domain.MaxCartItemQuantity, cart.Items[0].Quantity)
}

func TestUpdateItemQuantity(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-andi", domain.CartItem{ProductID: "prod-002", Quantity: 1}))

	require.NoError(t, repo.UpdateItemQuantity(ctx, "user-andi", "prod-002", 4))
	cart, err := repo.GetCart(ctx, "user-andi")
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	err = repo.UpdateItemQuantity(ctx, "user-andi", "prod-999", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItemAndDeleteCart(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, repo.AddItem(ctx, "user-andi", domain.CartItem{ProductID: "prod-002", Quantity: 1}))
	require.NoError(t, repo.AddItem(ctx, "user-andi", domain.CartItem{ProductID: "prod-003", Quantity: 1}))

	require.NoError(t, repo.RemoveItem(ctx, "user-andi", "prod-002"))
	cart, err := repo.GetCart(ctx, "user-andi")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "prod-003", cart.Items[0].ProductID)

	assert.ErrorIs(t, repo.RemoveItem(ctx, "user-none", "prod-002"), ErrCartNotFound)

	require.NoError(t, repo.DeleteCart(ctx, "user-andi"))
	assert.ErrorIs(t, repo.DeleteCart(ctx, "user-andi"), ErrCartNotFound)
}
