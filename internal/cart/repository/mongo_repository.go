package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shafadisyaaulia/seasnacky-sub000/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrQuantityLimit is returned when an add would push a line past domain.MaxCartItemQuantity.
	ErrQuantityLimit = errors.New("cart line quantity limit reached")
)

// guest carts are abandoned far more often than user carts
const guestCartTTL = 7 * 24 * time.Hour

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		collection: db.Collection("carts"),
	}
}

func (m *MongoRepository) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// AddItem inserts the product or, when it is already in the cart, adds to its
// quantity. The line never grows past domain.MaxCartItemQuantity.
func (m *MongoRepository) AddItem(ctx context.Context, userID string, item domain.CartItem) error {
	if item.Quantity > domain.MaxCartItemQuantity {
		return ErrQuantityLimit
	}
	now := time.Now().UTC()
	item.AddedAt = now

	// increment an existing line first, only while it stays within the limit
	filter := bson.M{
		"user_id": userID,
		"items": bson.M{"$elemMatch": bson.M{
			"product_id": item.ProductID,
			"quantity":   bson.M{"$lte": domain.MaxCartItemQuantity - item.Quantity},
		}},
	}
	update := bson.M{
		"$inc": bson.M{"items.$[elem].quantity": item.Quantity},
		"$set": bson.M{"items.$[elem].added_at": now, "updated_at": now},
	}
	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": item.ProductID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update existing item: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	existing, err := m.collection.CountDocuments(ctx, bson.M{"user_id": userID, "items.product_id": item.ProductID})
	if err != nil {
		return fmt.Errorf("failed to check existing item: %w", err)
	}
	if existing > 0 {
		return ErrQuantityLimit
	}

	// no such line yet: push it, creating the cart when needed
	update = bson.M{
		"$push":        bson.M{"items": item},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now, "guest": domain.IsGuestBuyer(userID)},
	}
	_, err = m.collection.UpdateOne(ctx,
		bson.M{"user_id": userID, "items.product_id": bson.M{"$ne": item.ProductID}},
		update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// a concurrent add created the line first
		return m.AddItem(ctx, userID, domain.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err != nil {
		return fmt.Errorf("failed to add new item: %w", err)
	}

	return nil
}

func (m *MongoRepository) UpdateItemQuantity(ctx context.Context, userID string, productID string, quantity int) error {
	filter := bson.M{
		"user_id":          userID,
		"items.product_id": productID,
	}

	update := bson.M{
		"$set": bson.M{
			"items.$[elem].quantity": quantity,
			"updated_at":             time.Now().UTC(),
		},
	}

	arrayFilters := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"elem.product_id": productID},
		},
	})

	result, err := m.collection.UpdateOne(ctx, filter, update, arrayFilters)
	if err != nil {
		return fmt.Errorf("failed to update item quantity: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (m *MongoRepository) RemoveItem(ctx context.Context, userID string, productID string) error {
	filter := bson.M{"user_id": userID}
	update := bson.M{
		"$pull": bson.M{
			"items": bson.M{"product_id": productID},
		},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoRepository) DeleteCart(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().
				SetExpireAfterSeconds(int32(guestCartTTL.Seconds())).
				SetPartialFilterExpression(bson.M{"guest": true}),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}
