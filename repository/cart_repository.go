package repository

import (
	"context"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/database"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(database.CartsCollection)}
}

func ownerFilter(owner models.CartOwner) bson.M {
	if owner.IsUser() {
		return bson.M{"user": *owner.UserID}
	}
	return bson.M{"guestId": owner.GuestID}
}

func (r *MongoCartRepository) FindByOwner(ctx context.Context, owner models.CartOwner) (*models.Cart, error) {
	var cart models.Cart
	if err := r.collection.FindOne(ctx, ownerFilter(owner)).Decode(&cart); err != nil {
		return nil, mapMongoErr(err)
	}
	return &cart, nil
}

// Save upserts the whole cart document.
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart, options.Replace().SetUpsert(true))
	return mapMongoErr(err)
}

func (r *MongoCartRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *MongoCartRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"user": userID})
	return err
}
