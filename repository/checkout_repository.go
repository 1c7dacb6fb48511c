package repository

import (
	"context"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/database"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MongoCheckoutRepository struct {
	collection *mongo.Collection
}

func NewCheckoutRepository(db *mongo.Database) *MongoCheckoutRepository {
	return &MongoCheckoutRepository{collection: db.Collection(database.CheckoutsCollection)}
}

func (r *MongoCheckoutRepository) Create(ctx context.Context, checkout *models.Checkout) error {
	now := time.Now().UTC()
	if checkout.ID.IsZero() {
		checkout.ID = primitive.NewObjectID()
	}
	checkout.CreatedAt, checkout.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, checkout)
	return mapMongoErr(err)
}

func (r *MongoCheckoutRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Checkout, error) {
	var checkout models.Checkout
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&checkout); err != nil {
		return nil, mapMongoErr(err)
	}
	return &checkout, nil
}

func (r *MongoCheckoutRepository) MarkPaid(ctx context.Context, id primitive.ObjectID, details interface{}, paidAt time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isPaid": false},
		bson.M{"$set": bson.M{
			"isPaid":         true,
			"paymentStatus":  models.PaymentStatusPaid,
			"paymentDetails": details,
			"paidAt":         paidAt,
			"updatedAt":      paidAt,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoCheckoutRepository) MarkFinalized(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "isPaid": true, "isFinalized": false},
		bson.M{"$set": bson.M{"isFinalized": true, "finalizedAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoCheckoutRepository) UnmarkFinalized(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set":   bson.M{"isFinalized": false, "updatedAt": time.Now().UTC()},
			"$unset": bson.M{"finalizedAt": ""},
		},
	)
	return err
}
