package repository

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bardan8586/Fancy-Enterprise/database"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(database.ProductsCollection)}
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	product.CreatedAt, product.UpdatedAt = now, now
	_, err := r.collection.InsertOne(ctx, product)
	return mapMongoErr(err)
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, mapMongoErr(err)
	}
	return &product, nil
}

func (r *MongoProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (r *MongoProductRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"sku": sku}).Decode(&product); err != nil {
		return nil, mapMongoErr(err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Save(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now().UTC()
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return mapMongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) Search(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	opts := options.Find().SetSort(productSort(f.SortBy))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return r.find(ctx, buildProductQuery(f), opts)
}

func (r *MongoProductRepository) BestSeller(ctx context.Context) (*models.Product, error) {
	var product models.Product
	opts := options.FindOne().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "numReviews", Value: -1}})
	if err := r.collection.FindOne(ctx, bson.M{"isPublished": true}, opts).Decode(&product); err != nil {
		return nil, mapMongoErr(err)
	}
	return &product, nil
}

func (r *MongoProductRepository) NewArrivals(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{"isPublished": true}, opts)
}

func (r *MongoProductRepository) Similar(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	filter := bson.M{
		"_id":         bson.M{"$ne": p.ID},
		"gender":      p.Gender,
		"category":    p.Category,
		"isPublished": true,
	}
	return r.find(ctx, filter, options.Find().SetLimit(int64(limit)))
}

func (r *MongoProductRepository) List(ctx context.Context, page, limit int) ([]models.Product, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	products, err := r.find(ctx, bson.M{}, opts)
	return products, total, err
}

func (r *MongoProductRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Product, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// buildProductQuery translates catalogue filters into a Mongo query over
// published products. "all" disables the collection and category filters.
func buildProductQuery(f models.ProductFilter) bson.M {
	q := bson.M{"isPublished": true}

	if f.Collection != "" && !strings.EqualFold(f.Collection, "all") {
		q["collections"] = f.Collection
	}
	if f.Category != "" && !strings.EqualFold(f.Category, "all") {
		q["category"] = f.Category
	}
	if list := splitCSV(f.Material); len(list) > 0 {
		q["material"] = bson.M{"$in": list}
	}
	if list := splitCSV(f.Brand); len(list) > 0 {
		q["brand"] = bson.M{"$in": list}
	}
	if list := splitCSV(f.Size); len(list) > 0 {
		q["sizes"] = bson.M{"$in": list}
	}
	if f.Color != "" {
		q["colors"] = bson.M{"$in": []string{f.Color}}
	}
	if f.Gender != "" {
		q["gender"] = f.Gender
	}

	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}

	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"description": pattern},
		}
	}

	return q
}

func productSort(sortBy string) bson.D {
	switch sortBy {
	case "priceAsc":
		return bson.D{{Key: "price", Value: 1}}
	case "priceDesc":
		return bson.D{{Key: "price", Value: -1}}
	case "popularity":
		return bson.D{{Key: "rating", Value: -1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
