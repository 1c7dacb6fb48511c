package repository

import (
	"testing"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildProductQuery_Defaults(t *testing.T) {
	q := buildProductQuery(models.ProductFilter{Collection: "all", Category: "All"})
	assert.Equal(t, bson.M{"isPublished": true}, q)
}

func TestBuildProductQuery_Filters(t *testing.T) {
	min, max := 10.0, 50.0
	q := buildProductQuery(models.ProductFilter{
		Collection: "Summer",
		Size:       "S, M",
		Color:      "Red",
		Gender:     "Women",
		MinPrice:   &min,
		MaxPrice:   &max,
		Brand:      "Acme",
		Search:     "linen (slim)",
	})

	assert.Equal(t, "Summer", q["collections"])
	assert.Equal(t, bson.M{"$in": []string{"S", "M"}}, q["sizes"])
	assert.Equal(t, bson.M{"$in": []string{"Red"}}, q["colors"])
	assert.Equal(t, "Women", q["gender"])
	assert.Equal(t, bson.M{"$gte": 10.0, "$lte": 50.0}, q["price"])
	assert.Equal(t, bson.M{"$in": []string{"Acme"}}, q["brand"])

	or, ok := q["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 2)
}

func TestProductSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "price", Value: 1}}, productSort("priceAsc"))
	assert.Equal(t, bson.D{{Key: "price", Value: -1}}, productSort("priceDesc"))
	assert.Equal(t, bson.D{{Key: "rating", Value: -1}}, productSort("popularity"))
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, productSort(""))
}
