package services

import (
	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Requester is the identity a service call runs as.
type Requester struct {
	UserID primitive.ObjectID
	Role   string
	system bool
}

// SystemRequester is used by the payment webhook and queue consumer, which
// act on behalf of no particular user.
func SystemRequester() Requester {
	return Requester{Role: models.RoleAdmin, system: true}
}

func (r Requester) IsAdmin() bool { return r.system || r.Role == models.RoleAdmin }

func (r Requester) IsSystem() bool { return r.system }

// Owns reports whether the requester may act on a resource owned by owner.
func (r Requester) Owns(owner primitive.ObjectID) bool {
	return r.IsAdmin() || (!r.UserID.IsZero() && r.UserID == owner)
}

func parseObjectID(hex, notFoundMessage string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperrors.NotFound(notFoundMessage)
	}
	return id, nil
}

// NormalizePage applies the list defaults: page 1, limit 10, limit at most 100.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
