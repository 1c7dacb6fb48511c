package controllers

import (
	"strconv"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/middleware"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// bindJSON decodes the body into dst and reports a validation error on
// failure. Callers return when it yields false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.Validation(middleware.BindingMessage(err)))
		return false
	}
	return true
}

// currentUser returns the authenticated user id. Routes using it sit behind
// Protect, so a missing id means the middleware chain is misconfigured.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		_ = c.Error(apperrors.Unauthorized("Not authorized, no token"))
	}
	return id, ok
}

// optionalUser is the cart's view of identity: a pointer that is nil for
// guests.
func optionalUser(c *gin.Context) *primitive.ObjectID {
	if id, ok := middleware.CurrentUserID(c); ok {
		return &id
	}
	return nil
}

// parsePaginationParams extracts page/limit query params.
func parsePaginationParams(c *gin.Context) (int, int) {
	const maxLimit = 100
	page, limit := 1, 10
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && l > 0 {
		if l > maxLimit {
			l = maxLimit
		}
		limit = l
	}
	return page, limit
}
