package middleware

import (
	"net/http"
	"strings"

	"github.com/bardan8586/Fancy-Enterprise/apperrors"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/repository"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	UserIDKey = "userID"
	RoleKey   = "role"
	EmailKey  = "email"
)

// Authenticator resolves bearer tokens to users.
type Authenticator struct {
	tokens *services.TokenService
	users  repository.UserRepository
	logger *zap.Logger
}

func NewAuthenticator(tokens *services.TokenService, users repository.UserRepository, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, logger: logger}
}

// Protect rejects requests without a valid bearer token for an existing
// user.
func (a *Authenticator) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abort(c, apperrors.Unauthorized("Not authorized, no token"))
			return
		}
		if !a.authenticate(c, raw) {
			abort(c, apperrors.Unauthorized("Not authorized, token failed"))
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the user when a valid token is present and lets
// anonymous requests through otherwise.
func (a *Authenticator) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" {
			a.authenticate(c, raw)
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, raw string) bool {
	claims, err := a.tokens.Validate(raw)
	if err != nil {
		a.logger.Debug("token rejected", zap.Error(err))
		return false
	}
	user, err := a.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		a.logger.Debug("token user not found", zap.String("user_id", claims.UserID.Hex()), zap.Error(err))
		return false
	}

	c.Set(UserIDKey, user.ID)
	c.Set(RoleKey, user.Role)
	c.Set(EmailKey, user.Email)
	return true
}

// AdminOnly must run after Protect.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleKey) != models.RoleAdmin {
			abort(c, apperrors.Forbidden("Not authorized as an admin"))
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user, if any.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, ok := v.(primitive.ObjectID)
	return id, ok && !id.IsZero()
}

// RequesterFrom builds the service-level identity for the request.
func RequesterFrom(c *gin.Context) services.Requester {
	id, _ := CurrentUserID(c)
	return services.Requester{UserID: id, Role: c.GetString(RoleKey)}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// abort answers with the same body shape as the error middleware.
func abort(c *gin.Context, err *apperrors.Error) {
	c.AbortWithStatusJSON(err.Code, gin.H{"success": false, "message": err.Message})
}

// AdminIPAllowList restricts admin routes to the configured client IPs. An
// empty list allows everyone.
func AdminIPAllowList(ips []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		allowed[ip] = struct{}{}
	}
	return func(c *gin.Context) {
		if len(allowed) == 0 {
			c.Next()
			return
		}
		if _, ok := allowed[c.ClientIP()]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied: IP not authorized for admin operations",
			})
			return
		}
		c.Next()
	}
}
