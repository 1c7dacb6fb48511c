package controllers

import (
	"context"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GoogleAuth(ctx context.Context, req models.GoogleAuthRequest) (*models.AuthResponse, error)
	Profile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, password string) error
	Wishlist(ctx context.Context, userID primitive.ObjectID) ([]models.Product, error)
	AddToWishlist(ctx context.Context, userID primitive.ObjectID, productHex string) ([]models.Product, error)
	RemoveFromWishlist(ctx context.Context, userID primitive.ObjectID, productHex string) ([]models.Product, error)
}

// UserController handles /api/users.
type UserController struct {
	users UserService
}

func NewUserController(users UserService) *UserController {
	return &UserController{users: users}
}

// Register handles POST /api/users/register
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := uc.users.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/users/login
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := uc.users.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GoogleAuth handles POST /api/users/google-auth
func (uc *UserController) GoogleAuth(c *gin.Context) {
	var req models.GoogleAuthRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := uc.users.GoogleAuth(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Profile handles GET /api/users/profile
func (uc *UserController) Profile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := uc.users.Profile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// ForgotPassword handles POST /api/users/forgot-password
func (uc *UserController) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := uc.users.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// ResetPassword handles POST /api/users/reset-password/:token
func (uc *UserController) ResetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := uc.users.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset successfully"})
}

// GetWishlist handles GET /api/users/wishlist
func (uc *UserController) GetWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	uc.respondWishlist(c)(uc.users.Wishlist(c.Request.Context(), userID))
}

// AddToWishlist handles POST /api/users/wishlist
func (uc *UserController) AddToWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.WishlistRequest
	if !bindJSON(c, &req) {
		return
	}
	uc.respondWishlist(c)(uc.users.AddToWishlist(c.Request.Context(), userID, req.ProductID))
}

// RemoveFromWishlist handles DELETE /api/users/wishlist/:productId
func (uc *UserController) RemoveFromWishlist(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	uc.respondWishlist(c)(uc.users.RemoveFromWishlist(c.Request.Context(), userID, c.Param("productId")))
}

func (uc *UserController) respondWishlist(c *gin.Context) func([]models.Product, error) {
	return func(products []models.Product, err error) {
		if err != nil {
			_ = c.Error(err)
			return
		}
		if products == nil {
			products = []models.Product{}
		}
		c.JSON(http.StatusOK, gin.H{"wishlist": products})
	}
}
