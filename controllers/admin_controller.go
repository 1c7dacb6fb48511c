package controllers

import (
	"context"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
)

type AdminUserService interface {
	List(ctx context.Context) ([]models.PublicUser, error)
	Create(ctx context.Context, req models.AdminCreateUserRequest) (*models.PublicUser, error)
	Update(ctx context.Context, idHex string, req models.AdminUpdateUserRequest) (*models.PublicUser, error)
	Delete(ctx context.Context, idHex string) error
}

type NotificationLister interface {
	List(ctx context.Context, status string, page, limit int) (*services.NotificationListResponse, error)
}

// AdminController groups the admin-only user and notification endpoints.
type AdminController struct {
	users         AdminUserService
	notifications NotificationLister
}

func NewAdminController(users AdminUserService, notifications NotificationLister) *AdminController {
	return &AdminController{users: users, notifications: notifications}
}

// ListUsers handles GET /api/admin/users
func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.users.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if users == nil {
		users = []models.PublicUser{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// CreateUser handles POST /api/admin/users
func (ac *AdminController) CreateUser(c *gin.Context) {
	var req models.AdminCreateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ac.users.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
}

// UpdateUser handles PUT /api/admin/users/:id
func (ac *AdminController) UpdateUser(c *gin.Context) {
	var req models.AdminUpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ac.users.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

// DeleteUser handles DELETE /api/admin/users/:id
func (ac *AdminController) DeleteUser(c *gin.Context) {
	if err := ac.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ListNotifications handles GET /api/admin/notifications
func (ac *AdminController) ListNotifications(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	resp, err := ac.notifications.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
