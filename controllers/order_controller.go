package controllers

import (
	"context"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/middleware"
	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	Get(ctx context.Context, req services.Requester, idHex string) (*models.Order, error)
	Create(ctx context.Context, userID primitive.ObjectID, body models.CreateOrderRequest) (*models.Order, error)
	AdminList(ctx context.Context, page, limit int) (*services.OrderListResponse, error)
	UpdateStatus(ctx context.Context, idHex, status string) (*models.Order, error)
	Delete(ctx context.Context, idHex string) error
}

type OrderController struct {
	orders OrderService
}

func NewOrderController(orders OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// MyOrders handles GET /api/orders/my-orders
func (oc *OrderController) MyOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orders, err := oc.orders.MyOrders(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// Get handles GET /api/orders/:id
func (oc *OrderController) Get(c *gin.Context) {
	order, err := oc.orders.Get(c.Request.Context(), middleware.RequesterFrom(c), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Create handles POST /api/orders
func (oc *OrderController) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var body models.CreateOrderRequest
	if !bindJSON(c, &body) {
		return
	}
	order, err := oc.orders.Create(c.Request.Context(), userID, body)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// AdminList handles GET /api/admin/orders
func (oc *OrderController) AdminList(c *gin.Context) {
	page, limit := parsePaginationParams(c)
	resp, err := oc.orders.AdminList(c.Request.Context(), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus handles PUT /api/admin/orders/:id
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var body models.UpdateOrderStatusRequest
	if !bindJSON(c, &body) {
		return
	}
	order, err := oc.orders.UpdateStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete handles DELETE /api/admin/orders/:id
func (oc *OrderController) Delete(c *gin.Context) {
	if err := oc.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order removed"})
}
