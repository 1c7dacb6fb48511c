package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Welcome handles GET /
func Welcome(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to Fancy API!")
}

// Health handles GET /health
func Health(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Server is healthy",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": env,
		})
	}
}
