package controllers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/bardan8586/Fancy-Enterprise/models"
	"github.com/bardan8586/Fancy-Enterprise/services"
	"github.com/gin-gonic/gin"
)

type UploadService interface {
	UploadImage(ctx context.Context, fh *multipart.FileHeader) (string, error)
	Presign(ctx context.Context, filename, contentType string) (*services.PresignResponse, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, email string) (string, error)
}

// UploadController handles /api/upload.
type UploadController struct {
	uploads UploadService
}

func NewUploadController(uploads UploadService) *UploadController {
	return &UploadController{uploads: uploads}
}

// Upload handles POST /api/upload with a multipart "image" field.
func (uc *UploadController) Upload(c *gin.Context) {
	fh, _ := c.FormFile("image")
	url, err := uc.uploads.UploadImage(c.Request.Context(), fh)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": url})
}

// Presign handles GET /api/upload/presign?filename=&contentType=
func (uc *UploadController) Presign(c *gin.Context) {
	resp, err := uc.uploads.Presign(c.Request.Context(), c.Query("filename"), c.Query("contentType"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SubscribeController handles the newsletter sign-up.
type SubscribeController struct {
	subscribers Subscriber
}

func NewSubscribeController(subscribers Subscriber) *SubscribeController {
	return &SubscribeController{subscribers: subscribers}
}

// Subscribe handles POST /api/subscribe
func (sc *SubscribeController) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	// A missing or malformed body is reported as a missing email.
	_ = c.ShouldBindJSON(&req)

	msg, err := sc.subscribers.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
