package apperrors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/bardan8586/Fancy-Enterprise/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const serverErrorMessage = "Server Error"

// Middleware renders the last error pushed with c.Error as
// {"success": false, "message": ..., "stack"?: ...}. Stacks are only
// exposed outside production.
func Middleware(env string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := As(err)
		if !ok {
			appErr = Internal(serverErrorMessage, err)
		}

		reqLog := logger.ForRequest(log, c)
		if appErr.Code >= http.StatusInternalServerError {
			reqLog.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		} else {
			reqLog.Debug("request rejected",
				zap.String("kind", string(appErr.Kind)),
				zap.String("message", appErr.Message),
			)
		}

		c.AbortWithStatusJSON(appErr.Code, body(env, appErr))
	}
}

// Recovery turns panics into the same 500 body the error middleware emits.
func Recovery(env string, log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ForRequest(log, c).Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
		)
		appErr := &Error{
			Kind:    KindInternal,
			Code:    http.StatusInternalServerError,
			Message: serverErrorMessage,
			Err:     fmt.Errorf("panic: %v", recovered),
			Stack:   string(debug.Stack()),
		}
		c.AbortWithStatusJSON(appErr.Code, body(env, appErr))
	})
}

// NotFoundHandler answers routes nothing else matched.
func NotFoundHandler(env string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, body(env, NotFound("Not found - "+c.Request.URL.Path)))
	}
}

func body(env string, e *Error) gin.H {
	h := gin.H{"success": false, "message": e.Message}
	if env != "production" {
		stack := e.Stack
		if stack == "" && e.Err != nil {
			stack = e.Err.Error()
		}
		if stack != "" {
			h["stack"] = stack
		}
	}
	return h
}
