package apperrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRouter(env string, h gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(env, zap.NewNop()), Middleware(env, zap.NewNop()))
	r.GET("/x", h)
	r.NoRoute(NotFoundHandler(env))
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestMiddlewareRendersAppError(t *testing.T) {
	r := newRouter("development", func(c *gin.Context) {
		_ = c.Error(NotFound("Checkout not found"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Checkout not found", out["message"])
	assert.NotContains(t, out, "stack")
}

func TestConflictAnswers400(t *testing.T) {
	r := newRouter("production", func(c *gin.Context) {
		_ = c.Error(Conflict("Checkout already finalized"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Checkout already finalized", decode(t, w)["message"])
}

func TestUnknownErrorIsSanitized(t *testing.T) {
	handler := func(c *gin.Context) {
		_ = c.Error(errors.New("connection reset by peer"))
	}

	w := httptest.NewRecorder()
	newRouter("production", handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Server Error", out["message"])
	assert.NotContains(t, out, "stack")

	w = httptest.NewRecorder()
	newRouter("development", handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, decode(t, w), "stack")
}

func TestRecoveryHandlesPanic(t *testing.T) {
	r := newRouter("production", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Server Error", decode(t, w)["message"])
}

func TestNotFoundHandler(t *testing.T) {
	r := newRouter("production", func(c *gin.Context) {})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found - /api/nope", decode(t, w)["message"])
}

func TestIsKind(t *testing.T) {
	wrapped := errors.Join(errors.New("ctx"), Conflict("Checkout is not paid"))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.False(t, IsKind(wrapped, KindNotFound))
}
