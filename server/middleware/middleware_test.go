package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "twcompany/server/errors"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(GinRequestIDMiddleware())
	router.Use(GinCORSMiddleware())
	router.Use(GinLoggerMiddleware())
	router.Use(GinRecoveryMiddleware())
	return router
}

func TestGinRequestIDMiddleware(t *testing.T) {
	router := newTestRouter()
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "fixed-id", w.Body.String())
}

func TestGinCORSMiddleware(t *testing.T) {
	router := newTestRouter()
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGinRecoveryMiddleware(t *testing.T) {
	router := newTestRouter()
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Error)
	assert.Equal(t, "internal server error", resp.Message)
	assert.Equal(t, w.Header().Get(RequestIDHeader), resp.RequestID)
}

func TestHandleGinError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"app error", apperrors.NewNotFoundError("company not found", nil), http.StatusNotFound, "company not found"},
		{"validation", apperrors.NewValidationError("q is required", nil), http.StatusBadRequest, "q is required"},
		{"plain error hides details", errors.New("secret detail"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter()
			router.GET("/fail", func(c *gin.Context) { HandleGinError(c, tt.err) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

			assert.Equal(t, tt.code, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.message, resp.Message)
			assert.NotContains(t, w.Body.String(), "secret detail")
		})
	}
}
