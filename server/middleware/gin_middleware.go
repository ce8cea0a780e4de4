package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"twcompany/metrics"
)

// GinRequestIDMiddleware добавляет уникальный request ID к каждому запросу в Gin
func GinRequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Генерируем или получаем request ID из заголовка
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Set("request_id", reqID)
		c.Request = c.Request.WithContext(SetRequestID(c.Request.Context(), reqID))
		c.Header(RequestIDHeader, reqID)

		c.Next()
	}
}

// GetRequestIDFromGin извлекает request ID из Gin context
func GetRequestIDFromGin(c *gin.Context) string {
	if c == nil {
		return ""
	}

	reqID, exists := c.Get("request_id")
	if !exists {
		return ""
	}

	if id, ok := reqID.(string); ok {
		return id
	}

	return ""
}

// GinCORSMiddleware добавляет CORS заголовки в Gin
func GinCORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Request-ID, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// GinGzipMiddleware включает сжатие ответов. Книги Excel уже сжаты и пропускаются.
func GinGzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.BestSpeed, gzip.WithExcludedExtensions([]string{".xlsx"}), gzip.WithExcludedPaths([]string{"/api/batch"}))
}

// GinLoggerMiddleware логирует запросы через slog и считает их в метриках
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(statusCode)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(latency.Seconds())

		if raw != "" {
			path = path + "?" + raw
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", statusCode,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"body_size", c.Writer.Size(),
			"request_id", GetRequestIDFromGin(c),
		}
		if err := c.Errors.Last(); err != nil {
			attrs = append(attrs, "error", err.Error())
		}

		switch {
		case statusCode >= http.StatusInternalServerError:
			slog.Error("request completed", attrs...)
		case statusCode >= http.StatusBadRequest:
			slog.Warn("request completed", attrs...)
		default:
			slog.Info("request completed", attrs...)
		}
	}
}

// GinRecoveryMiddleware обрабатывает паники в Gin
func GinRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				reqID := GetRequestIDFromGin(c)

				slog.Error("panic recovered",
					"panic", fmt.Sprint(err),
					"stack", string(debug.Stack()),
					"request_id", reqID,
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				metrics.HTTPErrorsTotal.WithLabelValues("panic", strconv.Itoa(http.StatusInternalServerError)).Inc()

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Error:     true,
					Message:   "internal server error",
					RequestID: reqID,
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()

		c.Next()
	}
}
