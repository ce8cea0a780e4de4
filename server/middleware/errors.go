package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"twcompany/metrics"
	apperrors "twcompany/server/errors"
)

// HTTPError интерфейс для ошибок с HTTP статусом и сообщением
type HTTPError interface {
	error
	StatusCode() int
	UserMessage() string
	GetContext() string
	Unwrap() error
}

var _ HTTPError = (*apperrors.AppError)(nil)

// ErrorResponse структура ответа об ошибке
type ErrorResponse struct {
	Error     bool   `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HandleGinError записывает JSON ошибку, логирует её и учитывает в метриках.
// Ошибки без HTTPError отдаются как 500 без подробностей.
func HandleGinError(c *gin.Context, err error) {
	reqID := GetRequestIDFromGin(c)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError("unhandled error", err)
	}

	attrs := []any{
		"error", appErr.Err,
		"user_message", appErr.Message,
		"context", appErr.Context,
		"status_code", appErr.Code,
		"request_id", reqID,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	}
	if appErr.Code >= http.StatusInternalServerError {
		slog.Error("HTTP error", attrs...)
	} else {
		slog.Warn("HTTP error", attrs...)
	}
	metrics.HTTPErrorsTotal.WithLabelValues(appErr.Type(), strconv.Itoa(appErr.Code)).Inc()

	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.Code, ErrorResponse{
		Error:     true,
		Message:   appErr.Message,
		RequestID: reqID,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// SendJSONError отправляет JSON ошибку с произвольным статусом
func SendJSONError(c *gin.Context, statusCode int, message string) {
	HandleGinError(c, &apperrors.AppError{Code: statusCode, Message: message})
}
