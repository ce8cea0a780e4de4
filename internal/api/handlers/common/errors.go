package common

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"twcompany/enrichment"
	lookupapp "twcompany/internal/application/lookup"
	apperrors "twcompany/server/errors"
	"twcompany/server/middleware"
)

// ToAppError переводит ошибки use case в HTTP ошибки
func ToAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var fetchErr *enrichment.FetchError
	switch {
	case errors.Is(err, lookupapp.ErrEmptyQuery), errors.Is(err, lookupapp.ErrInvalidID):
		return apperrors.NewValidationError(err.Error(), err)
	case errors.Is(err, lookupapp.ErrNotResolved):
		return apperrors.NewNotFoundError("company not found", err)
	case errors.Is(err, lookupapp.ErrDetailUnavailable):
		return apperrors.NewBadGatewayError("registries returned no detail", err)
	case errors.Is(err, lookupapp.ErrTooManyRows):
		return apperrors.NewTooLargeError(err.Error(), err)
	case errors.Is(err, lookupapp.ErrSearchUnavailable):
		return apperrors.NewServiceUnavailableError(err.Error(), err)
	case errors.As(err, &fetchErr):
		return apperrors.NewBadGatewayError("registry request failed", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewServiceUnavailableError("request cancelled", err)
	default:
		return apperrors.NewInternalError("unexpected error", err)
	}
}

// RespondError отправляет ошибку use case клиенту
func RespondError(c *gin.Context, err error) {
	middleware.HandleGinError(c, ToAppError(err))
}
