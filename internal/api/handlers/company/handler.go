package company

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"twcompany/enrichment"
	"twcompany/internal/api/handlers/common"
	lookupapp "twcompany/internal/application/lookup"
	apperrors "twcompany/server/errors"
	"twcompany/server/middleware"
)

// Service операции поиска компании
type Service interface {
	Lookup(ctx context.Context, query string) (*lookupapp.Result, error)
	Detail(ctx context.Context, id string) (*lookupapp.Result, error)
	Search(ctx context.Context, keyword string) ([]enrichment.Candidate, error)
}

// Handler HTTP обработчик поиска компаний
type Handler struct {
	service Service
}

// NewHandler создает обработчик
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Lookup ищет компанию по 統一編號 или названию
// GET /api/company/lookup?q=
func (h *Handler) Lookup(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		middleware.HandleGinError(c, apperrors.NewValidationError("query parameter q is required", nil))
		return
	}

	result, err := h.service.Lookup(c.Request.Context(), query)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail возвращает карточку по 統一編號
// GET /api/company/:id
func (h *Handler) Detail(c *gin.Context) {
	result, err := h.service.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Search список компаний по ключевому слову, включая недействующие
// GET /api/company/search?q=
func (h *Handler) Search(c *gin.Context) {
	keyword := c.Query("q")
	if keyword == "" {
		middleware.HandleGinError(c, apperrors.NewValidationError("query parameter q is required", nil))
		return
	}

	candidates, err := h.service.Search(c.Request.Context(), keyword)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":      keyword,
		"total":      len(candidates),
		"candidates": candidates,
	})
}
