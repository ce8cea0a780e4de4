package system

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsProvider состояние реестров и кэша
type StatsProvider interface {
	SourceStats() map[string]interface{}
}

// Handler служебные эндпоинты
type Handler struct {
	stats     StatsProvider
	startedAt time.Time
}

// NewHandler создает обработчик
func NewHandler(stats StatsProvider) *Handler {
	return &Handler{stats: stats, startedAt: time.Now()}
}

// Health проверка работоспособности
// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"sources":        h.stats.SourceStats(),
		"time":           time.Now().Format(time.RFC3339),
	})
}
