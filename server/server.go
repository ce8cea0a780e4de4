package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"twcompany/internal/api/routes"
	"twcompany/internal/container"
	"twcompany/server/middleware"
)

// Server HTTP сервер поиска компаний
type Server struct {
	container  *container.Container
	httpServer *http.Server

	handlerOnce sync.Once
	httpHandler http.Handler
}

// NewServer создает сервер поверх инициализированного контейнера
func NewServer(c *container.Container) *Server {
	return &Server{container: c}
}

// Handler возвращает gin router со всеми middleware и маршрутами
func (s *Server) Handler() http.Handler {
	s.handlerOnce.Do(func() {
		// Режим Gin можно переопределить через GIN_MODE
		if os.Getenv("GIN_MODE") == "" {
			gin.SetMode(gin.ReleaseMode)
		}

		router := gin.New()
		router.Use(middleware.GinRequestIDMiddleware())
		router.Use(middleware.GinCORSMiddleware())
		router.Use(middleware.GinGzipMiddleware())
		router.Use(middleware.GinLoggerMiddleware())
		router.Use(middleware.GinRecoveryMiddleware())

		router.NoRoute(func(c *gin.Context) {
			middleware.SendJSONError(c, http.StatusNotFound, "route not found")
		})

		routes.Register(router, s.container.LookupUseCase)
		s.httpHandler = router
	})
	return s.httpHandler
}

// Start запускает HTTP сервер и блокируется до его остановки
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%s", s.container.Config.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      30 * time.Minute, // Пакет из нескольких тысяч строк обрабатывается последовательно
		IdleTimeout:       120 * time.Second,
	}

	LogInfo(context.Background(), "starting HTTP server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server on %s: %w", addr, err)
	}
	return nil
}

// Shutdown останавливает HTTP сервер gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	start := time.Now()
	defer func() {
		if err := s.container.Close(); err != nil {
			LogError(ctx, err, "failed to close container")
		}
	}()

	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	LogDuration(ctx, "graceful shutdown", time.Since(start))
	return nil
}
