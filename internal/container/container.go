package container

import (
	"fmt"
	"log/slog"
	"sync"

	"twcompany/enrichment"
	lookupapp "twcompany/internal/application/lookup"
	"twcompany/internal/config"
	"twcompany/reconcile"
	"twcompany/resolution"
)

// Container контейнер зависимостей
// Управляет жизненным циклом реестров, кэша и конвейеров
type Container struct {
	mu sync.RWMutex

	// Конфигурация
	Config *config.Config

	// Реестры
	MOEA *enrichment.MOEAClient
	G0V  *enrichment.G0VClient

	// Инфраструктурные компоненты
	Cache      *enrichment.DetailCache
	Fetcher    *enrichment.DetailFetcher
	Resolver   *resolution.Resolver
	Reconciler *reconcile.Reconciler

	// Use cases
	LookupUseCase *lookupapp.UseCase

	initialized bool
	closed      bool
}

// NewContainer создает новый контейнер зависимостей
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return &Container{Config: cfg}, nil
}

// Initialize создает все компоненты в порядке зависимостей
func (c *Container) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return fmt.Errorf("container already initialized")
	}

	// Шаг 1: реестры
	c.MOEA = enrichment.NewMOEAClient(c.Config.MOEASource())
	c.G0V = enrichment.NewG0VClient(c.Config.G0VSource())

	// Шаг 2: кэш и получатель карточек. Зеркало опрашивается первым,
	// так как только оно отдает состав совета.
	c.Cache = enrichment.NewDetailCache(c.Config.Cache)
	c.Fetcher = enrichment.NewDetailFetcher(c.Cache, c.G0V, c.MOEA)

	// Шаг 3: конвейеры
	c.Resolver = resolution.NewResolver(
		availableOrNil(c.MOEA),
		availableOrNil(c.G0V),
		c.Config.ResolverConfig(),
	)
	c.Reconciler = reconcile.NewReconciler(c.Resolver, c.Fetcher, c.Config.ReconcileConfig())

	// Шаг 4: use cases
	// Поиск по ключевому слову есть только у официального реестра
	var lister lookupapp.Lister
	if c.MOEA.IsAvailable() {
		lister = c.MOEA
	}
	c.LookupUseCase = lookupapp.NewUseCase(c.Resolver, c.Fetcher, lister, c.Reconciler, c.Config.Batch.MaxRows)

	c.initialized = true
	slog.Info("container initialized",
		"sources", c.Fetcher.GetAvailableSources(),
		"cache_enabled", c.Config.Cache.Enabled,
	)
	return nil
}

// Close освобождает ресурсы контейнера
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.Cache != nil {
		c.Cache.Close()
	}
	return nil
}

// availableOrNil отключенный реестр не участвует в поиске по названию
func availableOrNil(source interface {
	resolution.CandidateSource
	IsAvailable() bool
}) resolution.CandidateSource {
	if !source.IsAvailable() {
		return nil
	}
	return source
}
