package enrichment

import (
	"context"
	"log/slog"
	"time"
)

// DetailFetcher получает карточку компании из источников по порядку:
// сначала зеркало с составом совета, затем официальный реестр
type DetailFetcher struct {
	sources []DetailSource
	cache   *DetailCache
	logger  *slog.Logger
}

// NewDetailFetcher создает получатель карточек. Порядок sources задает приоритет.
// cache может быть nil.
func NewDetailFetcher(cache *DetailCache, sources ...DetailSource) *DetailFetcher {
	return &DetailFetcher{
		sources: sources,
		cache:   cache,
		logger:  slog.Default().With("component", "detail_fetcher"),
	}
}

// FetchDetail возвращает карточку первого источника, ответившего непустой записью.
// Ошибки источников логируются и не возвращаются: ok=false означает "карточки нет".
func (f *DetailFetcher) FetchDetail(ctx context.Context, id string) (*Detail, bool) {
	if f.cache != nil {
		if detail, found := f.cache.Get(id); found {
			return detail, true
		}
	}

	for _, source := range f.sources {
		if !source.IsAvailable() {
			continue
		}

		detail, err := source.FetchDetail(ctx, id)
		if err != nil {
			f.logger.Warn("detail source failed", "source", source.Name(), "id", id, "error", err)
			continue
		}
		if detail == nil || len(detail.Record) == 0 {
			f.logger.Debug("detail source returned empty record", "source", source.Name(), "id", id)
			continue
		}

		if detail.Directors == nil {
			detail.Directors = []DirectorRecord{}
		}
		if detail.FetchedAt.IsZero() {
			detail.FetchedAt = time.Now()
		}
		if f.cache != nil {
			f.cache.Set(id, detail)
		}
		return detail, true
	}

	return nil, false
}

// GetAvailableSources возвращает список включенных источников
func (f *DetailFetcher) GetAvailableSources() []string {
	var names []string
	for _, source := range f.sources {
		if source.IsAvailable() {
			names = append(names, source.Name())
		}
	}
	return names
}

// GetSourceStats возвращает состояние источников и кэша
func (f *DetailFetcher) GetSourceStats() map[string]interface{} {
	stats := make(map[string]interface{})

	for _, source := range f.sources {
		sourceStats := map[string]interface{}{
			"available": source.IsAvailable(),
		}
		if b, ok := source.(interface{ BreakerState() map[string]interface{} }); ok {
			sourceStats["circuit_breaker"] = b.BreakerState()
		}
		stats[source.Name()] = sourceStats
	}

	if f.cache != nil {
		stats["cache"] = f.cache.GetStats()
	}

	return stats
}
