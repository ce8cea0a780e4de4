package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"twcompany/enrichment"
	"twcompany/metrics"
	"twcompany/normalization"
	"twcompany/resolution"
)

// Resolver поиск 統一編號 по названию
type Resolver interface {
	Resolve(ctx context.Context, rawName string) (resolution.Resolved, bool)
}

// DetailFetcher получение карточки по 統一編號
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (*enrichment.Detail, bool)
}

// ProgressFunc вызывается перед обработкой каждой строки
type ProgressFunc func(done, total int, label string)

// Config паузы между обращениями к реестрам
type Config struct {
	LookupDelayMin time.Duration // Случайная пауза перед поиском по названию, от
	LookupDelayMax time.Duration // до
	DetailDelay    time.Duration // Пауза перед получением карточки
	Delayer        resolution.Delayer
}

// DefaultConfig паузы по умолчанию
func DefaultConfig() Config {
	return Config{
		LookupDelayMin: 100 * time.Millisecond,
		LookupDelayMax: 300 * time.Millisecond,
		DetailDelay:    100 * time.Millisecond,
		Delayer:        resolution.TimerDelayer{},
	}
}

// Reconciler последовательная пакетная обработка строк
type Reconciler struct {
	resolver Resolver
	fetcher  DetailFetcher
	config   Config
	logger   *slog.Logger
}

// NewReconciler создает обработчик пакета
func NewReconciler(resolver Resolver, fetcher DetailFetcher, config Config) *Reconciler {
	if config.Delayer == nil {
		config.Delayer = resolution.TimerDelayer{}
	}
	return &Reconciler{
		resolver: resolver,
		fetcher:  fetcher,
		config:   config,
		logger:   slog.Default().With("component", "reconciler"),
	}
}

// ReconcileBatch обрабатывает строки строго по очереди и возвращает по одной
// строке результата на каждую входную строку в исходном порядке, а также всех
// членов советов найденных компаний.
// При отмене контекста возвращает уже обработанные строки и ошибку контекста.
func (r *Reconciler) ReconcileBatch(ctx context.Context, queries []RawQuery, progress ProgressFunc) ([]ReconciledRow, []enrichment.DirectorRecord, error) {
	rows := make([]ReconciledRow, 0, len(queries))
	directors := []enrichment.DirectorRecord{}

	start := time.Now()
	for i, query := range queries {
		rawID := normalization.CleanBusinessID(query.ID)
		rawName := normalization.CleanCell(query.Name)
		if progress != nil {
			label := rawID
			if label == "" {
				label = rawName
			}
			progress(i, len(queries), label)
		}

		if err := ctx.Err(); err != nil {
			r.logger.Warn("batch cancelled", "done", i, "total", len(queries), "error", err)
			return rows, directors, err
		}

		row, rowDirectors, err := r.reconcileRow(ctx, i+1, rawID, rawName)
		if err != nil {
			r.logger.Warn("batch cancelled", "done", i, "total", len(queries), "error", err)
			return rows, directors, err
		}
		rows = append(rows, row)
		directors = append(directors, rowDirectors...)
		metrics.BatchRowsTotal.WithLabelValues(string(row.Status)).Inc()
	}

	if progress != nil {
		progress(len(queries), len(queries), "")
	}
	r.logger.Info("batch reconciled",
		"rows", len(rows), "directors", len(directors), "duration", time.Since(start))
	return rows, directors, nil
}

// reconcileRow обрабатывает одну строку. Ошибка возвращается только при
// отмене контекста, строка в этом случае в результат не попадает.
func (r *Reconciler) reconcileRow(ctx context.Context, index int, rawID, rawName string) (ReconciledRow, []enrichment.DirectorRecord, error) {
	row := ReconciledRow{Index: index, RawID: rawID, RawName: rawName}

	switch {
	case normalization.IsBusinessID(rawID):
		row.ID = rawID
		row.Stage = resolution.StageDirect
		row.Strategy = StrategyDirect
	case rawName != "":
		if err := r.config.Delayer.Sleep(ctx, resolution.Jitter(r.config.LookupDelayMin, r.config.LookupDelayMax)); err != nil {
			return row, nil, err
		}
		resolved, ok := r.resolver.Resolve(ctx, rawName)
		if err := ctx.Err(); err != nil {
			return row, nil, err
		}
		if ok {
			row.ID = resolved.ID
			row.Stage = resolved.Stage
			row.Strategy = NameStrategy(resolved.Stage, rawName)
		}
	}

	if row.Stage == "" {
		// В колонке 統一編號 остается исходный ввод, даже некорректный
		row.ID = rawID
		row.Name = SentinelUnrecognized
		row.Status = StatusUnrecognized
		r.logger.Debug("row unrecognized", "index", index, "raw_id", rawID, "raw_name", rawName)
		return row, nil, nil
	}

	if err := r.config.Delayer.Sleep(ctx, r.config.DetailDelay); err != nil {
		return row, nil, err
	}
	detail, found := r.fetcher.FetchDetail(ctx, row.ID)
	if err := ctx.Err(); err != nil {
		return row, nil, err
	}
	if !found {
		row.Name = SentinelNoResponse
		row.Status = StatusNoResponse
		r.logger.Warn("no detail for resolved id", "index", index, "id", row.ID)
		return row, nil, nil
	}

	row.Record = detail.Record
	row.Name = detail.Record.Get(enrichment.FieldName)
	row.Status = StatusFound

	directors := make([]enrichment.DirectorRecord, 0, len(detail.Directors))
	for _, director := range detail.Directors {
		tagged := make(enrichment.DirectorRecord, len(director)+2)
		for key, value := range director {
			tagged[key] = value
		}
		tagged[enrichment.DirectorOwnerID] = row.ID
		tagged[enrichment.DirectorOwnerName] = row.Name
		directors = append(directors, tagged)
	}
	return row, directors, nil
}

// NameStrategy пометка строки, 統一編號 которой найден по названию
func NameStrategy(stage resolution.Stage, rawName string) string {
	return fmt.Sprintf("名稱搜尋-%s(%s)", stage.Label(), rawName)
}
