package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"twcompany/enrichment"
	"twcompany/normalization"
	"twcompany/reconcile"
	"twcompany/resolution"
)

var (
	// ErrEmptyQuery пустой запрос
	ErrEmptyQuery = errors.New("query is empty")
	// ErrInvalidID строка не является 統一編號
	ErrInvalidID = errors.New("business id must be 8 digits")
	// ErrNotResolved ни один этап поиска по названию не дал 統一編號
	ErrNotResolved = errors.New("company not resolved")
	// ErrDetailUnavailable 統一編號 известен, но ни один реестр не вернул карточку
	ErrDetailUnavailable = errors.New("company detail unavailable")
	// ErrTooManyRows пакет превышает допустимый размер
	ErrTooManyRows = errors.New("too many rows in batch")
	// ErrSearchUnavailable официальный реестр отключен, поиск по ключевому слову невозможен
	ErrSearchUnavailable = errors.New("keyword search unavailable")
)

// Resolver поиск 統一編號 по названию
type Resolver interface {
	Resolve(ctx context.Context, rawName string) (resolution.Resolved, bool)
}

// DetailFetcher получение карточки по 統一編號
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (*enrichment.Detail, bool)
}

// Lister поиск по ключевому слову без фильтра по статусу
type Lister interface {
	List(ctx context.Context, keyword string) ([]enrichment.Candidate, error)
}

// BatchReconciler пакетная обработка
type BatchReconciler interface {
	ReconcileBatch(ctx context.Context, queries []reconcile.RawQuery, progress reconcile.ProgressFunc) ([]reconcile.ReconciledRow, []enrichment.DirectorRecord, error)
}

// Result итог одиночного поиска
type Result struct {
	Query     string                      `json:"query"`
	ID        string                      `json:"id"`
	Stage     resolution.Stage            `json:"stage"`
	Strategy  string                      `json:"strategy"`
	Record    enrichment.DetailRecord     `json:"record"`
	Directors []enrichment.DirectorRecord `json:"directors"`
	Source    string                      `json:"source"`
}

// BatchResult итог пакетной обработки
type BatchResult struct {
	Rows      []reconcile.ReconciledRow   `json:"rows"`
	Directors []enrichment.DirectorRecord `json:"directors"`
}

// UseCase координирует поиск компании и пакетную обработку
type UseCase struct {
	resolver   Resolver
	fetcher    DetailFetcher
	lister     Lister
	reconciler BatchReconciler
	maxRows    int
	logger     *slog.Logger
}

// NewUseCase создает use case. maxRows <= 0 снимает ограничение на размер пакета,
// lister == nil отключает Search.
func NewUseCase(resolver Resolver, fetcher DetailFetcher, lister Lister, reconciler BatchReconciler, maxRows int) *UseCase {
	return &UseCase{
		resolver:   resolver,
		fetcher:    fetcher,
		lister:     lister,
		reconciler: reconciler,
		maxRows:    maxRows,
		logger:     slog.Default().With("component", "lookup"),
	}
}

// Lookup ищет компанию по 統一編號 или названию и возвращает карточку.
// Восьмизначный запрос считается 統一編號 и в реестрах по названию не ищется.
func (uc *UseCase) Lookup(ctx context.Context, query string) (*Result, error) {
	query = normalization.CleanCell(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	result := &Result{Query: query}
	if id := normalization.CleanBusinessID(query); normalization.IsBusinessID(id) {
		result.ID = id
		result.Stage = resolution.StageDirect
	} else {
		resolved, ok := uc.resolver.Resolve(ctx, query)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotResolved, query)
		}
		result.ID = resolved.ID
		result.Stage = resolved.Stage
	}
	result.Strategy = result.Stage.Label()

	if err := uc.fill(ctx, result); err != nil {
		return nil, err
	}

	uc.logger.Info("company looked up", "query", query, "id", result.ID, "stage", result.Stage)
	return result, nil
}

// Detail возвращает карточку по 統一編號
func (uc *UseCase) Detail(ctx context.Context, id string) (*Result, error) {
	id = normalization.CleanBusinessID(id)
	if !normalization.IsBusinessID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	result := &Result{Query: id, ID: id, Stage: resolution.StageDirect, Strategy: resolution.StageDirect.Label()}
	if err := uc.fill(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *UseCase) fill(ctx context.Context, result *Result) error {
	detail, ok := uc.fetcher.FetchDetail(ctx, result.ID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDetailUnavailable, result.ID)
	}

	result.Record = detail.Record
	result.Source = detail.Source
	result.Directors = make([]enrichment.DirectorRecord, 0, len(detail.Directors))
	for _, director := range detail.Directors {
		copied := make(enrichment.DirectorRecord, len(director))
		for key, value := range director {
			copied[key] = value
		}
		result.Directors = append(result.Directors, copied)
	}
	return nil
}

// Search возвращает все компании, в названии которых есть keyword, включая недействующие
func (uc *UseCase) Search(ctx context.Context, keyword string) ([]enrichment.Candidate, error) {
	keyword = normalization.CleanCell(keyword)
	if keyword == "" {
		return nil, ErrEmptyQuery
	}
	if uc.lister == nil {
		return nil, ErrSearchUnavailable
	}

	candidates, err := uc.lister.List(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	if candidates == nil {
		candidates = []enrichment.Candidate{}
	}
	return candidates, nil
}

// Batch обрабатывает пакет строк
func (uc *UseCase) Batch(ctx context.Context, queries []reconcile.RawQuery, progress reconcile.ProgressFunc) (*BatchResult, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrEmptyQuery)
	}
	if uc.maxRows > 0 && len(queries) > uc.maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(queries), uc.maxRows)
	}

	rows, directors, err := uc.reconciler.ReconcileBatch(ctx, queries, progress)
	if err != nil {
		return &BatchResult{Rows: rows, Directors: directors}, fmt.Errorf("batch interrupted after %d rows: %w", len(rows), err)
	}
	return &BatchResult{Rows: rows, Directors: directors}, nil
}

// SourceStats состояние реестров и кэша, если получатель карточек его отдает
func (uc *UseCase) SourceStats() map[string]interface{} {
	if s, ok := uc.fetcher.(interface{ GetSourceStats() map[string]interface{} }); ok {
		return s.GetSourceStats()
	}
	return map[string]interface{}{}
}
