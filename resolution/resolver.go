package resolution

import (
	"context"
	"log/slog"
	"time"

	"twcompany/enrichment"
	"twcompany/metrics"
	"twcompany/normalization"
)

// CandidateSource источник кандидатов по названию компании
type CandidateSource interface {
	Name() string
	Search(ctx context.Context, name string) ([]enrichment.Candidate, error)
}

// Stage этап, на котором найден 統一編號
type Stage string

const (
	StageDirect   Stage = "direct"
	StageMOEARaw  Stage = "moea_raw"
	StageG0VRaw   Stage = "g0v_raw"
	StageMOEACore Stage = "moea_core"
	StageG0VCore  Stage = "g0v_core"
)

// Label возвращает подпись этапа для пользователя
func (s Stage) Label() string {
	switch s {
	case StageDirect:
		return "統編直查"
	case StageMOEARaw:
		return "經濟部全名"
	case StageG0VRaw:
		return "g0v全名"
	case StageMOEACore:
		return "經濟部核心名"
	case StageG0VCore:
		return "g0v核心名"
	default:
		return string(s)
	}
}

// Resolved результат поиска 統一編號 по названию
type Resolved struct {
	ID    string `json:"id"`
	Stage Stage  `json:"stage"`
	Query string `json:"query"` // Название, по которому найден кандидат
}

// DefaultCoreRetryDelay пауза перед повторным поиском по ядру названия
const DefaultCoreRetryDelay = 300 * time.Millisecond

// Config настройки конвейера
type Config struct {
	CoreRetryDelay time.Duration
	Delayer        Delayer
}

// Resolver конвейер поиска 統一編號 по названию
type Resolver struct {
	official CandidateSource
	mirror   CandidateSource
	config   Config
	logger   *slog.Logger
}

type stage struct {
	tag    Stage
	source CandidateSource
	query  string
}

// NewResolver создает конвейер. official опрашивается раньше mirror на каждом шаге.
func NewResolver(official, mirror CandidateSource, config Config) *Resolver {
	if config.Delayer == nil {
		config.Delayer = TimerDelayer{}
	}
	return &Resolver{
		official: official,
		mirror:   mirror,
		config:   config,
		logger:   slog.Default().With("component", "resolver"),
	}
}

// Resolve ищет 統一編號 по названию. Этапы выполняются строго по порядку:
// полное название в официальном реестре, затем в зеркале; если ядро названия
// отличается от полного, после паузы то же самое для ядра.
// Первый этап, давший непустой 統一編號, завершает поиск.
func (r *Resolver) Resolve(ctx context.Context, rawName string) (Resolved, bool) {
	raw := normalization.TrimSpace(rawName)
	if raw == "" {
		return Resolved{}, false
	}

	if resolved, ok := r.runStages(ctx, []stage{
		{StageMOEARaw, r.official, raw},
		{StageG0VRaw, r.mirror, raw},
	}); ok {
		return resolved, true
	}

	core := normalization.CoreName(raw)
	if core == raw || core == "" {
		r.logger.Debug("name not resolved", "name", raw)
		return Resolved{}, false
	}

	if err := r.config.Delayer.Sleep(ctx, r.config.CoreRetryDelay); err != nil {
		return Resolved{}, false
	}

	resolved, ok := r.runStages(ctx, []stage{
		{StageMOEACore, r.official, core},
		{StageG0VCore, r.mirror, core},
	})
	if !ok {
		r.logger.Debug("name not resolved", "name", raw, "core", core)
	}
	return resolved, ok
}

func (r *Resolver) runStages(ctx context.Context, stages []stage) (Resolved, bool) {
	for _, s := range stages {
		if ctx.Err() != nil {
			return Resolved{}, false
		}
		if s.source == nil {
			continue
		}

		candidates, err := s.source.Search(ctx, s.query)
		if err != nil {
			r.logger.Warn("resolution stage failed",
				"stage", s.tag, "source", s.source.Name(), "query", s.query, "error", err)
			metrics.ResolutionStagesTotal.WithLabelValues(string(s.tag), "error").Inc()
			continue
		}
		if len(candidates) == 0 {
			metrics.ResolutionStagesTotal.WithLabelValues(string(s.tag), "empty").Inc()
			continue
		}

		id, ok := Rank(s.query, candidates)
		if !ok {
			metrics.ResolutionStagesTotal.WithLabelValues(string(s.tag), "unranked").Inc()
			continue
		}

		metrics.ResolutionStagesTotal.WithLabelValues(string(s.tag), "resolved").Inc()
		r.logger.Info("name resolved", "stage", s.tag, "query", s.query, "id", id)
		return Resolved{ID: id, Stage: s.tag, Query: s.query}, true
	}
	return Resolved{}, false
}
