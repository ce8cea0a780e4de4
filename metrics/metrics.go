// Package metrics содержит Prometheus-метрики сервиса поиска компаний.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequestsTotal количество запросов к реестрам по источнику, операции и результату
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of outbound registry requests",
		},
		[]string{"source", "operation", "outcome"},
	)

	// UpstreamRequestDuration длительность запросов к реестрам
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "twcompany",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of outbound registry requests in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source", "operation"},
	)

	// ResolutionStagesTotal попытки этапов поиска 統一編號 по названию
	ResolutionStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "resolution",
			Name:      "stages_total",
			Help:      "Total number of resolution stage attempts",
		},
		[]string{"stage", "outcome"},
	)

	// BatchRowsTotal строки пакетной обработки по итогу
	BatchRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "batch",
			Name:      "rows_total",
			Help:      "Total number of reconciled batch rows by outcome",
		},
		[]string{"outcome"},
	)

	// DetailCacheLookupsTotal попадания и промахи кэша карточек
	DetailCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "cache",
			Name:      "detail_lookups_total",
			Help:      "Total number of detail cache lookups",
		},
		[]string{"result"},
	)

	// HTTPRequestsTotal входящие HTTP-запросы
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration длительность обработки входящих запросов
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "twcompany",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// HTTPErrorsTotal ошибки, отданные клиентам, по типу и коду
	HTTPErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "twcompany",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Total number of error responses by type and status code",
		},
		[]string{"type", "status"},
	)
)
