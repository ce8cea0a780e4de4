package enrichment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"twcompany/metrics"
)

// maxResponseSize ограничение размера ответа реестра
const maxResponseSize = 10 << 20

// upstream общий HTTP-слой обращения к реестру: лимит запросов,
// circuit breaker, таймаут операции, метрики и логирование
type upstream struct {
	config     *SourceConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *CircuitBreaker
	logger     *slog.Logger
}

func newUpstream(config *SourceConfig) *upstream {
	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &upstream{
		config:     config,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    NewCircuitBreaker(),
		logger:     slog.Default().With("component", "registry", "source", config.Name),
	}
}

// Name возвращает название источника
func (u *upstream) Name() string {
	return u.config.Name
}

// IsAvailable проверяет, включен ли источник
func (u *upstream) IsAvailable() bool {
	return u.config.Enabled
}

// BreakerState возвращает состояние circuit breaker источника
func (u *upstream) BreakerState() map[string]interface{} {
	return u.breaker.StateDetails()
}

// get выполняет GET-запрос и возвращает тело ответа.
// Пустое тело возвращается как ошибка категории empty.
func (u *upstream) get(ctx context.Context, op, rawURL string, timeout time.Duration) (body []byte, err error) {
	source := u.config.Name
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = string(KindTransport)
			if fe, ok := err.(*FetchError); ok {
				outcome = string(fe.Kind)
			}
		}
		metrics.UpstreamRequestsTotal.WithLabelValues(source, op, outcome).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues(source, op).Observe(time.Since(start).Seconds())
	}()

	if !u.breaker.CanProceed() {
		return nil, newFetchError(source, op, KindCircuitOpen, nil)
	}

	if err := u.limiter.Wait(ctx); err != nil {
		return nil, newFetchError(source, op, KindRateLimited, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, newFetchError(source, op, KindTransport, fmt.Errorf("failed to create request: %w", err))
	}
	userAgent := u.config.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.breaker.RecordFailure()
		u.logger.Warn("registry request failed", "op", op, "error", err)
		return nil, newFetchError(source, op, KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		u.breaker.RecordFailure()
	}
	if resp.StatusCode != http.StatusOK {
		u.logger.Warn("registry returned unexpected status", "op", op, "status", resp.StatusCode)
		fe := newFetchError(source, op, KindStatus, nil)
		fe.StatusCode = resp.StatusCode
		return nil, fe
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		u.breaker.RecordFailure()
		return nil, newFetchError(source, op, KindTransport, fmt.Errorf("failed to read response: %w", err))
	}
	u.breaker.RecordSuccess()

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, newFetchError(source, op, KindEmpty, nil)
	}

	u.logger.Debug("registry request completed", "op", op, "duration", time.Since(start))
	return body, nil
}

// decode декодирует тело ответа, оборачивая ошибку в FetchError
func (u *upstream) decode(op string, body []byte, out interface{}) error {
	if err := decodeJSON(body, out); err != nil {
		u.logger.Warn("failed to decode registry response", "op", op, "error", err)
		return newFetchError(u.config.Name, op, KindDecode, err)
	}
	return nil
}
