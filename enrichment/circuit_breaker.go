package enrichment

import (
	"sync"
	"time"
)

// CircuitState состояние Circuit Breaker
type CircuitState int

const (
	StateClosed   CircuitState = iota // Нормальная работа
	StateOpen                         // Запросы к реестру блокируются
	StateHalfOpen                     // Пробный запрос после паузы
)

// String возвращает имя состояния для логов
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker защита реестра от повторных запросов во время сбоя
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
	timeout          time.Duration
	lastFailureTime  time.Time
	now              func() time.Time
}

// NewCircuitBreaker создает breaker: открывается после 5 ошибок подряд,
// закрывается после 2 успехов в half-open, пауза 30 секунд
func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: 5,
		successThreshold: 2,
		timeout:          30 * time.Second,
		now:              time.Now,
	}
}

// CanProceed проверяет, можно ли выполнить запрос
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) > cb.timeout {
			cb.state = StateHalfOpen
			cb.successCount = 0
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess записывает успешный запрос
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0
	case StateHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.successThreshold {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
		}
	}
}

// RecordFailure записывает неудачный запрос
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
	case StateHalfOpen:
		cb.state = StateOpen
		cb.failureCount = cb.failureThreshold
		cb.successCount = 0
	}
}

// State возвращает текущее состояние
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// StateDetails возвращает состояние для мониторинга
func (cb *CircuitBreaker) StateDetails() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	canProceed := cb.state != StateOpen || cb.now().Sub(cb.lastFailureTime) > cb.timeout

	result := map[string]interface{}{
		"state":         cb.state.String(),
		"can_proceed":   canProceed,
		"failure_count": cb.failureCount,
		"success_count": cb.successCount,
	}
	if !cb.lastFailureTime.IsZero() {
		result["last_failure_time"] = cb.lastFailureTime.Format(time.RFC3339)
	}
	return result
}
