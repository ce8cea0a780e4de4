package resolution

import (
	"context"
	"math/rand"
	"time"
)

// Delayer пауза между запросами к реестрам
type Delayer interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerDelayer ждет указанное время или отмену контекста
type TimerDelayer struct{}

// Sleep реализует Delayer
func (TimerDelayer) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jitter возвращает случайную длительность в диапазоне [min, max]
func Jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}
