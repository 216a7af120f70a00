// Package resilience защищает вызовы внешних зависимостей (Redis, Kafka)
// circuit breaker'ом и повторными попытками.
package resilience

import (
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/vladislavdragonenkov/qms/internal/domain"
)

// ErrCircuitOpen возвращается, пока breaker разомкнут или занят пробным вызовом.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState: состояние breaker'а.
type CircuitState = gobreaker.State

const (
	CircuitClosed   = gobreaker.StateClosed
	CircuitHalfOpen = gobreaker.StateHalfOpen
	CircuitOpen     = gobreaker.StateOpen
)

// CircuitBreaker размыкается после maxFailures ошибок подряд и через resetTimeout
// пропускает один пробный вызов. Промах кеша отказом не считается.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker[struct{}]
}

// NewCircuitBreaker создаёт breaker с именем name (попадает в логи смены состояния).
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration, logger *log.Entry) *CircuitBreaker {
	if logger == nil {
		logger = log.New().WithField("component", "circuit-breaker")
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}
	threshold := uint32(maxFailures)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry := logger.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()})
			if to == gobreaker.StateOpen {
				entry.Warn("circuit breaker opened")
				return
			}
			entry.Info("circuit breaker state changed")
		},
	}

	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker[struct{}](settings)}
}

// State возвращает текущее состояние.
func (b *CircuitBreaker) State() CircuitState {
	return b.cb.State()
}

// Execute выполняет fn через breaker. Отброшенный вызов возвращает KindUnavailable с ErrCircuitOpen.
func (b *CircuitBreaker) Execute(operation string, fn func() error) error {
	_, err := b.cb.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return domain.UnavailableError(operation, fmt.Errorf("%w: %w", ErrCircuitOpen, err))
	}
	return err
}
