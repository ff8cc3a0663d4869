package strava

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"example.com/runlog/internal/domain"
	"example.com/runlog/internal/logging"
	"example.com/runlog/internal/observability"
)

const breakerName = "strava-api"

// Fetcher is the call surface shared by Client and BreakerClient.
type Fetcher interface {
	FetchActivities(ctx context.Context, token string, start, end time.Time) ([]domain.RawActivity, error)
}

// BreakerClient guards a Fetcher with a circuit breaker so repeated API failures fail fast.
type BreakerClient struct {
	next Fetcher
	cb   *gobreaker.CircuitBreaker[[]domain.RawActivity]
}

// NewBreakerClient wraps next. The breaker opens after five consecutive failures and
// probes again after timeout.
func NewBreakerClient(next Fetcher, timeout time.Duration) *BreakerClient {
	if timeout <= 0 {
		timeout = time.Minute
	}
	observability.SetBreakerState(breakerName, stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[[]domain.RawActivity](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			observability.SetBreakerState(name, stateValue(to))
		},
	})
	return &BreakerClient{next: next, cb: cb}
}

// FetchActivities delegates to the wrapped fetcher unless the breaker is open.
func (b *BreakerClient) FetchActivities(ctx context.Context, token string, start, end time.Time) ([]domain.RawActivity, error) {
	runs, err := b.cb.Execute(func() ([]domain.RawActivity, error) {
		return b.next.FetchActivities(ctx, token, start, end)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		logging.Ctx(ctx).Warn().Err(err).Msg("strava request rejected by circuit breaker")
		return nil, errors.Join(domain.ErrFetch, err)
	}
	return runs, err
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
