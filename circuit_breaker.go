package respd

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/pior/respd/resp"
)

// CircuitBreaker guards one server pool. Requests flow through Execute;
// once failures trip the breaker, calls fail fast until the timeout
// elapses and a probe succeeds.
type CircuitBreaker interface {
	Execute(fn func() (resp.Value, error)) (resp.Value, error)
	State() gobreaker.State
}

// NewCircuitBreakerFactory returns a factory creating one breaker per
// server address, suitable for Config.NewCircuitBreaker. The breaker
// trips when at least 3 requests in the interval failed at a 60% ratio.
func NewCircuitBreakerFactory(maxRequests uint32, interval, timeout time.Duration) func(serverAddr string) CircuitBreaker {
	return func(serverAddr string) CircuitBreaker {
		return gobreaker.NewCircuitBreaker[resp.Value](gobreaker.Settings{
			Name:        serverAddr,
			MaxRequests: maxRequests,
			Interval:    interval,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 3 && failureRatio >= 0.6
			},
		})
	}
}
