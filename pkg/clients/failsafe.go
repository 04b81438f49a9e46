package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/carlosbarrancotena/practica5/pkg/logging"
)

// DefaultShouldRetry determines if an HTTP request should be retried.
// Retries on network errors, server errors (5xx), and rate limits (429).
func DefaultShouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return true
	}
	switch resp.StatusCode {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}

// HTTPExecutorConfig configures the HTTP executor. The zero value builds no
// policies at all: one attempt, no breaker.
type HTTPExecutorConfig struct {
	// Retry settings; MaxRetries 0 disables the retry policy
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// CircuitBreaker enables a breaker that opens after FailureThreshold
	// failures out of FailureWindow executions.
	CircuitBreaker   bool
	FailureThreshold uint
	FailureWindow    uint
	BreakerDelay     time.Duration

	// Name labels breaker state changes in logs
	Name   string
	Logger logging.Logger

	// ShouldRetry determines if a response should trigger a retry
	ShouldRetry func(resp *http.Response, err error) bool
}

func normalizeHTTPExecutorConfig(cfg HTTPExecutorConfig) HTTPExecutorConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = DefaultShouldRetry
	}
	if cfg.FailureWindow == 0 {
		cfg.FailureWindow = 10
	}
	if cfg.FailureThreshold == 0 || cfg.FailureThreshold > cfg.FailureWindow {
		cfg.FailureThreshold = cfg.FailureWindow / 2
		if cfg.FailureThreshold == 0 {
			cfg.FailureThreshold = 1
		}
	}
	if cfg.BreakerDelay <= 0 {
		cfg.BreakerDelay = 15 * time.Second
	}
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	return cfg
}

// NewHTTPRetryPolicy creates a retry policy for HTTP requests
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func NewHTTPRetryPolicy(cfg HTTPExecutorConfig) retrypolicy.RetryPolicy[*http.Response] {
	cfg = normalizeHTTPExecutorConfig(cfg)
	return retrypolicy.NewBuilder[*http.Response]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(func(resp *http.Response, err error) bool {
			return cfg.ShouldRetry(resp, err)
		}).
		Build()
}

// NewHTTPCircuitBreaker creates a breaker counting transport errors and 5xx
// responses as failures.
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func NewHTTPCircuitBreaker(cfg HTTPExecutorConfig) circuitbreaker.CircuitBreaker[*http.Response] {
	cfg = normalizeHTTPExecutorConfig(cfg)
	builder := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(cfg.FailureThreshold, cfg.FailureWindow).
		WithDelay(cfg.BreakerDelay).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		})

	if cfg.Logger != nil {
		name := cfg.Name
		logger := cfg.Logger
		builder = builder.OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			logger.WithFields(logging.Fields{
				"circuit_breaker": name,
				"from_state":      stateName(event.OldState),
				"to_state":        stateName(event.NewState),
			}).Warn("circuit breaker state change")
		})
	}

	return builder.Build()
}

func stateName(state circuitbreaker.State) string {
	switch state {
	case circuitbreaker.ClosedState:
		return "closed"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	case circuitbreaker.OpenState:
		return "open"
	default:
		return "unknown"
	}
}

// NewHTTPExecutor creates a failsafe executor from cfg. It returns nil when
// cfg enables neither retries nor a breaker; callers then issue the request
// directly.
//
//nolint:bodyclose // false positive: [*http.Response] is a generic type parameter, not an actual response
func NewHTTPExecutor(cfg HTTPExecutorConfig) failsafe.Executor[*http.Response] {
	cfg = normalizeHTTPExecutorConfig(cfg)

	switch {
	case cfg.MaxRetries > 0 && cfg.CircuitBreaker:
		return failsafe.With(NewHTTPRetryPolicy(cfg), NewHTTPCircuitBreaker(cfg))
	case cfg.MaxRetries > 0:
		return failsafe.With(NewHTTPRetryPolicy(cfg))
	case cfg.CircuitBreaker:
		return failsafe.With(NewHTTPCircuitBreaker(cfg))
	default:
		return nil
	}
}

// ExecuteHTTP runs an HTTP request through the executor
func ExecuteHTTP(ctx context.Context, executor failsafe.Executor[*http.Response], fn func() (*http.Response, error)) (*http.Response, error) {
	return executor.WithContext(ctx).Get(fn)
}
