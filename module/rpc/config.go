package rpc

import (
	"time"
)

const (
	// DefaultTimeout bounds every single request to an endpoint.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxFailedRequests is the number of endpoint failures after which a call gives up
	// without trying the remaining endpoints.
	DefaultMaxFailedRequests = 3
)

// Config is the configuration of the ledger RPC client.
type Config struct {
	// Endpoints are the JSON-RPC URLs, in order of preference.
	Endpoints []string
	// Timeout is the maximum duration of a single request to one endpoint.
	Timeout time.Duration
	// RateLimit is the maximum number of requests per second across all endpoints. Zero disables rate limiting.
	RateLimit float64
	// RateBurst is the number of requests allowed to exceed RateLimit momentarily.
	RateBurst int
	// MaxFailedRequests is the number of failed endpoints after which a call returns the accumulated errors.
	MaxFailedRequests int
	// CircuitBreaker configures the per-endpoint circuit breakers.
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig is a configuration struct for the circuit breaker guarding each endpoint.
type CircuitBreakerConfig struct {
	// Enabled specifies whether the circuit breaker is enabled.
	Enabled bool
	// RestoreTimeout specifies the duration after which the circuit breaker will restore the connection to the
	// endpoint after closing it due to failures.
	RestoreTimeout time.Duration
	// MaxFailures specifies the maximum number of consecutive failed requests before the circuit breaker opens.
	MaxFailures uint32
	// MaxRequests specifies the maximum number of trial requests allowed while the breaker is half-open.
	MaxRequests uint32
}

// DefaultConfig returns the client configuration used unless overridden.
func DefaultConfig() Config {
	return Config{
		Endpoints:         []string{"https://api.devnet.solana.com"},
		Timeout:           DefaultTimeout,
		RateLimit:         0,
		RateBurst:         1,
		MaxFailedRequests: DefaultMaxFailedRequests,
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        true,
			RestoreTimeout: 60 * time.Second,
			MaxFailures:    5,
			MaxRequests:    1,
		},
	}
}
