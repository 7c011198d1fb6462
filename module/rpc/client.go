package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
)

// maxResponseSize caps the response body read from an endpoint.
const maxResponseSize = 10 << 20

var _ module.LedgerClient = (*Client)(nil)

// endpoint is a single JSON-RPC URL, optionally guarded by a circuit breaker.
type endpoint struct {
	url     string
	breaker *gobreaker.CircuitBreaker
}

// Client is a JSON-RPC client for the ledger API. Calls start at the endpoint that answered the
// previous call, initially the first configured one; an endpoint that fails at the transport level
// is skipped and the next one is tried, wrapping around the configured order. Errors returned by an
// endpoint for a processed request are returned as is.
type Client struct {
	log       zerolog.Logger
	metrics   module.RPCMetrics
	http      *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	maxFailed int
	endpoints []*endpoint
	// index of the endpoint that answered the last call
	current *atomic.Int64
}

// NewClient creates a client for the configured endpoints.
func NewClient(log zerolog.Logger, metrics module.RPCMetrics, config Config) (*Client, error) {
	if len(config.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxFailed := config.MaxFailedRequests
	if maxFailed <= 0 {
		maxFailed = DefaultMaxFailedRequests
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), burst)
	}

	c := &Client{
		log:       log.With().Str("component", "rpc_client").Logger(),
		metrics:   metrics,
		http:      &http.Client{},
		limiter:   limiter,
		timeout:   timeout,
		maxFailed: maxFailed,
		current:   atomic.NewInt64(0),
	}

	for _, url := range config.Endpoints {
		e := &endpoint{url: url}
		if config.CircuitBreaker.Enabled {
			e.breaker = c.newBreaker(url, config.CircuitBreaker)
		}
		c.endpoints = append(c.endpoints, e)
	}

	return c, nil
}

func (c *Client) newBreaker(url string, config CircuitBreakerConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        url,
		Timeout:     config.RestoreTimeout,
		MaxRequests: config.MaxRequests,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			c.log.Warn().
				Str("endpoint", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("endpoint circuit breaker changed state")
		},
	})
}

// Endpoint returns the URL of the endpoint that answered the last call. The next call is sent
// there first, so a follow-up request is served by the same cluster unless that endpoint fails.
func (c *Client) Endpoint() string {
	return c.endpoints[c.current.Load()].url
}

// use makes the endpoint at index i the first one tried by subsequent calls.
func (c *Client) use(i int) {
	previous := c.current.Swap(int64(i))
	if previous != int64(i) {
		c.log.Info().
			Str("from", c.endpoints[previous].url).
			Str("to", c.endpoints[i].url).
			Msg("switched rpc endpoint")
	}
}

// GetGenesisHash returns the genesis hash of the cluster.
func (c *Client) GetGenesisHash(ctx context.Context) (solana.Hash, error) {
	var hash solana.Hash
	err := c.call(ctx, methodGetGenesisHash, nil, &hash)
	if err != nil {
		return solana.Hash{}, err
	}
	return hash, nil
}

// AccountExists returns true if the account exists at the given commitment. Only the account
// metadata is requested, the account data is sliced away.
func (c *Client) AccountExists(ctx context.Context, account solana.Identity, commitment solana.Commitment) (bool, error) {
	params := []interface{}{
		account.String(),
		accountInfoConfig{
			Encoding:   encodingBase64,
			Commitment: commitment,
			DataSlice:  &dataSlice{Offset: 0, Length: 0},
		},
	}

	var result accountInfoResult
	err := c.call(ctx, methodGetAccountInfo, params, &result)
	if err != nil {
		return false, err
	}
	value := bytes.TrimSpace(result.Value)
	return len(value) > 0 && !bytes.Equal(value, []byte("null")), nil
}

// GetLatestBlockhash returns the most recent blockhash at the given commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context, commitment solana.Commitment) (solana.Hash, error) {
	params := []interface{}{commitmentConfig{Commitment: commitment}}

	var result latestBlockhashResult
	err := c.call(ctx, methodGetLatestBlockhash, params, &result)
	if err != nil {
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits the signed transaction and returns the signature reported by the endpoint.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction, opts solana.SendOptions) (solana.Signature, error) {
	encoded, err := tx.Base64()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("could not encode transaction: %w", err)
	}
	params := []interface{}{
		encoded,
		sendTransactionConfig{
			Encoding:            encodingBase64,
			SkipPreflight:       opts.SkipPreflight,
			PreflightCommitment: opts.PreflightCommitment,
			MaxRetries:          opts.MaxRetries,
		},
	}

	var result string
	err = c.call(ctx, methodSendTransaction, params, &result)
	if err != nil {
		return solana.Signature{}, err
	}
	sig, err := solana.SignatureFromBase58(result)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("invalid signature in response: %w", err)
	}
	return sig, nil
}

// GetSignatureStatus returns the status of a transaction, or nil if the signature is unknown.
func (c *Client) GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solana.SignatureStatus, error) {
	params := []interface{}{
		[]string{sig.String()},
		signatureStatusConfig{SearchTransactionHistory: false},
	}

	var result signatureStatusesResult
	err := c.call(ctx, methodGetSignatureStatuses, params, &result)
	if err != nil {
		return nil, err
	}
	if len(result.Value) != 1 {
		return nil, fmt.Errorf("expected 1 signature status, got %d", len(result.Value))
	}
	return result.Value[0], nil
}

// call executes a JSON-RPC request against the available endpoints and decodes the result into out.
// It iterates through the endpoints starting at the current one. Endpoints whose circuit breaker is open are skipped. If an
// endpoint fails at the transport level, the error is recorded and the next endpoint is tried. If the
// maximum failed request count is reached, the accumulated errors are returned.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limited request %s not sent: %w", method, err)
	}

	body, err := json.Marshal(request{
		JSONRPC: jsonRPCVersion,
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("could not encode %s request: %w", method, err)
	}

	var errs *multierror.Error
	first := int(c.current.Load())
	for n := 0; n < len(c.endpoints); n++ {
		i := (first + n) % len(c.endpoints)
		e := c.endpoints[i]

		start := time.Now()
		result, err := c.execute(ctx, e, method, body)
		if err == nil {
			c.metrics.RPCRequestCompleted(e.url, method, statusOK, time.Since(start))
			c.use(i)
			if err := json.Unmarshal(result, out); err != nil {
				return fmt.Errorf("could not decode %s result: %w", method, err)
			}
			return nil
		}

		if IsRPCError(err) {
			c.metrics.RPCRequestCompleted(e.url, method, statusRPCError, time.Since(start))
			c.use(i)
			return err
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.RPCRequestCompleted(e.url, method, statusCircuitOpen, time.Since(start))
			continue
		}

		c.metrics.RPCRequestCompleted(e.url, method, statusTransportError, time.Since(start))
		c.log.Debug().Err(err).Str("endpoint", e.url).Str("method", method).Msg("rpc request failed")

		// the caller gave up, other endpoints would fail the same way
		if ctx.Err() != nil {
			return fmt.Errorf("rpc request %s aborted: %w", method, err)
		}

		errs = multierror.Append(errs, err)
		if len(errs.Errors) >= c.maxFailed {
			return errs.ErrorOrNil()
		}
	}

	if errs == nil {
		return fmt.Errorf("no endpoint available for %s: %w", method, gobreaker.ErrOpenState)
	}
	return errs.ErrorOrNil()
}

// execute sends the request to a single endpoint through its circuit breaker. Errors reported
// by the endpoint in the response body do not count as failures of the endpoint.
func (c *Client) execute(ctx context.Context, e *endpoint, method string, body []byte) (json.RawMessage, error) {
	if e.breaker == nil {
		return c.post(ctx, e.url, method, body)
	}

	var rpcErr *Error
	result, err := e.breaker.Execute(func() (interface{}, error) {
		result, err := c.post(ctx, e.url, method, body)
		if errors.As(err, &rpcErr) {
			return nil, nil
		}
		return result, err
	})
	if err != nil {
		return nil, err
	}
	if rpcErr != nil {
		return nil, rpcErr
	}
	return result.(json.RawMessage), nil
}

func (c *Client) post(ctx context.Context, url string, method string, body []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request for %s: %w", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s to %s failed: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, StatusError{Endpoint: url, StatusCode: resp.StatusCode}
	}

	var res response
	err = json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&res)
	if err != nil {
		return nil, fmt.Errorf("could not decode response of %s from %s: %w", method, url, err)
	}
	if res.Error != nil {
		res.Error.Method = method
		return nil, res.Error
	}
	return res.Result, nil
}
