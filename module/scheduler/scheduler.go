package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/savings-vault/vault-cranker/model/solana"
	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/component"
	"github.com/savings-vault/vault-cranker/module/crank"
	"github.com/savings-vault/vault-cranker/module/irrecoverable"
)

const (
	// DefaultInterval is the minimum time between two successful cranks of a pair.
	DefaultInterval = 30 * 24 * time.Hour
	// DefaultCheckInterval is how often a pair is checked for being due.
	DefaultCheckInterval = time.Hour
	// DefaultMissingVaultBackoff is the number of consecutive missing vault cycles after which a pair
	// is held back for one interval.
	DefaultMissingVaultBackoff = 3
)

// Executor cranks the savings vault of a single pair once.
type Executor interface {
	Execute(ctx context.Context, wallet, asset solana.Identity) error
}

// Pair identifies a savings vault to crank.
type Pair struct {
	Wallet solana.Identity
	Asset  solana.Identity
}

// ParsePair parses the "wallet/asset" text form of a pair, both given as base58 addresses.
func ParsePair(s string) (Pair, error) {
	wallet, asset, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Pair{}, fmt.Errorf("invalid pair %q: expected wallet/asset", s)
	}
	w, err := solana.IdentityFromBase58(wallet)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid wallet of pair %q: %w", s, err)
	}
	a, err := solana.IdentityFromBase58(asset)
	if err != nil {
		return Pair{}, fmt.Errorf("invalid asset of pair %q: %w", s, err)
	}
	return Pair{Wallet: w, Asset: a}, nil
}

func (p Pair) String() string {
	return fmt.Sprintf("%s/%s", p.Wallet, p.Asset)
}

func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Pair) UnmarshalText(text []byte) error {
	parsed, err := ParsePair(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// RetryConfig configures retries of failed attempts within a single cycle.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first failed attempt.
	MaxRetries uint64
	// InitialDelay is the delay before the first retry, doubled for every subsequent retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay between two retries.
	MaxDelay time.Duration
	// JitterPercent randomizes every delay by up to this percentage.
	JitterPercent uint64
}

type Config struct {
	Interval      time.Duration
	CheckInterval time.Duration
	// RunOnStart makes every pair due immediately after startup instead of one interval later.
	RunOnStart bool
	// MissingVaultBackoff is the number of consecutive cycles ending with a missing vault after
	// which the pair is held back for a full interval. 0 keeps attempting it at every check.
	MissingVaultBackoff uint64
	Retry               RetryConfig
}

func DefaultConfig() Config {
	return Config{
		Interval:            DefaultInterval,
		CheckInterval:       DefaultCheckInterval,
		RunOnStart:          false,
		MissingVaultBackoff: DefaultMissingVaultBackoff,
		Retry: RetryConfig{
			MaxRetries:    3,
			InitialDelay:  5 * time.Second,
			MaxDelay:      time.Minute,
			JitterPercent: 15,
		},
	}
}

// State is a snapshot of the schedule of a pair.
type State struct {
	Pair                Pair
	LastExecution       time.Time
	NextDue             time.Time
	LastAttempt         time.Time
	LastError           string
	ConsecutiveFailures uint64
	// ConsecutiveMissingVault counts the trailing failed cycles that found no vault.
	ConsecutiveMissingVault uint64
	// HeldUntil is set while the pair is held back after repeated missing vault cycles.
	HeldUntil time.Time
}

// Scheduler cranks a single pair whenever the configured interval elapsed since its last
// successful cycle. A failed cycle leaves the pair due, so it is attempted again at the next check.
// The schedule is kept in memory only. After a restart the interval is counted from startup.
type Scheduler struct {
	log      zerolog.Logger
	pair     Pair
	executor Executor
	metrics  module.CrankerMetrics
	clock    clock.Clock
	config   Config
	trigger  chan struct{}

	mu    sync.RWMutex
	state State
}

func NewScheduler(
	log zerolog.Logger,
	pair Pair,
	executor Executor,
	metrics module.CrankerMetrics,
	clock clock.Clock,
	config Config,
) *Scheduler {
	return &Scheduler{
		log: log.With().
			Str("component", "scheduler").
			Str("wallet", pair.Wallet.String()).
			Str("asset", pair.Asset.String()).
			Logger(),
		pair:     pair,
		executor: executor,
		metrics:  metrics,
		clock:    clock,
		config:   config,
		trigger:  make(chan struct{}, 1),
		state:    State{Pair: pair},
	}
}

// Pair returns the pair cranked by this scheduler.
func (s *Scheduler) Pair() Pair {
	return s.pair
}

// Trigger requests a cycle at the next opportunity, regardless of whether the pair is due.
// Concurrent triggers before the cycle starts are collapsed into one.
func (s *Scheduler) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// State returns a snapshot of the schedule.
func (s *Scheduler) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsDue returns whether a cycle is due at now: the interval elapsed since the last successful cycle,
// and the pair is not held back after repeated missing vault cycles.
func (s *Scheduler) IsDue(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if now.Before(s.state.HeldUntil) {
		return false
	}
	return now.Sub(s.state.LastExecution) >= s.config.Interval
}

// Run is the control loop of the scheduler. It returns once ctx is cancelled; errors of
// individual cycles are logged and never stop the loop.
func (s *Scheduler) Run(ctx irrecoverable.SignalerContext, ready component.ReadyFunc) {
	s.start()
	ticker := s.clock.Ticker(s.config.CheckInterval)
	defer ticker.Stop()
	ready()

	s.log.Info().
		Time("next_due", s.State().NextDue).
		Dur("check_interval", s.config.CheckInterval).
		Msg("scheduler started")

	forced := false
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if forced || s.IsDue(s.clock.Now()) {
			s.runCycle(ctx)
		}

		forced = false
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.trigger:
			forced = true
		}
	}
}

// start initializes the schedule baseline at loop entry.
func (s *Scheduler) start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.config.RunOnStart {
		s.state.LastExecution = s.clock.Now()
	}
	s.state.NextDue = s.state.LastExecution.Add(s.config.Interval)
}

// runCycle cranks the pair, retrying failed submissions with exponential backoff. A missing
// vault ends the cycle immediately, since retrying would not change the outcome.
func (s *Scheduler) runCycle(ctx context.Context) {
	start := s.clock.Now()
	log := s.log.With().Time("cycle_start", start).Logger()
	log.Info().Msg("crank cycle started")

	attempts := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			s.metrics.CrankRetried(s.pair.Wallet, s.pair.Asset)
		}

		err := s.executor.Execute(ctx, s.pair.Wallet, s.pair.Asset)
		if err == nil {
			return nil
		}
		if isRetryable(ctx, err) {
			log.Warn().Err(err).Int("attempt", attempts).Msg("crank attempt failed, retrying")
			return retry.RetryableError(err)
		}
		return err
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.LastAttempt = start
	if err != nil && ctx.Err() != nil {
		log.Info().Err(err).Msg("crank cycle aborted by shutdown")
		return
	}
	if err != nil {
		s.state.ConsecutiveFailures++
		s.state.LastError = err.Error()

		event := log.Error()
		if crank.IsVaultNotFoundError(err) {
			event = log.Warn()
			s.state.ConsecutiveMissingVault++
		} else {
			s.state.ConsecutiveMissingVault = 0
		}
		event.Err(err).
			Int("attempts", attempts).
			Uint64("consecutive_failures", s.state.ConsecutiveFailures).
			Msg("crank cycle failed, pair remains due")

		if threshold := s.config.MissingVaultBackoff; threshold > 0 && s.state.ConsecutiveMissingVault >= threshold {
			s.state.HeldUntil = start.Add(s.config.Interval)
			s.state.NextDue = s.state.HeldUntil
			log.Warn().
				Uint64("consecutive_missing_vault", s.state.ConsecutiveMissingVault).
				Time("held_until", s.state.HeldUntil).
				Msg("savings vault repeatedly missing, holding pair back for one interval")
		}
		return
	}

	// the interval is counted from the start of the last successful cycle
	s.state.LastExecution = start
	s.state.NextDue = start.Add(s.config.Interval)
	s.state.ConsecutiveFailures = 0
	s.state.ConsecutiveMissingVault = 0
	s.state.HeldUntil = time.Time{}
	s.state.LastError = ""
	s.metrics.LastSuccessfulCrank(s.pair.Wallet, s.pair.Asset, start)

	log.Info().
		Int("attempts", attempts).
		Time("next_due", s.state.NextDue).
		Msg("crank cycle completed")
}

func (s *Scheduler) backoff() retry.Backoff {
	config := s.config.Retry
	initial := config.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}

	backoff := retry.NewExponential(initial)
	if config.MaxDelay > 0 {
		backoff = retry.WithCappedDuration(config.MaxDelay, backoff)
	}
	if config.JitterPercent > 0 {
		backoff = retry.WithJitterPercent(config.JitterPercent, backoff)
	}
	return retry.WithMaxRetries(config.MaxRetries, backoff)
}

// isRetryable returns whether a failed attempt may succeed when repeated within the same cycle:
// failed submissions and calls that timed out while the scheduler is still running.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if crank.IsVaultNotFoundError(err) {
		return false
	}
	return crank.IsSubmissionFailedError(err) || errors.Is(err, context.DeadlineExceeded)
}
