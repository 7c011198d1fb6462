package scheduler

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/component"
)

// ErrNoPairs is returned when a runner is created without any pair to crank.
var ErrNoPairs = errors.New("no pairs to crank")

// Runner runs one independent scheduler per pair. A failing pair never affects the schedule
// of the other pairs.
type Runner struct {
	*component.ComponentManager

	schedulers []*Scheduler
	byPair     map[Pair]*Scheduler
}

var _ component.Component = (*Runner)(nil)

func NewRunner(
	log zerolog.Logger,
	pairs []Pair,
	executor Executor,
	metrics module.CrankerMetrics,
	clock clock.Clock,
	config Config,
) (*Runner, error) {
	if len(pairs) == 0 {
		return nil, ErrNoPairs
	}

	r := &Runner{
		byPair: make(map[Pair]*Scheduler, len(pairs)),
	}
	builder := component.NewComponentManagerBuilder()
	for _, pair := range pairs {
		if _, ok := r.byPair[pair]; ok {
			return nil, fmt.Errorf("duplicate pair %s", pair)
		}
		s := NewScheduler(log, pair, executor, metrics, clock, config)
		r.schedulers = append(r.schedulers, s)
		r.byPair[pair] = s
		builder.AddWorker(s.Run)
	}
	r.ComponentManager = builder.Build()

	return r, nil
}

// Schedulers returns the schedulers in the order the pairs were configured.
func (r *Runner) Schedulers() []*Scheduler {
	return r.schedulers
}

// Scheduler returns the scheduler of pair.
func (r *Runner) Scheduler(pair Pair) (*Scheduler, bool) {
	s, ok := r.byPair[pair]
	return s, ok
}

// States returns a snapshot of the schedule of every pair.
func (r *Runner) States() []State {
	states := make([]State, 0, len(r.schedulers))
	for _, s := range r.schedulers {
		states = append(states, s.State())
	}
	return states
}

// Trigger requests an immediate cycle for pair. It returns false if the pair is not cranked by this runner.
func (r *Runner) Trigger(pair Pair) bool {
	s, ok := r.byPair[pair]
	if !ok {
		return false
	}
	s.Trigger()
	return true
}

// TriggerAll requests an immediate cycle for every pair.
func (r *Runner) TriggerAll() {
	for _, s := range r.schedulers {
		s.Trigger()
	}
}
