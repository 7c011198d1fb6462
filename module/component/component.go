package component

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	"github.com/savings-vault/vault-cranker/module"
	"github.com/savings-vault/vault-cranker/module/irrecoverable"
	"github.com/savings-vault/vault-cranker/module/util"
)

// Component can be started once, and exposes channels that close when startup and shutdown
// have completed. After Start, Done closes eventually, either because the start context was
// cancelled or because an irrecoverable error was thrown.
type Component interface {
	module.Startable
	module.ReadyDoneAware
}

// ReadyFunc is called by a ComponentWorker once it is ready.
type ReadyFunc func()

// ComponentWorker is a long-running routine of a component. It returns once ctx is done,
// and reports fatal errors through ctx.Throw.
type ComponentWorker func(ctx irrecoverable.SignalerContext, ready ReadyFunc)

// ComponentManagerBuilder collects the workers of a ComponentManager.
// It is not safe for concurrent use.
type ComponentManagerBuilder struct {
	workers []ComponentWorker
}

func NewComponentManagerBuilder() *ComponentManagerBuilder {
	return &ComponentManagerBuilder{}
}

// AddWorker adds a worker. All workers run concurrently once the manager is started.
func (b *ComponentManagerBuilder) AddWorker(worker ComponentWorker) *ComponentManagerBuilder {
	b.workers = append(b.workers, worker)
	return b
}

func (b *ComponentManagerBuilder) Build() *ComponentManager {
	return &ComponentManager{
		started:        atomic.NewBool(false),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
		shutdownSignal: make(chan struct{}),
		workers:        b.workers,
	}
}

var _ Component = (*ComponentManager)(nil)

// ComponentManager runs the workers of a component and implements Component on their behalf.
// Ready closes once every worker called its ReadyFunc, Done once every worker returned.
// The first irrecoverable error thrown by a worker stops all workers and is rethrown to the
// context passed to Start.
type ComponentManager struct {
	started        *atomic.Bool
	ready          chan struct{}
	done           chan struct{}
	shutdownSignal chan struct{}

	workers []ComponentWorker
}

// Start launches all workers. It panics with module.ErrMultipleStartup when called twice.
func (c *ComponentManager) Start(parent irrecoverable.SignalerContext) {
	if !c.started.CAS(false, true) {
		panic(module.ErrMultipleStartup)
	}

	ctx, cancel := context.WithCancel(parent)
	workerCtx, errChan := irrecoverable.WithSignaler(ctx)

	go func() {
		<-ctx.Done()
		close(c.shutdownSignal)
	}()

	var ready, exited sync.WaitGroup
	ready.Add(len(c.workers))
	exited.Add(len(c.workers))
	for _, worker := range c.workers {
		go c.runWorker(workerCtx, worker, &ready, &exited)
	}

	workersDone := make(chan struct{})
	go func() {
		ready.Wait()
		close(c.ready)
	}()
	go func() {
		exited.Wait()
		close(workersDone)
	}()

	go func() {
		// Throw exits the goroutine, so Done is closed in a deferred call. The error reaches
		// the parent before Done closes.
		defer func() {
			<-workersDone
			cancel()
			close(c.done)
		}()

		if err := util.WaitError(errChan, workersDone); err != nil {
			cancel()
			parent.Throw(err)
		}
	}()
}

func (c *ComponentManager) runWorker(ctx irrecoverable.SignalerContext, worker ComponentWorker, ready, exited *sync.WaitGroup) {
	defer exited.Done()
	var once sync.Once
	worker(ctx, func() {
		once.Do(ready.Done)
	})
}

// Ready closes once all workers are ready. It never closes if a worker returns before calling its ReadyFunc.
func (c *ComponentManager) Ready() <-chan struct{} {
	return c.ready
}

// Done closes once all workers returned.
func (c *ComponentManager) Done() <-chan struct{} {
	return c.done
}

// ShutdownSignal closes once shutdown has begun, through cancellation of the start context
// or an irrecoverable error.
func (c *ComponentManager) ShutdownSignal() <-chan struct{} {
	return c.shutdownSignal
}
