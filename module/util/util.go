package util

import (
	"context"
	"sync"

	"github.com/savings-vault/vault-cranker/module"
)

// AllReady returns a channel that closes once every component is ready.
func AllReady(components ...module.ReadyDoneAware) <-chan struct{} {
	return allOf(components, module.ReadyDoneAware.Ready)
}

// AllDone returns a channel that closes once every component is done.
func AllDone(components ...module.ReadyDoneAware) <-chan struct{} {
	return allOf(components, module.ReadyDoneAware.Done)
}

func allOf(components []module.ReadyDoneAware, signal func(module.ReadyDoneAware) <-chan struct{}) <-chan struct{} {
	channels := make([]<-chan struct{}, 0, len(components))
	for _, c := range components {
		channels = append(channels, signal(c))
	}
	return AllClosed(channels...)
}

// AllClosed returns a channel that closes once every input channel is closed.
func AllClosed(channels ...<-chan struct{}) <-chan struct{} {
	closed := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(len(channels))
	for _, ch := range channels {
		go func(ch <-chan struct{}) {
			defer wg.Done()
			<-ch
		}(ch)
	}
	go func() {
		wg.Wait()
		close(closed)
	}()
	return closed
}

// WaitClosed blocks until ch is closed or ctx is done, and returns ctx.Err() in the latter case.
// A channel closed at the same time as ctx is done counts as closed.
func WaitClosed(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		if CheckClosed(ch) {
			return nil
		}
		return ctx.Err()
	}
}

// CheckClosed returns whether done is closed, without blocking.
func CheckClosed(done <-chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

// WaitError blocks until an error arrives on errChan or done is closed. An irrecoverable error
// closes done as a side effect, so errChan is checked once more before returning nil.
func WaitError(errChan <-chan error, done <-chan struct{}) error {
	select {
	case err := <-errChan:
		return err
	case <-done:
	}
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}
