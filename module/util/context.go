package util

import (
	"context"
	"errors"
	"os"
)

// ErrSignalReceived is returned from Err() of a context returned from WithSignal once a signal was received.
var ErrSignalReceived = errors.New("signal received")

// WithSignal wraps a signal channel with a context, and cancels the context when a signal is received.
// When the context is Done, ctx.Err() is either ErrSignalReceived if the signal arrived first,
// or the error of the parent context.
func WithSignal(parent context.Context, sigChan <-chan os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := &signalCtx{Context: ctx, done: make(chan struct{})}
	go func() {
		defer close(c.done)
		select {
		case <-sigChan:
			c.received = true
			cancel()
		case <-ctx.Done():
		}
	}()
	return c, cancel
}

type signalCtx struct {
	context.Context
	done     chan struct{}
	received bool
}

func (c *signalCtx) Err() error {
	err := c.Context.Err()
	if err == nil {
		return nil
	}
	// the watcher has returned by the time the context is cancelled through it
	<-c.done
	if c.received {
		return ErrSignalReceived
	}
	return err
}
