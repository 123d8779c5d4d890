package annotation

import (
	"context"
	"sync"
)

// Completion tracks one attempt to commit a drawn object. It settles exactly
// once: committed with a label, not committed (degenerate or too few points),
// or failed with an error such as ErrNoLabel.
type Completion struct {
	once      sync.Once
	done      chan struct{}
	committed bool
	err       error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// settledCompletion returns an already-settled completion.
func settledCompletion(committed bool, err error) *Completion {
	c := newCompletion()
	c.settle(committed, err)
	return c
}

func (c *Completion) settle(committed bool, err error) {
	c.once.Do(func() {
		c.committed = committed
		c.err = err
		close(c.done)
	})
}

// Done is closed once the completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the outcome is known.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Committed reports whether the object reached done. False until settled.
func (c *Completion) Committed() bool {
	if !c.Settled() {
		return false
	}
	return c.committed
}

// Err returns the failure, if any. Nil until settled.
func (c *Completion) Err() error {
	if !c.Settled() {
		return nil
	}
	return c.err
}

// Wait blocks until the completion settles or ctx is done.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
