package store

import "context"

// Completion tracks the outcome of a save. Callers whose saves were coalesced
// into the same physical write share one Completion.
type Completion struct {
	done chan struct{}
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

func resolved(err error) *Completion {
	c := newCompletion()
	c.resolve(err)
	return c
}

// resolve records the outcome and releases waiters. Called exactly once.
func (c *Completion) resolve(err error) {
	c.err = err
	close(c.done)
}

// Done is closed once the physical write carrying this save has finished.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the write outcome, or nil while the write is still pending.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the write finishes or ctx is done. Cancelling ctx stops
// the wait only; the write still happens.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
