package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Task is a submitted operation awaited in the background under a deadline.
// Callers may observe the deadline, poll Done, cancel, or block in Wait.
type Task struct {
	op       Operation
	timeout  time.Duration
	deadline time.Time
	expired  <-chan struct{}
	ctxErr   func() error
	cancel   context.CancelFunc

	done chan struct{}
	err  error
}

// Start submits req and begins waiting on the resulting operation. The wait ends
// when the operation completes, timeout elapses, or ctx is cancelled, whichever is first.
// A submission failure is returned directly and no task is created.
func Start(ctx context.Context, a Annotator, req Request, timeout time.Duration) (*Task, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ocr request: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	op, err := a.Submit(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submit ocr request: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	deadline, _ := waitCtx.Deadline()

	t := &Task{
		op:       op,
		timeout:  timeout,
		deadline: deadline,
		expired:  waitCtx.Done(),
		ctxErr:   waitCtx.Err,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go func() {
		defer close(t.done)
		t.err = t.classify(op.Wait(waitCtx))
	}()

	return t, nil
}

// Name is the provider-side operation name.
func (t *Task) Name() string {
	return t.op.Name()
}

// Deadline is the instant after which Wait reports ErrTimeout.
func (t *Task) Deadline() time.Time {
	return t.deadline
}

// Done is closed once the underlying operation has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops waiting. The provider-side job is not cancelled.
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the operation completes or the task's context ends.
// It returns nil on success, an error wrapping ErrTimeout when the deadline passed,
// or the cancellation/operation error otherwise.
func (t *Task) Wait() error {
	defer t.cancel()

	select {
	case <-t.done:
		return t.err
	case <-t.expired:
		// Prefer a result that raced in alongside the deadline.
		select {
		case <-t.done:
			return t.err
		default:
		}
		return t.classify(t.ctxErr())
	}
}

func (t *Task) classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(t.ctxErr(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: operation %s after %s", ErrTimeout, t.op.Name(), t.timeout)
	}
	return fmt.Errorf("operation %s: %w", t.op.Name(), err)
}
