package browser

import (
	"context"
	"errors"
	"time"
)

// ErrPollTimeout is returned when the condition was never satisfied within
// the poll window.
var ErrPollTimeout = errors.New("condition not met before timeout")

// Poll checks cond every interval until it reports true, returns an error,
// or timeout elapses. Every sleep-and-check site in the pipeline goes
// through here so the timeout and interval are always explicit.
func Poll(ctx context.Context, interval, timeout time.Duration, cond func() (bool, error)) error {
	deadline := time.Now().Add(timeout)

	for {
		done, err := cond()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrPollTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
