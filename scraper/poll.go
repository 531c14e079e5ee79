package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// errPollExpired is returned by poll when the condition never held within
// the timeout.
var errPollExpired = errors.New("condition not met before deadline")

var errNotYet = errors.New("not yet")

const (
	pollInitialInterval = 100 * time.Millisecond
	pollMaxInterval     = time.Second
)

// poll evaluates cond with exponential backoff until it returns true, it
// returns an error, ctx is done, or timeout elapses (errPollExpired).
// A non-positive timeout checks cond exactly once.
func poll(ctx context.Context, timeout time.Duration, cond func() (bool, error)) error {
	if timeout <= 0 {
		ok, err := cond()
		if err != nil {
			return err
		}
		if !ok {
			return errPollExpired
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = pollInitialInterval
	b.MaxInterval = pollMaxInterval
	b.Multiplier = 1.5
	b.RandomizationFactor = 0.2
	b.MaxElapsedTime = timeout

	err := backoff.Retry(func() error {
		ok, err := cond()
		if err != nil {
			return backoff.Permanent(err)
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, backoff.WithContext(b, ctx))

	if errors.Is(err, errNotYet) {
		return errPollExpired
	}
	return err
}
