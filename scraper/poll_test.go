package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoll_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := poll(context.Background(), time.Second, func() (bool, error) {
		calls++
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPoll_EventualSuccess(t *testing.T) {
	calls := 0
	err := poll(context.Background(), 5*time.Second, func() (bool, error) {
		calls++
		return calls >= 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPoll_Expires(t *testing.T) {
	start := time.Now()
	err := poll(context.Background(), 300*time.Millisecond, func() (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, errPollExpired)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPoll_ConditionErrorStopsImmediately(t *testing.T) {
	boom := errors.New("target closed")
	calls := 0
	err := poll(context.Background(), 5*time.Second, func() (bool, error) {
		calls++
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestPoll_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := poll(ctx, 5*time.Second, func() (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoll_ZeroTimeoutChecksOnce(t *testing.T) {
	calls := 0
	err := poll(context.Background(), 0, func() (bool, error) {
		calls++
		return false, nil
	})
	assert.ErrorIs(t, err, errPollExpired)
	assert.Equal(t, 1, calls)
}
