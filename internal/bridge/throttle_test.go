package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleZeroIntervalNeverBlocks(t *testing.T) {
	th := newThrottle(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestThrottleSpacesConsecutiveSends(t *testing.T) {
	const interval = 20 * time.Millisecond
	th := newThrottle(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, th.Wait(context.Background()))
	}
	// first send is free, the next two wait one interval each
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
}

func TestThrottleHonorsCancellation(t *testing.T) {
	th := newThrottle(time.Minute)
	require.NoError(t, th.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := th.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
