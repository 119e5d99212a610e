package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestThrottleEnforcesMinDelay(t *testing.T) {
	throttle := NewThrottle(time.Millisecond * 50)
	ctx := context.Background()

	err := throttle.Wait(ctx)
	require.NoError(t, err)

	start := time.Now()
	err = throttle.Wait(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*50)
}

func TestThrottleZeroDelay(t *testing.T) {
	throttle := NewThrottle(0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, throttle.Wait(ctx))
	}
	require.Less(t, time.Since(start), time.Millisecond*100)
}

func TestThrottleCancelled(t *testing.T) {
	throttle := NewThrottle(time.Second * 10)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, throttle.Wait(ctx))

	cancel()
	err := throttle.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
