package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_DisabledWhenMinNonPositive(t *testing.T) {
	p := NewPacer(0, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacer_FirstCallIsImmediate(t *testing.T) {
	p := NewPacer(200*time.Millisecond, 200*time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestPacer_SpacesConsecutiveCalls(t *testing.T) {
	const interval = 40 * time.Millisecond
	p := NewPacer(interval, interval)

	require.NoError(t, p.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), interval-5*time.Millisecond)
}

func TestPacer_SharedAcrossGoroutines(t *testing.T) {
	const interval = 30 * time.Millisecond
	p := NewPacer(interval, interval)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Wait(context.Background()))
		}()
	}
	wg.Wait()

	// Three acquisitions through one bucket: first immediate, the other two
	// spaced by the interval.
	assert.GreaterOrEqual(t, time.Since(start), 2*interval-10*time.Millisecond)
}

func TestPacer_WaitHonorsCancellation(t *testing.T) {
	p := NewPacer(10*time.Second, 10*time.Second)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.Wait(ctx)
	require.Error(t, err)
}
