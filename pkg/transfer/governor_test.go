package transfer

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernorEnforcesClassLimit(t *testing.T) {
	g := NewGovernor(GovernorLimits{Download: 2})
	ctx := context.Background()

	rel1, err := g.Acquire(ctx, ClassDownload)
	require.NoError(t, err)
	rel2, err := g.Acquire(ctx, ClassDownload)
	require.NoError(t, err)

	// Third acquire must block; give it a cancelled context.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = g.Acquire(blocked, ClassDownload)
	assert.Error(t, err)

	rel1()
	rel3, err := g.Acquire(ctx, ClassDownload)
	require.NoError(t, err)

	rel2()
	rel3()
	assert.Equal(t, 0, g.InFlight(ClassDownload))
}

func TestGovernorReleaseIsIdempotent(t *testing.T) {
	g := NewGovernor(GovernorLimits{Upload: 1})

	release, err := g.Acquire(context.Background(), ClassUpload)
	require.NoError(t, err)

	release()
	release() // second call must not free a slot twice

	assert.Equal(t, 0, g.InFlight(ClassUpload))
}

func TestGovernorIndependentClasses(t *testing.T) {
	g := NewGovernor(GovernorLimits{Upload: 1, Delete: 1})
	ctx := context.Background()

	relUp, err := g.Acquire(ctx, ClassUpload)
	require.NoError(t, err)

	// The upload slot being held must not block a delete.
	relDel, err := g.Acquire(ctx, ClassDelete)
	require.NoError(t, err)

	relUp()
	relDel()
}

func TestGovernorBoundsConcurrency(t *testing.T) {
	const limit = 3
	g := NewGovernor(GovernorLimits{Head: limit})

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(context.Background(), ClassHead)
			if err != nil {
				return
			}
			defer release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(limit))
}

func TestGovernorDefaults(t *testing.T) {
	g := NewGovernor(GovernorLimits{})

	base := defaultSlots()
	assert.Equal(t, base, g.Limit(ClassUpload))
	assert.Equal(t, base, g.Limit(ClassDownload))
	assert.Equal(t, base*2, g.Limit(ClassHead))
	assert.GreaterOrEqual(t, g.Limit(ClassQuery), 2)
}
