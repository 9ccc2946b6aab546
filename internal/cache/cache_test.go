package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/errors"
	sourcetest "github.com/rileyhilliard/pulse/internal/source/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRead_NotReady(t *testing.T) {
	c := New()

	_, err := c.Read()
	require.Error(t, err)
	assert.True(t, errors.IsNotReady(err))
	assert.False(t, c.Ready())
	assert.Zero(t, c.Age())
}

func TestUpdateAndRead(t *testing.T) {
	c := New()
	snap := sourcetest.Snapshot(base, 33)

	c.Update(snap)

	got, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, snap, got)
	assert.True(t, c.Ready())
	assert.Equal(t, uint64(1), c.Updates())
}

func TestReadReturnsCopy(t *testing.T) {
	c := New()
	snap := sourcetest.Snapshot(base, 33)
	c.Update(snap)

	// Neither the writer's value nor a reader's copy may alias the cache.
	snap.CPU.PerCore[0] = 99
	got, _ := c.Read()
	got.CPU.PerCore[1] = 77

	again, _ := c.Read()
	assert.Equal(t, []float64{33, 33}, again.CPU.PerCore)
}

func TestAge(t *testing.T) {
	now := base
	c := NewWithClock(func() time.Time { return now })

	c.Update(sourcetest.Snapshot(base, 1))
	now = now.Add(1500 * time.Millisecond)

	assert.Equal(t, 1500*time.Millisecond, c.Age())
}

func TestConcurrentReaders(t *testing.T) {
	c := New()
	c.Update(sourcetest.Snapshot(base, 0))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap, err := c.Read()
				if !assert.NoError(t, err) {
					return
				}
				// Every core was written with the same value as the aggregate.
				for _, v := range snap.CPU.PerCore {
					if !assert.Equal(t, snap.CPU.Usage, v) {
						return
					}
				}
			}
		}()
	}

	for i := 1; i <= 500; i++ {
		c.Update(sourcetest.Snapshot(base.Add(time.Duration(i)*time.Second), float64(i%100)))
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, uint64(501), c.Updates())
}
