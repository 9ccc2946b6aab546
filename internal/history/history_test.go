package history

import (
	"sync"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/metrics"
	sourcetest "github.com/rileyhilliard/pulse/internal/source/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sample(sec int, cpu float64) metrics.Snapshot {
	return sourcetest.Snapshot(base.Add(time.Duration(sec)*time.Second), cpu)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"default size", 0, DefaultSize},
		{"negative size", -1, DefaultSize},
		{"custom size", 100, 100},
		{"small size", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.size)
			assert.Equal(t, tt.expected, h.Size())
			assert.Zero(t, h.Count())
		})
	}
}

func TestSizeFor(t *testing.T) {
	assert.Equal(t, 300, SizeFor(10*time.Minute, 2*time.Second))
	assert.Equal(t, 2, SizeFor(time.Second, 2*time.Second))
	assert.Equal(t, DefaultSize, SizeFor(0, time.Second))
	assert.Equal(t, MaxSize, SizeFor(1000*time.Hour, 500*time.Millisecond))
}

func TestPushAndSeries(t *testing.T) {
	h := New(10)

	for i := 0; i < 5; i++ {
		h.Push(sample(i, float64(i*10)))
	}

	assert.Equal(t, 5, h.Count())
	assert.Equal(t, []float64{0, 10, 20, 30, 40}, h.CPU(5))
	assert.Equal(t, []float64{30, 40}, h.CPU(2))
	assert.Equal(t, []float64{50, 50, 50}, h.Memory(3))
	assert.Equal(t, []float64{50}, h.Disk(1))
	assert.Equal(t, []float64{0, 10, 20, 30, 40}, h.Core(1, 10))
	assert.Nil(t, h.Core(2, 10))
}

func TestRingOverflow(t *testing.T) {
	h := New(5)

	for i := 0; i < 8; i++ {
		h.Push(sample(i, float64(i)))
	}

	assert.Equal(t, 5, h.Count())
	assert.Equal(t, []float64{3, 4, 5, 6, 7}, h.CPU(10))
}

func TestPush_SkipsStaleAndOutOfOrder(t *testing.T) {
	h := New(10)

	h.Push(sample(2, 10))
	h.Push(sample(2, 20).WithStatus(false, true))
	h.Push(sample(1, 30))
	h.Push(sample(2, 40))
	h.Push(metrics.Snapshot{})

	assert.Equal(t, []float64{10}, h.CPU(10))
}

func TestNetworkRates(t *testing.T) {
	h := New(10)

	_, _, ok := h.LatestRate()
	assert.False(t, ok)

	// The fake's eth0 counters grow 100 B/s out and 200 B/s in.
	h.Push(sample(0, 1))
	h.Push(sample(2, 1))
	h.Push(sample(4, 1))

	in, out, ok := h.LatestRate()
	require.True(t, ok)
	assert.InDelta(t, 200, in, 0.001)
	assert.InDelta(t, 100, out, 0.001)

	assert.Equal(t, []float64{0, 200, 200}, h.NetworkIn(10), "no rate for the first sample")
	assert.Equal(t, []string{"eth0"}, h.Interfaces())

	ifIn, ifOut := h.InterfaceRates("eth0", 10)
	assert.Equal(t, []float64{200, 200}, ifIn)
	assert.Equal(t, []float64{100, 100}, ifOut)

	ifIn, ifOut = h.InterfaceRates("wlan0", 10)
	assert.Nil(t, ifIn)
	assert.Nil(t, ifOut)
}

func TestNetworkRates_CounterReset(t *testing.T) {
	h := New(10)

	first := sample(0, 1)
	second := sample(1, 1)
	second.Network[0].BytesRecv = 0

	h.Push(first)
	h.Push(second)

	in, _, ok := h.LatestRate()
	require.True(t, ok)
	assert.Zero(t, in, "counter reset counts as zero, not negative")
}

func TestNetworkRates_SkipsLoopback(t *testing.T) {
	h := New(10)

	first := sample(0, 1)
	first.Network = append(first.Network, metrics.NetInterface{Name: "lo"})
	second := sample(1, 1)
	second.Network = append(second.Network, metrics.NetInterface{Name: "lo", BytesRecv: 1 << 30})

	h.Push(first)
	h.Push(second)

	in, _, _ := h.LatestRate()
	assert.InDelta(t, 200, in, 0.001)

	loIn, _ := h.InterfaceRates("lo", 1)
	assert.Equal(t, []float64{1 << 30}, loIn, "loopback still has its own series")
}

func TestSince(t *testing.T) {
	h := New(10)
	for i := 0; i < 5; i++ {
		h.Push(sample(i, float64(i)))
	}

	pts := h.Since(base.Add(2 * time.Second))
	require.Len(t, pts, 2)
	assert.Equal(t, 3.0, pts[0].CPU)

	assert.Len(t, h.Since(time.Time{}), 5)
	assert.Empty(t, h.Since(base.Add(time.Hour)))
	assert.Empty(t, New(3).Since(base))
}

func TestPointsCarryDegraded(t *testing.T) {
	h := New(10)
	h.Push(sample(0, 1).WithStatus(true, false))

	pts := h.Points(1)
	require.Len(t, pts, 1)
	assert.True(t, pts[0].Degraded)
}

func TestClear(t *testing.T) {
	h := New(10)
	h.Push(sample(0, 1))
	h.Push(sample(1, 1))

	h.Clear()
	assert.Zero(t, h.Count())
	assert.Nil(t, h.CPU(10))
	assert.Empty(t, h.Interfaces())

	// After clearing, an older timestamp is accepted again.
	h.Push(sample(0, 5))
	assert.Equal(t, []float64{5}, h.CPU(1))
}

func TestConcurrency(t *testing.T) {
	h := New(100)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.Push(sample(i, float64(i%100)))
		}
	}()

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = h.CPU(10)
				_ = h.Points(5)
				_, _, _ = h.LatestRate()
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, 100, h.Count())
}

func TestRing(t *testing.T) {
	r := newRing[float64](3)
	assert.Nil(t, r.last(1))

	r.push(1)
	r.push(2)
	assert.Equal(t, []float64{1, 2}, r.last(5))
	assert.Nil(t, r.last(0))

	r.push(3)
	r.push(4)
	assert.Equal(t, []float64{2, 3, 4}, r.last(3))
	assert.Equal(t, []float64{4}, r.last(1))
}
