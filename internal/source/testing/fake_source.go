// Package testing provides test doubles for the source package.
package testing

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rileyhilliard/pulse/internal/metrics"
)

// ErrScripted is the error a scripted failure returns unless one is given.
var ErrScripted = errors.New("scripted fetch failure")

// Step is one scripted Fetch outcome.
type Step struct {
	CPU float64
	Err error
}

// FakeSource replays a script of successes and failures. Once the script is
// exhausted it repeats the fallback behaviour (success by default).
type FakeSource struct {
	mu sync.Mutex

	script   []Step
	fallback Step
	clock    func() time.Time
	block    chan struct{}

	// Call tracking
	Calls     int
	Successes int
	Failures  int
}

// NewFakeSource creates a fake that succeeds with 50% CPU by default.
// Snapshot timestamps start at base and advance one second per call.
func NewFakeSource(base time.Time) *FakeSource {
	f := &FakeSource{fallback: Step{CPU: 50}}
	calls := 0
	f.clock = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return f
}

// Succeed queues n successful fetches with the given CPU usage.
func (f *FakeSource) Succeed(n int, cpu float64) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	for range n {
		f.script = append(f.script, Step{CPU: cpu})
	}
	return f
}

// Fail queues n failing fetches.
func (f *FakeSource) Fail(n int) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	for range n {
		f.script = append(f.script, Step{Err: ErrScripted})
	}
	return f
}

// FailAlways makes every fetch after the script fail.
func (f *FakeSource) FailAlways() *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = Step{Err: ErrScripted}
	return f
}

// SucceedAlways makes every fetch after the script succeed with cpu usage.
func (f *FakeSource) SucceedAlways(cpu float64) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = Step{CPU: cpu}
	return f
}

// SetClock overrides the timestamp source.
func (f *FakeSource) SetClock(clock func() time.Time) *FakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = clock
	return f
}

// Block makes Fetch wait until the returned release func is called or the
// context ends.
func (f *FakeSource) Block() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block = ch
	var once sync.Once
	return func() {
		once.Do(func() {
			close(ch)
			f.mu.Lock()
			f.block = nil
			f.mu.Unlock()
		})
	}
}

// Fetch plays the next scripted step.
func (f *FakeSource) Fetch(ctx context.Context) (metrics.Snapshot, error) {
	f.mu.Lock()
	block := f.block
	f.Calls++
	step := f.fallback
	if len(f.script) > 0 {
		step = f.script[0]
		f.script = f.script[1:]
	}
	ts := f.clock()
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			f.record(false)
			return metrics.Snapshot{}, ctx.Err()
		}
	}

	if step.Err != nil {
		f.record(false)
		return metrics.Snapshot{}, step.Err
	}
	f.record(true)
	return Snapshot(ts, step.CPU), nil
}

func (f *FakeSource) record(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ok {
		f.Successes++
	} else {
		f.Failures++
	}
}

// CallCount returns the number of Fetch calls so far.
func (f *FakeSource) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// Snapshot builds a valid live snapshot with the given CPU usage.
func Snapshot(ts time.Time, cpu float64) metrics.Snapshot {
	snap := metrics.Snapshot{
		Timestamp: ts,
		Origin:    metrics.OriginLive,
		System:    metrics.SystemInfo{Hostname: "fake", OS: "linux", ProcessCount: 100},
		CPU: metrics.CPU{
			Usage:        cpu,
			PerCore:      []float64{cpu, cpu},
			LogicalCores: 2,
		},
		Memory: metrics.Memory{
			Total:     8 << 30,
			Available: 4 << 30,
			Free:      2 << 30,
		},
		Disk: []metrics.Disk{
			{Device: "fake0", Mountpoint: "/", Total: 1000, Used: 500, Free: 500},
		},
		Network: []metrics.NetInterface{
			{Name: "eth0", BytesSent: uint64(ts.Unix()) * 100, BytesRecv: uint64(ts.Unix()) * 200},
		},
	}
	return snap.Normalize()
}

// FakeProvider is a Provider double for LiveSource tests.
type FakeProvider struct {
	mu sync.Mutex

	Result metrics.Snapshot
	Err    error
	// Delay holds Collect for this long, ignoring the context when
	// IgnoreContext is set.
	Delay         time.Duration
	IgnoreContext bool
	Panic         any

	Calls int
}

// Collect returns the configured result.
func (p *FakeProvider) Collect(ctx context.Context) (metrics.Snapshot, error) {
	p.mu.Lock()
	p.Calls++
	delay, ignore, panicVal := p.Delay, p.IgnoreContext, p.Panic
	result, err := p.Result, p.Err
	p.mu.Unlock()

	if panicVal != nil {
		panic(panicVal)
	}

	if delay > 0 {
		if ignore {
			time.Sleep(delay)
		} else {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return metrics.Snapshot{}, ctx.Err()
			}
		}
	}
	return result, err
}
