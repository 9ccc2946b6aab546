// Package source provides the two metric sources the poller switches
// between: a live source backed by the host's system-information provider,
// and a synthetic source that fabricates plausible telemetry when the live
// one is unavailable.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
)

// Source acquires one snapshot of the current system metrics.
type Source interface {
	Fetch(ctx context.Context) (metrics.Snapshot, error)
}

// Provider is the external system-information collaborator behind a LiveSource.
// Implementations return raw data; LiveSource does validation and normalisation.
type Provider interface {
	Collect(ctx context.Context) (metrics.Snapshot, error)
}

// Acquisition failure reasons.
const (
	ReasonTimeout   = "timeout"
	ReasonCanceled  = "canceled"
	ReasonProvider  = "provider error"
	ReasonMalformed = "malformed snapshot"
	ReasonPanic     = "provider panic"
)

// AcquisitionError reports a failed live fetch. It is recoverable: the
// poller counts it toward failover and never surfaces it to subscribers.
type AcquisitionError struct {
	Reason string
	Cause  error
}

func (e *AcquisitionError) Error() string {
	if e.Cause == nil {
		return "acquisition failed: " + e.Reason
	}
	return fmt.Sprintf("acquisition failed: %s: %v", e.Reason, e.Cause)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Cause
}

// IsAcquisitionError reports whether err is (or wraps) an AcquisitionError.
func IsAcquisitionError(err error) bool {
	var aErr *AcquisitionError
	return errors.As(err, &aErr)
}

// LiveSource fetches real metrics through a Provider. Every failure mode
// (provider error, timeout, panic, malformed output) comes back as an
// *AcquisitionError.
type LiveSource struct {
	provider Provider
	timeout  time.Duration
	log      logger.Logger
	now      func() time.Time
}

// LiveOption configures a LiveSource.
type LiveOption func(*LiveSource)

// WithTimeout bounds each Fetch. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) LiveOption {
	return func(s *LiveSource) { s.timeout = d }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l logger.Logger) LiveOption {
	return func(s *LiveSource) { s.log = l }
}

// WithClock sets the clock used to stamp snapshots the provider left unstamped.
func WithClock(now func() time.Time) LiveOption {
	return func(s *LiveSource) { s.now = now }
}

// NewLive creates a LiveSource over the given provider.
func NewLive(p Provider, opts ...LiveOption) *LiveSource {
	s := &LiveSource{
		provider: p,
		log:      logger.Noop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch runs the provider on its own goroutine so a provider that ignores
// its context still cannot hold the caller past the timeout.
func (s *LiveSource) Fetch(ctx context.Context) (metrics.Snapshot, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		snap metrics.Snapshot
		err  error
	}
	resultCh := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- result{err: &AcquisitionError{Reason: ReasonPanic, Cause: fmt.Errorf("%v", r)}}
			}
		}()
		snap, err := s.provider.Collect(ctx)
		resultCh <- result{snap, err}
	}()

	select {
	case <-ctx.Done():
		return metrics.Snapshot{}, contextError(ctx.Err())
	case r := <-resultCh:
		if r.err != nil {
			if IsAcquisitionError(r.err) {
				return metrics.Snapshot{}, r.err
			}
			if ctx.Err() != nil {
				return metrics.Snapshot{}, contextError(ctx.Err())
			}
			return metrics.Snapshot{}, &AcquisitionError{Reason: ReasonProvider, Cause: r.err}
		}
		return s.finish(r.snap)
	}
}

func (s *LiveSource) finish(raw metrics.Snapshot) (metrics.Snapshot, error) {
	if raw.Timestamp.IsZero() {
		raw.Timestamp = s.now()
	}
	raw.Origin = metrics.OriginLive
	raw.Degraded = false
	raw.Stale = false

	snap := raw.Normalize()
	if err := snap.Validate(); err != nil {
		s.log.Debug("rejecting provider output: %v", err)
		return metrics.Snapshot{}, &AcquisitionError{Reason: ReasonMalformed, Cause: err}
	}
	return snap, nil
}

func contextError(err error) *AcquisitionError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &AcquisitionError{Reason: ReasonTimeout, Cause: err}
	}
	return &AcquisitionError{Reason: ReasonCanceled, Cause: err}
}
