// Package server pushes snapshots and alert events to browser shells over
// Socket.IO and exposes the same data as plain JSON endpoints.
//
// The server never polls on its own. It subscribes to the poller's
// dispatcher, so every connected client sees the exact tick stream the
// terminal dashboard sees.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/zishang520/socket.io/servers/engine/v3"
	"github.com/zishang520/socket.io/servers/socket/v3"
	"github.com/zishang520/socket.io/v3/pkg/types"

	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/journal"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// DefaultAddr is where serve listens when no address is configured.
const DefaultAddr = "127.0.0.1:8080"

// Namespace is the Socket.IO namespace clients join for metrics.
const Namespace = "/metrics"

// Event names emitted to clients.
const (
	EventHello           = "hello"
	EventSnapshot        = "snapshot"
	EventAlert           = "alert"
	EventIntervalUpdated = "interval_updated"
	EventError           = "pulse_error"
)

// Options configures a Server.
type Options struct {
	Addr    string
	History *history.History
	// Journal is optional; /api/alerts omits recent events without it.
	Journal *journal.Journal
	Logger  logger.Logger
}

// Server wires a poller to HTTP and Socket.IO clients.
type Server struct {
	addr    string
	poller  *poller.Poller
	history *history.History
	journal *journal.Journal
	log     logger.Logger

	io      *socket.Server
	ns      socket.Namespace
	mux     *http.ServeMux
	clients atomic.Int64

	unsubscribe []func()
}

// New builds a server for p. Subscriptions are made immediately; call
// Close to drop them.
func New(p *poller.Poller, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("[server]")
	}

	ioOpts := socket.DefaultServerOptions()
	ioOpts.SetPath("/socket.io")
	ioOpts.SetTransports(types.NewSet(
		engine.Polling,
		engine.WebSocket,
	))
	io := socket.NewServer(nil, ioOpts)

	s := &Server{
		addr:    opts.Addr,
		poller:  p,
		history: opts.History,
		journal: opts.Journal,
		log:     opts.Logger,
		io:      io,
		ns:      io.Of(Namespace, nil),
		mux:     http.NewServeMux(),
	}

	s.registerSocketEvents()
	s.routes()

	s.unsubscribe = append(s.unsubscribe,
		p.OnSnapshot(s.broadcastSnapshot),
		p.OnAlertEvent(s.broadcastAlert),
	)
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Clients returns the number of connected Socket.IO clients.
func (s *Server) Clients() int64 {
	return s.clients.Load()
}

// Handler returns the root HTTP handler (API routes plus Socket.IO).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Close drops the poller subscriptions.
func (s *Server) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrServe,
			fmt.Sprintf("Cannot listen on %s", s.addr),
			"Pick another address with --addr or serve.addr in the config")
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info("listening on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapWithCode(err, errors.ErrServe, "HTTP server stopped unexpectedly", "")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapWithCode(err, errors.ErrServe, "HTTP server did not shut down cleanly", "")
	}
	return nil
}
