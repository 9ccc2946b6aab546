package cli

import (
	"context"
	"time"

	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/server"
)

// serveCommand runs the poller behind the HTTP/Socket.IO server until ctx
// is cancelled.
func serveCommand(ctx context.Context, addr string, interval time.Duration) error {
	c, err := buildCore(coreOptions{Journal: true, Interval: interval})
	if err != nil {
		return err
	}
	defer c.Close()

	return serveCore(ctx, c, addr)
}

func serveCore(ctx context.Context, c *core, addr string) error {
	if addr == "" {
		addr = c.cfg.Serve.Addr
	}

	srv := server.New(c.poller, server.Options{
		Addr:    addr,
		History: c.history,
		Journal: c.journal,
		Logger:  logger.NewEnvLogger("[server]"),
	})
	defer srv.Close()

	c.poller.Start(ctx)
	defer c.poller.Stop()

	return srv.ListenAndServe(ctx)
}
