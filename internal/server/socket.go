package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/zishang520/socket.io/servers/socket/v3"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// Hello is sent to each client as it connects.
type Hello struct {
	State    poller.State        `json:"state"`
	Snapshot *metrics.Snapshot   `json:"snapshot,omitempty"`
	Active   []alert.ActiveAlert `json:"active_alerts"`
}

func (s *Server) registerSocketEvents() {
	s.ns.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		n := s.clients.Add(1)
		s.log.Debug("client %s connected (%d total)", client.Id(), n)

		client.Emit(EventHello, s.hello())

		client.On("set_interval", func(data ...any) {
			s.handleSetInterval(client, data...)
		})
		client.On("refresh", func(data ...any) {
			s.handleRefresh(client)
		})
		client.On("disconnect", func(reason ...any) {
			n := s.clients.Add(-1)
			s.log.Debug("client %s disconnected: %v (%d left)", client.Id(), reason, n)
		})
	})
}

func (s *Server) hello() Hello {
	h := Hello{
		State:  s.poller.State(),
		Active: s.poller.Engine().ActiveAlerts(),
	}
	if snap, err := s.poller.CurrentSnapshot(); err == nil {
		h.Snapshot = &snap
	}
	return h
}

func (s *Server) broadcastSnapshot(snap metrics.Snapshot) {
	if err := s.ns.Emit(EventSnapshot, snap); err != nil {
		s.log.Warn("broadcast snapshot: %v", err)
	}
}

func (s *Server) broadcastAlert(ev alert.Event) {
	if err := s.ns.Emit(EventAlert, ev); err != nil {
		s.log.Warn("broadcast alert %s: %v", ev.ID, err)
	}
}

func (s *Server) handleSetInterval(client *socket.Socket, data ...any) {
	d, err := parseInterval(payloadValue(data, "interval"))
	if err != nil {
		client.Emit(EventError, err.Error())
		return
	}
	applied := s.poller.SetInterval(d)
	s.log.Info("client %s set interval to %s", client.Id(), applied)
	if err := s.ns.Emit(EventIntervalUpdated, map[string]any{
		"interval":    applied.String(),
		"interval_ms": applied.Milliseconds(),
	}); err != nil {
		s.log.Warn("broadcast interval: %v", err)
	}
}

func (s *Server) handleRefresh(client *socket.Socket) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), poller.MaxInterval)
		defer cancel()
		if _, err := s.poller.Refresh(ctx); err != nil {
			client.Emit(EventError, fmt.Sprintf("refresh failed: %v", err))
		}
	}()
}

// payloadValue digs key out of a Socket.IO event payload. Clients send
// either {"interval": ...}, a bare value, or either of those wrapped in
// an array depending on the client library.
func payloadValue(data []any, key string) any {
	if len(data) == 0 {
		return nil
	}
	v := data[0]
	if arr, ok := v.([]any); ok {
		if len(arr) == 0 {
			return nil
		}
		v = arr[0]
	}
	if m, ok := v.(map[string]any); ok {
		return m[key]
	}
	return v
}

// parseInterval accepts a duration string ("5s", "1500ms") or a number of
// milliseconds. The result is not clamped; SetInterval does that.
func parseInterval(v any) (time.Duration, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("interval is required")
	case string:
		t = strings.TrimSpace(t)
		if d, err := time.ParseDuration(t); err == nil {
			return d, nil
		}
		ms, err := cast.ToInt64E(t)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q", t)
		}
		return time.Duration(ms) * time.Millisecond, nil
	default:
		ms, err := cast.ToFloat64E(t)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %v", v)
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
}
