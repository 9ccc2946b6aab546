package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/journal"
	"github.com/rileyhilliard/pulse/internal/logger"
	"github.com/rileyhilliard/pulse/internal/metrics"
	"github.com/rileyhilliard/pulse/internal/poller"
	"github.com/rileyhilliard/pulse/internal/source"
	sourcetest "github.com/rileyhilliard/pulse/internal/source/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	srv     *Server
	poller  *poller.Poller
	history *history.History
	journal *journal.Journal
}

func newFixture(t *testing.T, rules ...alert.Rule) *fixture {
	t.Helper()

	live := sourcetest.NewFakeSource(base)
	cfg := source.DefaultSyntheticConfig()
	cfg.Seed = 3
	synth := source.NewSynthetic(cfg)

	opts := poller.DefaultOptions()
	opts.Logger = logger.Noop()
	p := poller.New(live, synth, alert.NewEngine(rules, alert.WithLogger(logger.Noop())), opts)

	h := history.New(10)
	p.OnSnapshot(h.Push)

	j, err := journal.Open(journal.MemoryPath, logger.Noop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	p.OnAlertEvent(j.Handler())

	srv := New(p, Options{History: h, Journal: j, Logger: logger.Noop()})
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, poller: p, history: h, journal: j}
}

func (f *fixture) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, into))
}

func TestSnapshot_NotReady(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodGet, "/api/snapshot", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.False(t, resp.Success)
}

func TestSnapshot_AfterRefresh(t *testing.T) {
	f := newFixture(t)

	rec, resp := f.do(t, http.MethodPost, "/api/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)

	rec, _ = f.do(t, http.MethodGet, "/api/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var snap metrics.Snapshot
	decodeData(t, rec, &snap)
	assert.InDelta(t, 50, snap.CPU.Usage, 0.001)
	assert.Equal(t, metrics.OriginLive, snap.Origin)
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestState(t *testing.T) {
	f := newFixture(t, alert.Rule{ID: "cpu", Metric: "cpu", Operator: ">", Threshold: 90, Enabled: true})
	_, err := f.poller.Refresh(context.Background())
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st StateResponse
	decodeData(t, rec, &st)
	assert.Equal(t, poller.ModeLive, st.Poller.Mode)
	assert.Equal(t, uint64(1), st.Poller.Ticks)
	assert.Equal(t, uint64(1), st.Poller.CacheUpdates)
	assert.Equal(t, 1, st.Alerts.Rules)
	assert.NotEmpty(t, st.CacheAge)
	assert.Equal(t, "1.6s", st.FetchTimeout)
}

func TestAlerts_ActiveAndJournal(t *testing.T) {
	f := newFixture(t, alert.Rule{
		ID: "cpu-hot", Name: "CPU hot", Metric: "cpu",
		Operator: ">", Threshold: 40, Enabled: true,
	})
	_, err := f.poller.Refresh(context.Background())
	require.NoError(t, err)

	rec, _ := f.do(t, http.MethodGet, "/api/alerts?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got AlertsResponse
	decodeData(t, rec, &got)
	require.Len(t, got.Active, 1)
	assert.Equal(t, "cpu-hot", got.Active[0].Rule.ID)
	require.Len(t, got.Recent, 1)
	assert.Equal(t, alert.KindFired, got.Recent[0].Kind)

	rec, _ = f.do(t, http.MethodGet, "/api/alerts?kind=resolved", "")
	var resolved AlertsResponse
	decodeData(t, rec, &resolved)
	assert.Empty(t, resolved.Recent)
}

func TestRules(t *testing.T) {
	f := newFixture(t, alert.DefaultRules()...)

	rec, _ := f.do(t, http.MethodGet, "/api/rules", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rules []alert.Rule
	decodeData(t, rec, &rules)
	assert.Len(t, rules, len(alert.DefaultRules()))
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for range 3 {
		_, err := f.poller.Refresh(ctx)
		require.NoError(t, err)
	}

	rec, _ := f.do(t, http.MethodGet, "/api/history?count=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pts []history.Point
	decodeData(t, rec, &pts)
	assert.Len(t, pts, 2)

	rec, _ = f.do(t, http.MethodGet, "/api/history?since="+base.Add(2*time.Second).Format(time.RFC3339), "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &pts)
	assert.Len(t, pts, 1)

	rec, _ = f.do(t, http.MethodGet, "/api/history?since=yesterday-ish", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_Disabled(t *testing.T) {
	f := newFixture(t)
	srv := New(f.poller, Options{Logger: logger.Noop()})
	defer srv.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInterval(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		want     string
	}{
		{"duration string", `{"interval":"5s"}`, http.StatusOK, "5s"},
		{"milliseconds", `{"interval":1500}`, http.StatusOK, "1.5s"},
		{"clamped low", `{"interval":"10ms"}`, http.StatusOK, "500ms"},
		{"clamped high", `{"interval":"5m"}`, http.StatusOK, "1m0s"},
		{"garbage", `{"interval":"soon"}`, http.StatusBadRequest, ""},
		{"missing", `{}`, http.StatusBadRequest, ""},
		{"bad json", `{`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec, _ := f.do(t, http.MethodPost, "/api/interval", tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			if tt.want == "" {
				return
			}
			var got map[string]any
			decodeData(t, rec, &got)
			assert.Equal(t, tt.want, got["interval"])
			assert.Equal(t, tt.want, f.poller.Interval().String())
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    time.Duration
		wantErr bool
	}{
		{"duration", "2s", 2 * time.Second, false},
		{"padded", " 750ms ", 750 * time.Millisecond, false},
		{"numeric string", "1000", time.Second, false},
		{"int", 2500, 2500 * time.Millisecond, false},
		{"float", 1500.0, 1500 * time.Millisecond, false},
		{"nil", nil, 0, true},
		{"word", "fast", 0, true},
		{"bool map", map[string]any{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInterval(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayloadValue(t *testing.T) {
	assert.Nil(t, payloadValue(nil, "interval"))
	assert.Equal(t, "5s", payloadValue([]any{"5s"}, "interval"))
	assert.Equal(t, "5s", payloadValue([]any{map[string]any{"interval": "5s"}}, "interval"))
	assert.Equal(t, 10.0, payloadValue([]any{[]any{map[string]any{"interval": 10.0}}}, "interval"))
	assert.Nil(t, payloadValue([]any{[]any{}}, "interval"))
	assert.Nil(t, payloadValue([]any{map[string]any{"rate": "5s"}}, "interval"))
}

func TestClose_DropsSubscriptions(t *testing.T) {
	f := newFixture(t)
	snaps, alerts := f.poller.Dispatcher().Subscribers()

	f.srv.Close()
	after, afterAlerts := f.poller.Dispatcher().Subscribers()
	assert.Equal(t, snaps-1, after)
	assert.Equal(t, alerts-1, afterAlerts)

	f.srv.Close()
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/state"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := New(f.poller, Options{Addr: ln.Addr().String(), Logger: logger.Noop()})
	defer srv.Close()

	err = srv.ListenAndServe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot listen")
}
