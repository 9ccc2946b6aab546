package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/cast"

	"github.com/rileyhilliard/pulse/internal/alert"
	"github.com/rileyhilliard/pulse/internal/errors"
	"github.com/rileyhilliard/pulse/internal/history"
	"github.com/rileyhilliard/pulse/internal/journal"
	"github.com/rileyhilliard/pulse/internal/poller"
)

// StateResponse is the body of GET /api/state.
type StateResponse struct {
	Poller       poller.State `json:"poller"`
	Alerts       alert.Stats  `json:"alerts"`
	CacheAge     string       `json:"cache_age,omitempty"`
	FetchTimeout string       `json:"fetch_timeout"`
	Clients      int64        `json:"clients"`
}

// AlertsResponse is the body of GET /api/alerts.
type AlertsResponse struct {
	Active []alert.ActiveAlert `json:"active"`
	States []alert.State       `json:"states"`
	Recent []alert.Event       `json:"recent,omitempty"`
}

func (s *Server) routes() {
	s.mux.Handle("/socket.io/", s.io.ServeHandler(nil))

	s.mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/rules", s.handleRules)
	s.mux.HandleFunc("GET /api/history", s.handleHistory)
	s.mux.HandleFunc("POST /api/interval", s.handleInterval)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefreshAPI)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.poller.CurrentSnapshot()
	if errors.IsNotReady(err) {
		w.Header().Set("Retry-After", "1")
		_ = WriteError(w, http.StatusServiceUnavailable, "No snapshot yet, still loading", nil)
		return
	}
	if err != nil {
		_ = WriteError(w, http.StatusInternalServerError, "Cannot read snapshot", err)
		return
	}
	_ = WriteSuccess(w, snap)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := StateResponse{
		Poller:       s.poller.State(),
		Alerts:       s.poller.Engine().Stats(),
		FetchTimeout: s.poller.FetchTimeout().String(),
		Clients:      s.Clients(),
	}
	if c := s.poller.Cache(); c.Ready() {
		resp.CacheAge = c.Age().Round(time.Millisecond).String()
	}
	_ = WriteSuccess(w, resp)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	engine := s.poller.Engine()
	resp := AlertsResponse{
		Active: engine.ActiveAlerts(),
		States: engine.States(),
	}

	if s.journal != nil {
		q := r.URL.Query()
		recent, err := s.journal.Recent(r.Context(), journal.Query{
			RuleID: q.Get("rule"),
			Kind:   alert.Kind(q.Get("kind")),
			Limit:  cast.ToInt(q.Get("limit")),
		})
		if err != nil {
			_ = WriteError(w, http.StatusInternalServerError, "Cannot read alert journal", err)
			return
		}
		resp.Recent = recent
	}
	_ = WriteSuccess(w, resp)
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	_ = WriteSuccess(w, s.poller.Engine().Rules())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		_ = WriteError(w, http.StatusNotFound, "History is not enabled", nil)
		return
	}

	q := r.URL.Query()
	if since := q.Get("since"); since != "" {
		t, err := cast.ToTimeE(since)
		if err != nil {
			_ = WriteError(w, http.StatusBadRequest, "Invalid since timestamp", err)
			return
		}
		_ = WriteSuccess(w, s.history.Since(t))
		return
	}

	count := cast.ToInt(q.Get("count"))
	if count <= 0 {
		count = history.DefaultSize
	}
	points := s.history.Points(count)
	if points == nil {
		points = []history.Point{}
	}
	_ = WriteSuccess(w, points)
}

type intervalRequest struct {
	Interval any `json:"interval"`
}

func (s *Server) handleInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := parseInterval(req.Interval)
	if err != nil {
		_ = WriteError(w, http.StatusBadRequest, "Invalid interval", err)
		return
	}
	applied := s.poller.SetInterval(d)
	_ = WriteSuccess(w, map[string]any{
		"interval":    applied.String(),
		"interval_ms": applied.Milliseconds(),
	})
}

func (s *Server) handleRefreshAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), poller.MaxInterval)
	defer cancel()

	snap, err := s.poller.Refresh(ctx)
	if errors.IsNotReady(err) {
		_ = WriteError(w, http.StatusServiceUnavailable, "No snapshot yet, still loading", nil)
		return
	}
	if err != nil {
		_ = WriteError(w, http.StatusInternalServerError, "Refresh failed", err)
		return
	}
	_ = WriteSuccess(w, snap)
}
