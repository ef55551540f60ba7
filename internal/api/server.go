// Package api exposes the HTTP interface for the match feed service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lyfe05/matchfeed/internal/config"
	"github.com/lyfe05/matchfeed/internal/feed"
	"github.com/lyfe05/matchfeed/internal/metrics"
	"github.com/lyfe05/matchfeed/internal/refresh"
)

// SnapshotSource serves the currently published snapshot.
type SnapshotSource interface {
	Snapshot() feed.Snapshot
}

// RefreshTrigger starts a background refresh pass, reporting
// refresh.ErrInFlight when one is already running.
type RefreshTrigger interface {
	Trigger(ctx context.Context) error
}

// Server wires HTTP handlers to the cache and the refresher.
type Server struct {
	router    chi.Router
	snapshots SnapshotSource
	refresher RefreshTrigger
	logger    *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The health
// and metrics endpoints stay open; the v1 API is behind bearer auth
// when enabled.
func NewServer(snapshots SnapshotSource, refresher RefreshTrigger, cfg config.Config, logger *zap.Logger) *Server {
	s := &Server{
		snapshots: snapshots,
		refresher: refresher,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(timeoutMiddleware(60 * time.Second))
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(bearerAuthMiddleware(cfg.Auth.BearerKeys()))
		}
		r.Get("/matches", s.getMatches)
		r.Post("/refresh", s.triggerRefresh)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports ready only once a snapshot exists, so load balancers
// keep traffic away from a cold instance.
func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if !s.snapshots.Snapshot().Populated() {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type matchesResponse struct {
	LastUpdated *time.Time         `json:"last_updated"`
	Refreshing  bool               `json:"refreshing"`
	Matches     []feed.MatchRecord `json:"matches"`
}

func (s *Server) getMatches(w http.ResponseWriter, _ *http.Request) {
	snap := s.snapshots.Snapshot()
	if !snap.Populated() {
		writeError(w, http.StatusServiceUnavailable, "data not yet available")
		return
	}

	matches := snap.Records
	if matches == nil {
		matches = []feed.MatchRecord{}
	}
	ts := snap.LastUpdated
	writeJSON(w, http.StatusOK, matchesResponse{
		LastUpdated: &ts,
		Refreshing:  snap.Refreshing,
		Matches:     matches,
	})
}

func (s *Server) triggerRefresh(w http.ResponseWriter, r *http.Request) {
	err := s.refresher.Trigger(r.Context())
	switch {
	case errors.Is(err, refresh.ErrInFlight):
		writeError(w, http.StatusConflict, "refresh already in progress")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh started"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
