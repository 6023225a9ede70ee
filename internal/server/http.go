package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/motioncore/sensorsync/internal/collector"
	"github.com/motioncore/sensorsync/internal/config"
	"github.com/motioncore/sensorsync/internal/types"
	"github.com/motioncore/sensorsync/pkg/logger"
)

// maxRecent bounds the in-memory ring of recent emissions.
const maxRecent = 1000

// Server exposes collector state and recent synchronized measurements
// over HTTP.
type Server struct {
	config    *config.Config
	collector *collector.Collector
	server    *http.Server

	mu     sync.RWMutex
	recent []types.SyncedMeasurement
}

// NewServer creates the status server for one collector.
func NewServer(cfg *config.Config, c *collector.Collector) *Server {
	return &Server{
		config:    cfg,
		collector: c,
	}
}

// Record appends one emission to the recent ring. Safe to call from the
// delivery goroutine.
func (s *Server) Record(sm types.SyncedMeasurement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.recent) >= maxRecent {
		s.recent = s.recent[1:]
	}
	s.recent = append(s.recent, sm)
}

// Start begins serving in the background.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/synced", s.syncedHandler)
	mux.HandleFunc("/api/stats", s.statsHandler)

	addr := fmt.Sprintf("%s:%d", s.config.HttpServer.Host, s.config.HttpServer.Port)
	s.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Global.Info("HTTP server started", "address", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Global.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		logger.Global.Info("stopping HTTP server")
		return s.server.Shutdown(ctx)
	}
	return nil
}

// syncedHandler returns the most recent synchronized measurements,
// newest last, bounded by the limit query parameter (default 100).
func (s *Server) syncedHandler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	s.mu.RLock()
	n := len(s.recent)
	if n > limit {
		n = limit
	}
	out := make([]types.SyncedMeasurement, n)
	copy(out, s.recent[len(s.recent)-n:])
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		logger.Global.Error("failed to encode JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// statsHandler reports the collector state machine and counters.
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	availability := make(map[types.SensorType]bool)
	for _, t := range s.collector.Tracked() {
		availability[t] = s.collector.Available(t)
	}

	stats := struct {
		Running             bool                      `json:"running"`
		StartTimestamp      int64                     `json:"start_timestamp"`
		ProcessedCount      uint64                    `json:"processed_count"`
		MostRecentTimestamp int64                     `json:"most_recent_timestamp"`
		Availability        map[types.SensorType]bool `json:"availability"`
	}{
		Running:             s.collector.Running(),
		StartTimestamp:      s.collector.StartTimestamp(),
		ProcessedCount:      s.collector.ProcessedCount(),
		MostRecentTimestamp: s.collector.MostRecentTimestamp(),
		Availability:        availability,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		logger.Global.Error("failed to encode JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
