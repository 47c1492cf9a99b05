// Package web serves a read-only monitoring dashboard: a small JSON
// REST API over connection state, session history, and metrics, plus
// a websocket feed of live stream/connection events, grounded in the
// teacher's pkg/web dashboard server.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/m17-go/m17/internal/bridge"
	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/metrics"
	"github.com/m17-go/m17/internal/store"
)

// Config configures the monitoring dashboard's HTTP server.
type Config struct {
	Host string
	Port int
}

// ConnectionStatus is the subset of reflector.Client state the
// dashboard reports per connection, decoupled from pkg/reflector so
// this package never needs the live socket.
type ConnectionStatus struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Module string `json:"module"`
	State  string `json:"state"`
}

// StatusProvider supplies the live connection states shown on the
// dashboard; cmd/m17-relay implements it over its reflector clients.
type StatusProvider interface {
	ConnectionStatuses() []ConnectionStatus
}

// Server is the monitoring dashboard's HTTP server.
type Server struct {
	cfg     Config
	logger  *logger.Logger
	metrics *metrics.Collector
	router  *bridge.Router
	sessRepo *store.SessionRepository
	status  StatusProvider
	hub     *Hub

	httpServer *http.Server
}

// NewServer constructs a dashboard server. Dependencies may be added
// after construction with the With* methods.
func NewServer(cfg Config, m *metrics.Collector, log *logger.Logger) *Server {
	return &Server{
		cfg:     cfg,
		logger:  log.WithComponent("web"),
		metrics: m,
		hub:     NewHub(log),
	}
}

// WithRouter attaches the bridge router for bridge-status reporting.
func (s *Server) WithRouter(r *bridge.Router) *Server {
	s.router = r
	return s
}

// WithSessions attaches the session repository for history reporting.
func (s *Server) WithSessions(repo *store.SessionRepository) *Server {
	s.sessRepo = repo
	return s
}

// WithStatusProvider attaches the live reflector-connection status
// source.
func (s *Server) WithStatusProvider(p StatusProvider) *Server {
	s.status = p
	return s
}

// Hub returns the websocket event hub, so callers can Broadcast
// connect/disconnect/stream events onto the dashboard feed.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start runs the HTTP server and websocket hub until ctx is
// cancelled.
func (s *Server) Start(ctx context.Context) error {
	go s.hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/bridges", s.handleBridges)
	mux.HandleFunc("/ws", s.hub.ServeHTTP)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.httpServer = &http.Server{Handler: mux}
	s.logger.Info("starting monitoring dashboard", logger.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down monitoring dashboard")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	var connections []ConnectionStatus
	if s.status != nil {
		connections = s.status.ConnectionStatuses()
	}

	resp := struct {
		Connections    []ConnectionStatus `json:"connections"`
		FramesSent     uint64             `json:"frames_sent"`
		FramesReceived uint64             `json:"frames_received"`
		ActiveStreams  int                `json:"active_streams"`
		CRCFailures    uint64             `json:"crc_failures"`
	}{
		Connections: connections,
	}
	if s.metrics != nil {
		resp.FramesSent = s.metrics.GetFramesSent()
		resp.FramesReceived = s.metrics.GetFramesReceived()
		resp.ActiveStreams = s.metrics.GetActiveStreams()
		resp.CRCFailures = s.metrics.GetCRCFailures()
	}
	writeJSON(w, resp)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessRepo == nil {
		writeJSON(w, []store.Session{})
		return
	}
	sessions, err := s.sessRepo.GetRecent(100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, sessions)
}

func (s *Server) handleBridges(w http.ResponseWriter, r *http.Request) {
	active := 0
	if s.router != nil {
		active = s.router.ActiveStreams()
	}
	writeJSON(w, struct {
		ActiveStreams int `json:"active_streams"`
	}{ActiveStreams: active})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
