package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/m17-go/m17/internal/logger"
)

// PrometheusConfig holds Prometheus server configuration.
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

// PrometheusHandler handles Prometheus metrics HTTP requests.
type PrometheusHandler struct {
	collector *Collector
}

// NewPrometheusHandler creates a new Prometheus handler.
func NewPrometheusHandler(collector *Collector) *PrometheusHandler {
	return &PrometheusHandler{collector: collector}
}

// ServeHTTP handles HTTP requests for metrics.
func (h *PrometheusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	var out strings.Builder

	out.WriteString("# HELP m17_reflector_connections_total Total successful reflector connections\n")
	out.WriteString("# TYPE m17_reflector_connections_total counter\n")
	fmt.Fprintf(&out, "m17_reflector_connections_total %d\n", h.collector.GetTotalConnections())

	out.WriteString("# HELP m17_reflectors_active Number of currently connected reflectors\n")
	out.WriteString("# TYPE m17_reflectors_active gauge\n")
	fmt.Fprintf(&out, "m17_reflectors_active %d\n", h.collector.GetActiveReflectors())

	out.WriteString("# HELP m17_frames_received_total Total frames received\n")
	out.WriteString("# TYPE m17_frames_received_total counter\n")
	fmt.Fprintf(&out, "m17_frames_received_total %d\n", h.collector.GetFramesReceived())

	out.WriteString("# HELP m17_frames_sent_total Total frames sent\n")
	out.WriteString("# TYPE m17_frames_sent_total counter\n")
	fmt.Fprintf(&out, "m17_frames_sent_total %d\n", h.collector.GetFramesSent())

	out.WriteString("# HELP m17_bytes_received_total Total bytes received\n")
	out.WriteString("# TYPE m17_bytes_received_total counter\n")
	fmt.Fprintf(&out, "m17_bytes_received_total %d\n", h.collector.GetBytesReceived())

	out.WriteString("# HELP m17_bytes_sent_total Total bytes sent\n")
	out.WriteString("# TYPE m17_bytes_sent_total counter\n")
	fmt.Fprintf(&out, "m17_bytes_sent_total %d\n", h.collector.GetBytesSent())

	out.WriteString("# HELP m17_streams_active Number of active voice/data streams\n")
	out.WriteString("# TYPE m17_streams_active gauge\n")
	fmt.Fprintf(&out, "m17_streams_active %d\n", h.collector.GetActiveStreams())

	out.WriteString("# HELP m17_golay_corrections_total Total Golay codewords requiring bit correction\n")
	out.WriteString("# TYPE m17_golay_corrections_total counter\n")
	fmt.Fprintf(&out, "m17_golay_corrections_total %d\n", h.collector.GetGolayCorrections())

	out.WriteString("# HELP m17_crc_failures_total Total frames failing CRC validation\n")
	out.WriteString("# TYPE m17_crc_failures_total counter\n")
	fmt.Fprintf(&out, "m17_crc_failures_total %d\n", h.collector.GetCRCFailures())

	out.WriteString("# HELP m17_bridge_routes_total Total bridge routing events\n")
	out.WriteString("# TYPE m17_bridge_routes_total counter\n")
	fmt.Fprintf(&out, "m17_bridge_routes_total %d\n", h.collector.GetBridgeRoutes())

	w.Write([]byte(out.String()))
}

// PrometheusServer is an HTTP server for Prometheus metrics.
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server.
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}
	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server, blocking until ctx is
// cancelled.
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("Prometheus metrics server disabled")
		return nil
	}

	handler := NewPrometheusHandler(s.collector)
	mux := http.NewServeMux()
	mux.Handle(s.config.Path, handler)

	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port

	s.server = &http.Server{Handler: mux}

	s.log.Info("starting Prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down Prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server.
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
