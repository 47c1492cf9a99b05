// Command m17-relay is the process entry point for the M17 reflector
// relay: it loads configuration, opens the session-history store,
// starts the metrics/monitoring servers, dials the configured
// reflector connections, wires any bridge links between them, and
// blocks until an interrupt or SIGTERM signal is received.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/m17-go/m17/internal/acl"
	"github.com/m17-go/m17/internal/bridge"
	"github.com/m17-go/m17/internal/config"
	"github.com/m17-go/m17/internal/events"
	"github.com/m17-go/m17/internal/logger"
	"github.com/m17-go/m17/internal/metrics"
	"github.com/m17-go/m17/internal/reflectorlist"
	"github.com/m17-go/m17/internal/store"
	"github.com/m17-go/m17/internal/web"
	"github.com/m17-go/m17/pkg/reflector"
)

var (
	version   = "dev"
	gitCommit = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version information")
	validateOnly := flag.Bool("validate", false, "validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("m17-relay %s (%s)\n", version, gitCommit)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("starting m17-relay", logger.String("version", version), logger.String("commit", gitCommit))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validateOnly {
		log.Info("configuration is valid")
		os.Exit(0)
	}

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	metricsCollector := metrics.NewCollector()

	db, err := store.New(store.Config{Path: cfg.Store.DSN}, log.WithComponent("store"))
	if err != nil {
		log.Error("failed to open store", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	sessionRepo := store.NewSessionRepository(db.GetDB())
	directoryRepo := store.NewReflectorDirectoryRepository(db.GetDB())

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := metrics.NewPrometheusServer(metrics.PrometheusConfig{
				Enabled: cfg.Metrics.Prometheus.Enabled,
				Port:    cfg.Metrics.Prometheus.Port,
				Path:    cfg.Metrics.Prometheus.Path,
			}, metricsCollector, log.WithComponent("metrics"))
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				log.Error("prometheus metrics server error", logger.Error(err))
			}
		}()
	}

	eventPublisher := events.New(events.Config{
		Enabled:     cfg.Events.Enabled,
		Broker:      cfg.Events.Broker,
		TopicPrefix: cfg.Events.TopicPrefix,
		ClientID:    cfg.Events.ClientID,
	}, log)
	if err := eventPublisher.Start(ctx); err != nil {
		log.Error("failed to start event publisher", logger.Error(err))
	}
	defer eventPublisher.Stop()

	if cfg.Directory.Enabled {
		syncer := reflectorlist.New(cfg.Directory.URL, time.Duration(cfg.Directory.SyncInterval)*time.Minute, directoryRepo, log.WithComponent("reflectorlist"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			syncer.Start(ctx)
		}()
	}

	relay, err := newRelay(cfg, metricsCollector, sessionRepo, log)
	if err != nil {
		log.Error("failed to initialize relay connections", logger.Error(err))
		os.Exit(1)
	}

	if cfg.Web.Enabled {
		webServer := web.NewServer(web.Config{Host: cfg.Web.Host, Port: cfg.Web.Port}, metricsCollector, log).
			WithRouter(relay.router).
			WithSessions(sessionRepo).
			WithStatusProvider(relay)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("monitoring dashboard error", logger.Error(err))
			}
		}()
	}

	if err := relay.Start(ctx, &wg); err != nil {
		log.Error("failed to start reflector connections", logger.Error(err))
		os.Exit(1)
	}

	select {
	case sig := <-sigCh:
		log.Info("received signal, shutting down", logger.String("signal", sig.String()))
	case <-ctx.Done():
	}

	cancel()
	relay.Shutdown(context.Background())
	wg.Wait()
	log.Info("m17-relay stopped")
}

// relay owns the set of configured reflector connections and the
// bridge links between them.
type relay struct {
	cfg     *config.Config
	metrics *metrics.Collector
	sess    *store.SessionRepository
	logger  *logger.Logger

	router  *bridge.Router
	clients map[string]*reflector.Client
}

func newRelay(cfg *config.Config, m *metrics.Collector, sess *store.SessionRepository, log *logger.Logger) (*relay, error) {
	r := &relay{
		cfg:     cfg,
		metrics: m,
		sess:    sess,
		logger:  log.WithComponent("relay"),
		router:  bridge.NewRouter(log),
		clients: make(map[string]*reflector.Client),
	}

	for name, rc := range cfg.Reflectors {
		if !rc.Enabled {
			continue
		}
		if len(rc.Module) != 1 {
			return nil, fmt.Errorf("reflector %q: module must be a single letter, got %q", name, rc.Module)
		}
		client, err := reflector.New(reflector.Config{
			Callsign:       cfg.Server.Callsign,
			Host:           rc.Host,
			Port:           rc.Port,
			Module:         rc.Module[0],
			ConnectTimeout: time.Duration(rc.ConnectTimeout) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("reflector %q: %w", name, err)
		}
		r.clients[name] = client
	}

	for name, rules := range cfg.Bridges {
		for i, rule := range rules {
			source, ok := r.clients[name]
			if !ok {
				return nil, fmt.Errorf("bridge %q: unknown source reflector", name)
			}
			target, ok := r.clients[rule.Reflector]
			if !ok {
				return nil, fmt.Errorf("bridge %q: unknown target reflector %q", name, rule.Reflector)
			}

			var aclRule *acl.ACL
			if cfg.ACL.Enabled {
				parsed, err := acl.Parse(cfg.ACL.Rule)
				if err != nil {
					return nil, fmt.Errorf("bridge %q: invalid ACL rule: %w", name, err)
				}
				aclRule = parsed
			}

			linkName := fmt.Sprintf("%s[%d]->%s", name, i, rule.Reflector)
			link := bridge.NewLink(linkName, name, rule.Reflector, target, aclRule, time.Duration(rule.Timeout)*time.Minute, m, log)
			r.router.AddLink(link, source)
		}
	}

	return r, nil
}

// Start dials every configured reflector connection in the
// background.
func (r *relay) Start(ctx context.Context, wg *sync.WaitGroup) error {
	for name, client := range r.clients {
		name, client := name, client
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := client.Connect(ctx); err != nil {
				r.logger.Error("reflector connect failed", logger.String("reflector", name), logger.Error(err))
				return
			}
			r.logger.Info("reflector connected", logger.String("reflector", name))
			r.metrics.ReflectorConnected(name)
			<-ctx.Done()
		}()
	}
	return nil
}

// Shutdown disconnects every reflector connection and stops bridge
// timers.
func (r *relay) Shutdown(ctx context.Context) {
	r.router.Shutdown(ctx)
	for name, client := range r.clients {
		if err := client.Disconnect(); err != nil {
			r.logger.Warn("error disconnecting reflector", logger.String("reflector", name), logger.Error(err))
		}
		r.metrics.ReflectorDisconnected(name)
	}
}

// ConnectionStatuses implements web.StatusProvider.
func (r *relay) ConnectionStatuses() []web.ConnectionStatus {
	out := make([]web.ConnectionStatus, 0, len(r.clients))
	for name, client := range r.clients {
		rc := r.cfg.Reflectors[name]
		out = append(out, web.ConnectionStatus{
			Name:   name,
			Host:   rc.Host,
			Module: rc.Module,
			State:  client.State().String(),
		})
	}
	return out
}
