package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockagents/internal/adapters/config"
	"stockagents/internal/adapters/errors/noop"
	"stockagents/internal/adapters/errors/sentry"
	"stockagents/internal/adapters/redis"
	"stockagents/internal/api/health"
	"stockagents/internal/metrics"
	"stockagents/internal/services/stockagent"
	"stockagents/pkg/errors"
	"stockagents/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	Execute()
}

// app holds everything built at startup and torn down on exit.
type app struct {
	cfg     *config.Config
	system  *stockagent.System
	tracker errors.Tracker
	redis   *redis.Client
	metrics *http.Server
	log     *logger.Logger
}

// bootstrap loads configuration and builds the agent system.
func bootstrap(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env, cfg.Agents.Verbose); err != nil {
		return nil, errors.Wrap(err, "init logger")
	}

	log := logger.Get()
	log.Debugf("Starting %s %s in %s mode", cfg.App.Name, version, cfg.App.Env)

	// Initialize error tracker
	tracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(tracker)

	a := &app{cfg: cfg, tracker: tracker, log: log}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Warnw("Redis unavailable, using in-memory tool cache", "addr", cfg.Redis.Addr(), "error", err)
		} else {
			a.redis = client
		}
	}

	metrics.Init()

	system, err := stockagent.New(ctx, cfg, stockagent.Options{
		Redis:   a.redis,
		Tracker: tracker,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	a.system = system

	if err := metrics.RegisterSessionCollector(metrics.NewSessionCollector(system)); err != nil {
		log.Warnw("Failed to register session collector", "error", err)
	}
	a.metrics = startMetricsServer(cfg.Metrics.Addr, a.healthHandler(), log)

	return a, nil
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled() {
		log.Debug("Error tracking disabled")
		return noop.NewLogging(log)
	}

	tracker, err := sentry.New(cfg.ErrorTracking, version)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.NewLogging(log)
	}

	log.Debug("Error tracking initialized (Sentry)")
	return tracker
}

// healthHandler reports whether the agents accept queries and, when
// configured, whether Redis answers.
func (a *app) healthHandler() *health.Handler {
	h := health.New(a.log, a.cfg.App.Name, version).
		Register("agents", func(context.Context) error {
			if !a.system.IsInitialized() {
				return errors.ErrNotInitialized
			}
			return nil
		})
	if a.redis != nil {
		h.Register("redis", a.redis.Health)
	}
	return h
}

// startMetricsServer serves /metrics and health probes on addr; empty addr disables it.
func startMetricsServer(addr string, h *health.Handler, log *logger.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health/live", h.HandleLiveness)
	mux.HandleFunc("/health/ready", h.HandleReadiness)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	log.Infow("Metrics endpoint listening", "addr", addr)
	return srv
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.metrics != nil {
		_ = a.metrics.Shutdown(ctx)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warnw("Failed to close Redis", "error", err)
		}
	}
	if a.tracker != nil {
		_ = a.tracker.Flush(ctx)
	}
	_ = logger.Sync()
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
