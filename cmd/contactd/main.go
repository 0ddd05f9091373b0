// Package main runs the contact form gateway: an HTTP service that validates
// website contact submissions and forwards each accepted one to the office
// mailbox through the configured mail provider.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/LixenWraith/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"contactgate/internal/api"
	"contactgate/internal/config"
	"contactgate/internal/gateway"
	"contactgate/internal/logging"
	"contactgate/internal/mailer"
	"contactgate/internal/metrics"
	"contactgate/internal/ratelimit"
)

const appName = "contactd"

// service holds what survives a configuration reload.
type service struct {
	configPath string
	store      ratelimit.Store
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	log        logging.Logger
	handler    handlerSwap
}

// handlerSwap lets a reload replace the router under a running http.Server.
type handlerSwap struct {
	current atomic.Pointer[gin.Engine]
}

func (h *handlerSwap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.current.Load().ServeHTTP(w, r)
}

func main() {
	configPath := flag.String("config", config.Path(appName), "path to the configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, configExists, err := config.LoadFile(*configPath, appName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if !configExists {
		if err := config.SaveFile(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save configuration: %v\n", err)
		}
	}

	if err := logger.Init(ctx, &cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.Level != logger.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info(ctx, "Starting contact gateway",
		"addr", cfg.Server.Addr,
		"provider", cfg.Mail.Provider,
		"recipient", cfg.Mail.Recipient)

	svc := &service{
		configPath: *configPath,
		registry:   prometheus.NewRegistry(),
		log:        logging.Global(),
	}
	svc.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	svc.metrics = metrics.New(svc.registry)

	store, stopStore, err := newStore(ctx, cfg, svc.metrics, svc.log)
	if err != nil {
		logger.Error(ctx, "Failed to set up rate limit store", "error", err)
		shutdownLogger()
		os.Exit(1)
	}
	defer stopStore()
	svc.store = store

	if err := svc.build(ctx, cfg); err != nil {
		logger.Error(ctx, "Failed to build gateway", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      &svc.handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	go svc.handleSignals(ctx, cancel, sigChan)

	go func() {
		logger.Info(ctx, "Server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	// Create separate shutdown context
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.Info(shutdownCtx, "Initiating shutdown sequence")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Server shutdown error", "error", err)
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
}

func shutdownLogger() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := logger.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Logger shutdown error: %v\n", err)
	}
}

// newStore picks the shared redis store when a URL is configured and the
// swept in-memory store otherwise. The returned func releases it.
func newStore(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log logging.Logger) (ratelimit.Store, func(), error) {
	if cfg.Redis.URL != "" {
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "Using redis rate limit store", "addr", client.Options().Addr)
		return ratelimit.NewRedisStore(client, ""), func() { _ = client.Close() }, nil
	}

	store := ratelimit.NewMemoryStore()
	sweeper, err := ratelimit.NewSweeper(store, cfg.RateLimit.SweepSpec, log, m.SetRateLimitEntries)
	if err != nil {
		return nil, nil, err
	}
	sweeper.Start()
	logger.Info(ctx, "Using in-memory rate limit store", "sweep", cfg.RateLimit.SweepSpec)
	return store, sweeper.Stop, nil
}

// build assembles sender, gateway and router from cfg and swaps them in.
// The rate limit store and metrics are kept so counters survive a reload.
func (s *service) build(ctx context.Context, cfg *config.Config) error {
	sender, err := mailer.New(ctx, cfg.Mailer(), s.log)
	if err != nil {
		return fmt.Errorf("failed to create mail sender: %w", err)
	}
	if !sender.Enabled() {
		logger.Warn(ctx, "Mail provider credential missing, submissions will be refused", "provider", cfg.Mail.Provider)
	}

	gw := gateway.New(gateway.Settings{
		From:        cfg.Mail.From,
		Recipient:   cfg.Mail.Recipient,
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}, s.store, sender,
		gateway.WithLogger(s.log),
		gateway.WithMetrics(s.metrics),
	)

	router := api.NewRouter(gw, api.Config{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Gatherer:       s.registry,
		Logger:         s.log,
	})

	s.handler.current.Store(router)
	return nil
}

// handleSignals handles SIGHUP for config reload and SIGINT/SIGTERM for
// graceful shutdown.
func (s *service) handleSignals(ctx context.Context, cancel context.CancelFunc, sigChan chan os.Signal) {
	logger.Debug(ctx, "Starting signal handler")
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGHUP:
				if err := s.reload(ctx); err != nil {
					logger.Error(ctx, "Failed to reload configuration", "error", err)
				}
			case syscall.SIGINT, syscall.SIGTERM:
				logger.Info(ctx, "Received shutdown signal", "signal", sig.String())
				cancel()
				return
			}
		}
	}
}

// reload rereads the configuration, reinitializes the logger and rebuilds
// the pipeline. Listen address, timeouts and the rate limit store need a
// restart.
func (s *service) reload(ctx context.Context) error {
	newConfig, configExists, err := config.LoadFile(s.configPath, appName)
	if err != nil {
		return fmt.Errorf("failed to load new configuration: %w", err)
	}
	if !configExists {
		return fmt.Errorf("configuration file not found")
	}

	if err := logger.Init(ctx, &newConfig.Logging); err != nil {
		return fmt.Errorf("failed to reinitialize logger: %w", err)
	}

	if err := s.build(ctx, newConfig); err != nil {
		return err
	}

	logger.Info(ctx, "Configuration reloaded successfully")
	return nil
}
