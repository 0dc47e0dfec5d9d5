package cmd

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dayflow/dayflow/internal/config"
	errwrap "github.com/dayflow/dayflow/internal/errors"
	"github.com/dayflow/dayflow/internal/llm/openai"
	"github.com/dayflow/dayflow/internal/observability"
	"github.com/dayflow/dayflow/internal/planner"
	"github.com/dayflow/dayflow/internal/ratelimit"
	"github.com/dayflow/dayflow/internal/ratelimit/store"
	"github.com/dayflow/dayflow/internal/server"
	"github.com/dayflow/dayflow/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// providerHealthChecker verifies the completion provider is configured.
type providerHealthChecker struct {
	apiKey string
}

func (p providerHealthChecker) CheckHealth(ctx context.Context) error {
	if strings.TrimSpace(p.apiKey) == "" {
		return errwrap.NewConfigInvalidError("provider api key not configured")
	}
	return nil
}

// storeHealthChecker verifies the rate-record registry is reachable.
type storeHealthChecker struct {
	redis *store.Redis
}

func (s storeHealthChecker) CheckHealth(ctx context.Context) error {
	if s.redis == nil {
		// In-memory registry has no external dependency.
		return nil
	}
	if err := s.redis.Ping(ctx); err != nil {
		return errwrap.NewServiceUnavailableError("rate-limit store unreachable")
	}
	return nil
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (rate limits and log level only)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := appConfig
		if cfg == nil {
			cfg = config.GetConfig()
		}

		host := cfg.Server.Host
		port := cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serverHost
		}
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		observability.InitServerLogger("dayflow", cfg.Logging.Level)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics("dayflow", cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		logger.Info("Initializing server",
			zap.String("service", "dayflow"),
			zap.String("version", versionInfo.Version),
			zap.String("host", host),
			zap.Int("port", port),
			zap.String("store_backend", cfg.Store.Backend),
			zap.String("model", cfg.Provider.Model))

		// Rate-record registry: in-memory by default, redis when scaling
		// beyond one instance.
		var (
			recordStore store.Store
			redisStore  *store.Redis
		)
		if strings.EqualFold(cfg.Store.Backend, "redis") {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Store.RedisAddr,
				Password: cfg.Store.RedisPassword,
				DB:       cfg.Store.RedisDB,
			})
			redisStore = store.NewRedis(client)
			recordStore = redisStore

			pingCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := redisStore.Ping(pingCtx); err != nil {
				logger.Warn("Redis unreachable at startup; rate limiting will fail open until it recovers",
					zap.String("addr", cfg.Store.RedisAddr),
					zap.Error(err))
			}
		} else {
			recordStore = store.NewMemory()
		}

		limiter := ratelimit.New(recordStore)

		driver := openai.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey)
		driver.Timeout = cfg.Provider.Timeout
		if strings.TrimSpace(cfg.Provider.APIKey) == "" {
			logger.Warn("No provider API key configured; chat requests will fail")
		}

		pipeline := planner.New(driver, limiter, planner.Config{
			Model: cfg.Provider.Model,
			SessionLimit: ratelimit.Options{
				MaxRequestsPerWindow: cfg.Admission.SessionMaxPerHour,
				MinInterval:          cfg.Admission.MinInterval,
			},
			IPLimit: ratelimit.Options{
				MaxRequestsPerWindow: cfg.Admission.IPMaxPerHour,
				MinInterval:          cfg.Admission.MinInterval,
			},
		}, logger)
		handlers.SetPlanner(pipeline)

		// Health manager
		hm := handlers.InitHealthManager(versionInfo.Version)
		hm.RegisterChecker("provider", providerHealthChecker{apiKey: cfg.Provider.APIKey})
		hm.RegisterChecker("rate_store", storeHealthChecker{redis: redisStore})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		srv := server.New(host, port, server.Timeouts{
			Read:  cfg.Server.ReadTimeout,
			Write: cfg.Server.WriteTimeout,
			Idle:  cfg.Server.IdleTimeout,
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Flush logger (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		// Handler 2: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			reloaded, err := config.Load(cfgFile)
			if err != nil {
				logger.Error("Failed to reload config", zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			// Limiter quotas and intervals take effect per-request; the
			// listener and store keep their boot-time settings.
			pipeline := planner.New(driver, limiter, planner.Config{
				Model: reloaded.Provider.Model,
				SessionLimit: ratelimit.Options{
					MaxRequestsPerWindow: reloaded.Admission.SessionMaxPerHour,
					MinInterval:          reloaded.Admission.MinInterval,
				},
				IPLimit: ratelimit.Options{
					MaxRequestsPerWindow: reloaded.Admission.IPMaxPerHour,
					MinInterval:          reloaded.Admission.MinInterval,
				},
			}, logger)
			handlers.SetPlanner(pipeline)

			logger.Info("Configuration reloaded successfully")
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			logger.Info("Starting HTTP server...",
				zap.String("host", host),
				zap.Int("port", port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")
}
