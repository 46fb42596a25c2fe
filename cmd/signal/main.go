package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatlink/internal/core/domain"
	"chatlink/internal/core/ports"
	"chatlink/internal/core/services"
	"chatlink/internal/infrastructure/distributed"
	"chatlink/internal/infrastructure/monitoring"
	repositories "chatlink/internal/infrastructure/repositories"
	redisrepo "chatlink/internal/infrastructure/repositories/redis"
	wsignal "chatlink/internal/infrastructure/signal"
	"chatlink/pkg/config"
	distributedlock "chatlink/pkg/distributed"
	"chatlink/pkg/logger"
	"chatlink/pkg/tracing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Try multiple config paths
	configPaths := []string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/chatlink/config.yaml",
		"config.yaml",
	}

	var cfg *config.Config
	var err error

	for _, path := range configPaths {
		cfg, err = config.Load(path)
		if err == nil {
			break
		}
	}

	if err != nil {
		// Fallback to defaults if config cannot be loaded
		cfg = config.DefaultConfig()
	}

	// Initialize logger
	zapLogger := logger.New(cfg.Logging.Level)
	defer zapLogger.Sync()

	log := zapLogger.Sugar()

	// Initialize tracing
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Warnw("failed to initialize tracing", "error", err)
	}

	// Initialize presence store (Redis mirror with memory fallback)
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	presenceStore := repoFactory.CreatePresenceStore()

	// Drop stale mirror entries left behind by a previous crash. The lock
	// keeps concurrently restarting instances from clearing each other's
	// freshly written entries.
	if client := repoFactory.RedisClient(); client != nil {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lock := distributedlock.NewDistributedLock(client, "chatlink:presence:cleanup", 30*time.Second)
		if acquired, err := lock.TryLock(cleanupCtx); err == nil && acquired {
			if err := redisrepo.NewRedisPresenceStore(client).Clear(cleanupCtx); err != nil {
				log.Warnw("failed to clear stale presence entries", "error", err)
			}
			if err := lock.Unlock(cleanupCtx); err != nil {
				log.Warnw("failed to release cleanup lock", "error", err)
			}
		}
		cancel()
	}

	// Initialize monitoring
	collector := monitoring.NewPrometheusCollector()

	// Initialize core services
	registry := services.NewConnectionRegistry()
	authService := services.NewAuthService(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	router := services.NewCallSignalRouter(registry, nil, collector, log)

	instanceID := uuid.New().String()

	// Cross-instance presence event bus (only with Redis available)
	var eventBus *distributed.EventBus
	var events services.PresenceEventPublisher
	if cfg.Presence.EventsEnabled {
		if client := repoFactory.RedisClient(); client != nil {
			eventBus = distributed.NewEventBus(client, instanceID, log)
			events = eventBus
		} else {
			log.Warn("presence events enabled but Redis is unavailable, running standalone")
		}
	}

	// The websocket server and the presence service reference each other:
	// the server feeds connect/disconnect into the service, the service
	// broadcasts through the server.
	var wsServer *wsignal.WebSocketServer
	broadcaster := ports.BroadcasterFunc(func(online []domain.UserID) {
		wsServer.BroadcastPresence(online)
	})
	presenceService := services.NewPresenceService(
		registry,
		presenceStore,
		broadcaster,
		events,
		log,
	)

	wsServer = wsignal.NewWebSocketServer(
		presenceService,
		router,
		authService,
		wsignal.Options{
			PingInterval:         cfg.Signal.PingInterval,
			PongTimeout:          cfg.Signal.PongTimeout,
			WriteTimeout:         cfg.Signal.WriteTimeout,
			ConnectionsPerMinute: wsConnectionsPerMinute(cfg),
			MessagesPerSecond:    wsMessagesPerSecond(cfg),
			MessageBurst:         wsMessageBurst(cfg),
			MaxMessageSizeBytes:  wsMaxMessageSize(cfg),
			RequireToken:         cfg.Auth.RequireHandshakeToken,
		},
		collector,
		log,
	)

	// Rebroadcast the mirror roster when another instance announces a change
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	if eventBus != nil {
		go func() {
			err := eventBus.Subscribe(rootCtx, func(event *distributed.Event) error {
				online, err := presenceStore.List(rootCtx)
				if err != nil {
					return err
				}
				wsServer.BroadcastPresence(online)
				return nil
			})
			if err != nil && rootCtx.Err() == nil {
				log.Errorw("presence event subscription failed", "error", err)
			}
		}()
	}

	// Setup HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.HandleWebSocket)
	mux.HandleFunc("/health", wsServer.HealthCheck)
	if cfg.Monitoring.PrometheusEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:    cfg.Signal.Address,
		Handler: mux,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting ChatLink coordinator on %s", cfg.Signal.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for shutdown signals or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down ChatLink coordinator...")
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Signal.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Errorw("Error closing event bus", "error", err)
		}
	}

	if tracerProvider != nil {
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Error shutting down tracer", "error", err)
		}
	}

	log.Info("ChatLink coordinator stopped")
}

func wsConnectionsPerMinute(cfg *config.Config) int {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.ConnectionsPerMinute
}

func wsMessagesPerSecond(cfg *config.Config) float64 {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.MessagesPerSecond
}

func wsMessageBurst(cfg *config.Config) int {
	if !cfg.RateLimiting.Enabled {
		return 0
	}
	return cfg.RateLimiting.WebSocket.Burst
}

func wsMaxMessageSize(cfg *config.Config) int64 {
	return cfg.RateLimiting.WebSocket.MaxMessageSizeBytes
}
