package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/api"
	"github.com/derivs-back/internal/cache"
	"github.com/derivs-back/internal/database"
	"github.com/derivs-back/internal/external"
	"github.com/derivs-back/internal/messaging"
	"github.com/derivs-back/internal/services"
	"github.com/derivs-back/internal/websocket"
	"github.com/derivs-back/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.Config
	logger *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Core components
	vendorClient *external.Client
	influxDB     *database.InfluxClient
	mysqlDB      *database.MySQLClient
	redisCache   *cache.RedisClient
	natsClient   *messaging.NATSClient
	hub          *websocket.Hub

	// Services
	refresh   *services.RefreshService
	flowSync  *services.FlowSyncService
	apiServer *api.Server
}

// New creates a new application instance
func New(cfg *config.Config, logger *logrus.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Initialize initializes all application components
func (a *App) Initialize() error {
	if err := a.initializeDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := a.initializeCache(); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	if err := a.initializeMessaging(); err != nil {
		return fmt.Errorf("failed to initialize messaging: %w", err)
	}

	if err := a.initializeServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.initializeAPIServer(); err != nil {
		return fmt.Errorf("failed to initialize API server: %w", err)
	}

	return nil
}

// Start starts the application
func (a *App) Start() error {
	// Start the stream hub before the refresh service so the first
	// analytics pass is already visible to connected clients
	if err := a.hub.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start stream hub: %w", err)
	}

	if err := a.refresh.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start refresh service: %w", err)
	}

	if err := a.flowSync.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start flow sync: %w", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.apiServer.Start(); err != nil {
			if err != http.ErrServerClosed {
				a.logger.WithError(err).Error("API server error")
			}
		}
	}()

	return nil
}

// Stop gracefully stops the application
func (a *App) Stop() error {
	a.logger.Info("Stopping application...")

	// Cancel context to signal shutdown
	a.cancel()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("All goroutines stopped")
	case <-time.After(3 * time.Second):
		a.logger.Warn("Timeout waiting for goroutines to finish")
	}

	a.stopServicesWithTimeout()

	if err := a.closeConnections(); err != nil {
		a.logger.WithError(err).Error("Error closing connections")
	}

	a.logger.Info("Application stopped successfully")
	return nil
}

// stopServicesWithTimeout stops each service with a timeout
func (a *App) stopServicesWithTimeout() {
	if a.apiServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Error("Error stopping API server")
		}
		cancel()
	}

	if a.refresh != nil {
		if err := a.refresh.Stop(); err != nil {
			a.logger.WithError(err).Error("Error stopping refresh service")
		}
	}

	if a.flowSync != nil {
		if err := a.flowSync.Stop(); err != nil {
			a.logger.WithError(err).Error("Error stopping flow sync")
		}
	}

	if a.hub != nil {
		a.hub.Stop()
	}
}

// GetContext returns the application context
func (a *App) GetContext() context.Context {
	return a.ctx
}

// GetConfig returns the application configuration
func (a *App) GetConfig() *config.Config {
	return a.cfg
}

// GetLogger returns the application logger
func (a *App) GetLogger() *logrus.Logger {
	return a.logger
}

// Private initialization methods

func (a *App) initializeDatabase() error {
	mysqlClient, err := database.NewMySQLClient(&a.cfg.MySQL, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	a.mysqlDB = mysqlClient

	if err := a.mysqlDB.Migrate(a.ctx); err != nil {
		return fmt.Errorf("failed to migrate MySQL schema: %w", err)
	}

	a.influxDB = database.NewInfluxClient(&a.cfg.InfluxDB, a.logger)

	if err := a.influxDB.Health(a.ctx); err != nil {
		return fmt.Errorf("failed to connect to InfluxDB: %w", err)
	}

	return nil
}

func (a *App) initializeCache() error {
	redisClient, err := cache.NewRedisClient(&a.cfg.Redis, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	a.redisCache = redisClient

	return nil
}

func (a *App) initializeMessaging() error {
	natsClient, err := messaging.NewNATSClient(&a.cfg.NATS, a.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.natsClient = natsClient

	return nil
}

func (a *App) initializeServices() error {
	a.vendorClient = external.NewClient(&a.cfg.Vendor, a.logger)

	a.refresh = services.NewRefreshService(
		a.vendorClient,
		a.redisCache,
		a.influxDB,
		a.natsClient,
		&a.cfg.Analytics,
		a.logger,
	)

	a.flowSync = services.NewFlowSyncService(
		a.vendorClient,
		a.mysqlDB,
		&a.cfg.Analytics,
		a.logger,
	)

	a.hub = websocket.NewHub(a.natsClient, &a.cfg.WebSocket, a.logger)

	return nil
}

func (a *App) initializeAPIServer() error {
	a.apiServer = api.NewServer(
		a.cfg,
		a.logger,
		a.influxDB,
		a.mysqlDB,
		a.redisCache,
		a.natsClient,
		a.flowSync,
		a.hub,
	)

	return nil
}

func (a *App) closeConnections() error {
	var errs []error

	if a.mysqlDB != nil {
		if err := a.mysqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close MySQL: %w", err))
		}
	}

	if a.influxDB != nil {
		a.influxDB.Close()
	}

	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if a.natsClient != nil {
		if err := a.natsClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close NATS: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}

	return nil
}
