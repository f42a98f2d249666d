// cmd/bridge/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"fiscal-bridge/internal/backend"
	"fiscal-bridge/internal/config"
	"fiscal-bridge/internal/gateway"
	"fiscal-bridge/internal/model"
	"fiscal-bridge/internal/provider"
	"fiscal-bridge/internal/routes"
	"fiscal-bridge/internal/service"
	"fiscal-bridge/internal/utils"
)

// Application represents the bridge process: one backend, one fiscal
// device, three timers.
type Application struct {
	config  *config.Config
	logger  *zap.Logger
	session *model.BridgeSession

	backend          *backend.Client
	providerRegistry *provider.Registry
	gateway          *gateway.Gateway

	processor *service.Processor
	poller    *service.Poller
	syncer    *service.ShiftSynchronizer
	heartbeat *service.Heartbeat

	statusServer *http.Server

	stopCh  chan struct{}
	fatalCh chan error
	wg      sync.WaitGroup
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	os.Exit(app.Run())
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(cfg.Logging())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "fiscal-bridge")
	serviceLogger.LogServiceStart(cfg.Version)

	app := &Application{
		config:  cfg,
		logger:  logger,
		session: model.NewBridgeSession(cfg.PollInterval(), cfg.HeartbeatInterval()),
		stopCh:  make(chan struct{}),
		fatalCh: make(chan error, 1),
	}

	app.initializeClients()
	app.initializeServices()
	app.initializeStatusServer()

	return app, nil
}

// initializeClients sets up the backend client, provider registry and
// printer gateway
func (app *Application) initializeClients() {
	app.backend = backend.NewClient(
		app.config.APIURL,
		app.config.Token,
		app.config.Version,
		app.config.BackendTimeout(),
		app.logger,
	)

	app.providerRegistry = provider.NewRegistry(app.logger)
	provider.RegisterDefaultProviders(app.providerRegistry, app.logger)

	app.gateway = gateway.New(app.providerRegistry, app.config.DeviceTimeout(), app.logger)

	app.logger.Info("Clients initialized",
		zap.String("backend", app.config.APIURL),
		zap.String("printer", app.config.PrinterURL()),
	)
}

// initializeServices creates the timer-driven services
func (app *Application) initializeServices() {
	app.syncer = service.NewShiftSynchronizer(app.backend, app.gateway, app.providerRegistry, app.logger)
	app.heartbeat = service.NewHeartbeat(app.backend, app.logger)
	app.processor = service.NewProcessor(app.backend, app.gateway, app.providerRegistry, app.syncer, app.logger)
	app.poller = service.NewPoller(app.backend, app.processor, app.session, app.logger)

	app.logger.Info("Services initialized")
}

// initializeStatusServer sets up the loopback status HTTP server
func (app *Application) initializeStatusServer() {
	if !app.config.StatusEnabled {
		return
	}

	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.session,
		app.gateway,
		app.poller,
		app.heartbeat,
		app.syncer,
	)

	app.statusServer = &http.Server{
		Addr:         app.config.StatusAddr,
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	app.logger.Info("Status server initialized",
		zap.String("address", app.config.StatusAddr),
	)
}

// Run drives the process: register, start timers, wait for a signal or
// a fatal error. Returns the process exit code.
func (app *Application) Run() int {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Registration retries at a fixed delay: this is a long-lived local
	// process, not a burst workload. A credential rejection is fatal.
	for {
		err := app.register()
		if err == nil {
			break
		}
		if model.IsFatal(err) {
			app.logger.Error("Registration rejected, terminating", zap.Error(err))
			app.close()
			return 1
		}

		app.logger.Warn("Registration failed, retrying",
			zap.Error(err),
			zap.Duration("retry_in", app.config.RegisterRetryDelay()),
		)

		select {
		case <-time.After(app.config.RegisterRetryDelay()):
		case sig := <-quit:
			app.logger.Info("Received shutdown signal during registration",
				zap.String("signal", sig.String()),
			)
			app.close()
			return 0
		}
	}

	app.printBanner()
	app.startTimers()
	app.startStatusServer()

	select {
	case sig := <-quit:
		app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		app.shutdown()
		return 0
	case err := <-app.fatalCh:
		app.logger.Error("Fatal error, terminating", zap.Error(err))
		app.shutdown()
		return 1
	}
}

// register performs one registration attempt
func (app *Application) register() error {
	ctx, cancel := context.WithTimeout(context.Background(), app.config.BackendTimeout())
	defer cancel()

	resp, err := app.backend.Register(ctx)
	if err != nil {
		return err
	}

	app.session.Register(
		resp.AccountID,
		resp.BridgeName,
		time.Duration(resp.PollIntervalMs)*time.Millisecond,
	)

	app.logger.Info("Bridge registered",
		zap.String("account_id", resp.AccountID),
		zap.String("bridge_name", resp.BridgeName),
		zap.Duration("poll_interval", app.session.PollInterval()),
	)
	return nil
}

// printBanner prints a human-readable status banner after registration
func (app *Application) printBanner() {
	fmt.Println("========================================")
	fmt.Printf("  %s %s\n", app.config.AppName, app.config.Version)
	fmt.Println("----------------------------------------")
	fmt.Printf("  Account:    %s\n", app.session.AccountID())
	fmt.Printf("  Bridge:     %s\n", app.session.BridgeName())
	fmt.Printf("  Backend:    %s\n", app.config.APIURL)
	fmt.Printf("  Printer:    %s\n", app.config.PrinterURL())
	fmt.Printf("  Poll every: %s\n", app.session.PollInterval())
	fmt.Println("========================================")
}

// startTimers starts the poll, heartbeat and shift-sync loops. Timers
// only run once registration has succeeded.
func (app *Application) startTimers() {
	app.startLoop("poll", app.session.PollInterval(), func(ctx context.Context) error {
		return app.poller.Tick(ctx)
	})
	app.startLoop("heartbeat", app.session.HeartbeatInterval(), func(ctx context.Context) error {
		app.heartbeat.RunOnce(ctx)
		return nil
	})
	app.startLoop("shift-sync", app.config.ShiftSyncInterval(), func(ctx context.Context) error {
		app.syncer.RunOnce(ctx)
		return nil
	})

	app.logger.Info("Timers started")
}

// startLoop runs one repeating task until shutdown. A tick that returns
// an error or panics stops the whole process: timers must never keep
// running against a half-dead bridge.
func (app *Application) startLoop(name string, interval time.Duration, tick func(ctx context.Context) error) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		app.logger.Info("Timer started",
			zap.String("timer", name),
			zap.Duration("interval", interval),
		)

		for {
			select {
			case <-app.stopCh:
				return
			case <-ticker.C:
				if err := app.runTick(name, tick); err != nil {
					app.reportFatal(err)
					return
				}
			}
		}
	}()
}

// runTick executes one tick with a bounded context and panic recovery
func (app *Application) runTick(name string, tick func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("Panic in timer tick",
				zap.String("timer", name),
				zap.Any("panic", r),
				zap.Stack("stacktrace"),
			)
			err = fmt.Errorf("panic in %s tick: %v", name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	return tick(ctx)
}

// reportFatal hands a fatal error to the run loop exactly once
func (app *Application) reportFatal(err error) {
	select {
	case app.fatalCh <- err:
	default:
	}
}

// startStatusServer starts the loopback status HTTP server
func (app *Application) startStatusServer() {
	if app.statusServer == nil {
		return
	}

	go func() {
		app.logger.Info("Starting status server",
			zap.String("address", app.statusServer.Addr),
		)
		if err := app.statusServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("Status server failed", zap.Error(err))
		}
	}()
}

// shutdown stops all timers, marks the session unregistered and flushes
// the logger
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "fiscal-bridge")
	serviceLogger.LogServiceStop("shutdown requested")

	close(app.stopCh)
	app.wg.Wait()

	if app.statusServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.statusServer.Shutdown(ctx); err != nil {
			app.logger.Error("Status server shutdown error", zap.Error(err))
		}
	}

	app.session.Reset()

	app.logger.Info("Bridge shutdown completed")
	app.close()
}

// close flushes the logger
func (app *Application) close() {
	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}
