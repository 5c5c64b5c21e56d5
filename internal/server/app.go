// Package server wires the vault server together: storage backend, session
// manager, services, the gRPC endpoint and the metrics endpoint. It also
// handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/pmcloud/internal/logging"
	"github.com/dmitrijs2005/pmcloud/internal/server/auth"
	"github.com/dmitrijs2005/pmcloud/internal/server/config"
	"github.com/dmitrijs2005/pmcloud/internal/server/metrics"
	"github.com/dmitrijs2005/pmcloud/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pmcloud/internal/server/services"
	"github.com/dmitrijs2005/pmcloud/internal/server/sessions"

	gs "github.com/dmitrijs2005/pmcloud/internal/server/grpc"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config         *config.Config
	logger         logging.Logger
	store          repomanager.RepositoryManager
	metrics        *metrics.Metrics
	accountService *services.AccountService
	syncService    *services.SyncService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	store, err := repomanager.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()
	locks := sessions.NewManager(store.Accounts(), logger, sessions.WithRecorder(m))

	as := services.NewAccountService(store.Accounts(), c.DefaultAccountName, logger)
	ss := services.NewSyncService(auth.NewGate(store.Accounts()), locks, store.Credentials(), logger)

	logger.Info(ctx, "Store ready", "backend", c.StoreBackend)

	return &App{config: c, logger: logger, store: store, metrics: m, accountService: as, syncService: ss}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accountService, app.syncService, app.config.SecretKey,
		gs.WithUnaryInterceptors(app.metrics.UnaryServerInterceptor),
		gs.WithAuthRateLimit(app.config.AuthRateLimit, app.config.AuthRateBurst),
		gs.WithRequestTimeout(app.config.RequestTimeout),
	)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startMetricsServer(ctx context.Context) *http.Server {
	if app.config.MetricsAddr == "" {
		return nil
	}
	srv, ln, err := metrics.StartServer(app.config.MetricsAddr, app.metrics.Handler(), app.logger)
	if err != nil {
		app.logger.Warn(ctx, "metrics endpoint disabled", "error", err)
		return nil
	}
	app.logger.Info(ctx, "Serving metrics", "address", ln.Addr().String())
	return srv
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	metricsSrv := app.startMetricsServer(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Warn(shutdownCtx, "metrics shutdown", "error", err)
		}
	}

	if err := app.store.Close(); err != nil {
		app.logger.Warn(shutdownCtx, "store close", "error", err)
	}

	app.logger.Info(shutdownCtx, "Stopped")
}
