// Package server wires configuration, storage, token signing and both
// transports (REST and gRPC) into a runnable application with graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/socialnet/internal/logging"
	"github.com/dmitrijs2005/socialnet/internal/server/auth"
	"github.com/dmitrijs2005/socialnet/internal/server/config"
	"github.com/dmitrijs2005/socialnet/internal/server/httpapi"
	"github.com/dmitrijs2005/socialnet/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/socialnet/internal/server/services"

	gs "github.com/dmitrijs2005/socialnet/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	store          repomanager.RepositoryManager
	tokens         *auth.TokenManager
	accountService *services.AccountService
}

// NewApp validates c, opens the configured credential store, applies its
// migrations and builds the account service. Logs go to logOut as JSON.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {

	logger := logging.NewJSONLogger(logOut, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	store, err := openStore(c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := store.RunMigrations(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	tokens, err := auth.NewTokenManager(c.SigningConfig())
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("token manager error: %w", err)
	}

	as, err := services.NewAccountService(store.Accounts(), tokens, c.BcryptCost)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Info(ctx, "Storage ready", "backend", c.Storage)

	return &App{config: c, logger: logger, store: store, tokens: tokens, accountService: as}, nil
}

func openStore(c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.Storage {
	case config.StoragePostgres:
		return repomanager.OpenPostgres(c.DatabaseDSN)
	case config.StorageRedis:
		return repomanager.OpenRedis(c.RedisAddr, c.RedisPassword, c.RedisDB, c.RedisKeyPrefix), nil
	case config.StorageMemory:
		return repomanager.NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.Storage)
	}
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
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.accountService, app.tokens)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.accountService, app.tokens, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both transports until ctx is cancelled, a termination signal
// arrives or either server fails, then closes the store.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "closing store", "error", err.Error())
	}
	app.logger.Info(ctx, "App stopped")
}
