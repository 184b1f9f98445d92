package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/FabioDiCeglie/Trim-AI/internal/broker"
	"github.com/FabioDiCeglie/Trim-AI/internal/config"
	"github.com/FabioDiCeglie/Trim-AI/internal/crypto"
	httptransport "github.com/FabioDiCeglie/Trim-AI/internal/http"
	"github.com/FabioDiCeglie/Trim-AI/internal/http/handler"
	httpmiddleware "github.com/FabioDiCeglie/Trim-AI/internal/http/middleware"
	"github.com/FabioDiCeglie/Trim-AI/internal/repository"
	"github.com/FabioDiCeglie/Trim-AI/internal/server"
	"github.com/FabioDiCeglie/Trim-AI/internal/telemetry"
	"github.com/FabioDiCeglie/Trim-AI/internal/vault"
)

func main() {
	app := fx.New(
		fx.Provide(
			newConfig,
			newLogger,
			newTelemetry,
			newPGXPool,
			newConnectionStore,
			newCipher,
			newVault,
			newGCPBroker,
			newConnectHandler,
			handler.NewDemoHandler,
			newAuthMiddleware,
			httptransport.NewRouter,
			server.NewHTTPServer,
		),
		fx.Invoke(useTelemetry, startStoreSweeper, startHTTPServer),
	)

	app.Run()
}

func newConfig() (config.Config, error) {
	return config.Load()
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.Environment == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

func newTelemetry(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*telemetry.Provider, error) {
	provider, err := telemetry.New(context.Background(), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("telemetry init: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return provider.Shutdown(stopCtx)
		},
	})

	return provider, nil
}

func newPGXPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})

	return pool, nil
}

func newConnectionStore(pool *pgxpool.Pool) (*repository.PostgresConnectionStore, error) {
	store := repository.NewPostgresConnectionStore(pool)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newCipher(cfg config.Config) (*crypto.Cipher, error) {
	return crypto.NewCipher(cfg.EncryptionKey)
}

func newVault(cipher *crypto.Cipher, store *repository.PostgresConnectionStore, cfg config.Config, logger *zap.Logger) *vault.Vault {
	return vault.New(cipher, store, cfg.ConnectionTTL, cfg.StoreTimeout, logger)
}

func newGCPBroker(cfg config.Config, logger *zap.Logger) *broker.GCPBroker {
	return broker.NewGCPBroker(cfg, logger)
}

func newConnectHandler(v *vault.Vault, b *broker.GCPBroker) *handler.ConnectHandler {
	return handler.NewConnectHandler(v, b)
}

func newAuthMiddleware(v *vault.Vault) *httpmiddleware.Auth {
	return &httpmiddleware.Auth{Vault: v}
}

func startStoreSweeper(lc fx.Lifecycle, store *repository.PostgresConnectionStore, cfg config.Config, logger *zap.Logger) {
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.StoreSweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-runCtx.Done():
						return
					case <-ticker.C:
						removed, err := store.Sweep(runCtx)
						if err != nil {
							logger.Warn("connection sweep failed", zap.Error(err))
							continue
						}
						if removed > 0 {
							logger.Info("expired connections removed", zap.Int64("count", removed))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func startHTTPServer(lc fx.Lifecycle, srv *server.HTTPServer, cfg config.Config, logger *zap.Logger) {
	addr := ":" + cfg.HTTPPort
	var (
		cancel context.CancelFunc
		done   chan struct{}
	)

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runCtx, stop := context.WithCancel(context.Background())
			cancel = stop
			done = make(chan struct{})

			go func() {
				if err := srv.Run(runCtx, addr); err != nil {
					logger.Error("http server stopped", zap.Error(err))
				}
				close(done)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			if done == nil {
				return nil
			}
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

func useTelemetry(*telemetry.Provider) {}
