package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/sampleapi/users-service/internal/auth"
	"github.com/sampleapi/users-service/internal/config"
	"github.com/sampleapi/users-service/internal/handler"
	"github.com/sampleapi/users-service/internal/identity"
	"github.com/sampleapi/users-service/internal/logger"
	"github.com/sampleapi/users-service/internal/pagination"
	"github.com/sampleapi/users-service/internal/repository"
	"github.com/sampleapi/users-service/internal/repository/memory"
	"github.com/sampleapi/users-service/internal/repository/postgres"
	"github.com/sampleapi/users-service/internal/service"
	"github.com/sampleapi/users-service/migrations"
)

type storage struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tx     repository.TxManager
	pinger repository.Pinger
	close  func()
}

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config loading failed: %v", err)
	}

	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("logger initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped with error")
	}
	appLogger.Info().Msg("service stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	store, err := openStorage(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer store.close()

	idp := identity.NewManager(store.users, store.roles, appLogger)
	users := service.NewUserService(store.users, idp, store.tx, cfg.Users.DefaultTenantID, appLogger)
	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, time.Duration(cfg.Auth.TokenTTL)*time.Minute)

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestID(), handler.RequestLogger(appLogger))
	handler.Register(r, handler.Deps{
		Storage:        store.pinger,
		Users:          users,
		Authn:          authn.Authenticate(),
		Pagination:     pagination.Bounds{MinLimit: cfg.Pagination.MinLimit, MaxLimit: cfg.Pagination.MaxLimit},
		RequestTimeout: time.Duration(cfg.App.RequestTimeout) * time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("storage", cfg.Storage.Driver).Msg("service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) (storage, error) {
	if cfg.Storage.Driver == "memory" {
		appLogger.Warn().Msg("using in-memory storage; data is lost on restart")
		roles := memory.NewSeededRoleStore()
		return storage{
			users:  memory.NewUserStore(roles),
			roles:  roles,
			tx:     memory.TxManager{},
			pinger: memory.Pinger{},
			close:  func() {},
		}, nil
	}

	pool, err := postgres.Connect(ctx, cfg.Postgres, appLogger)
	if err != nil {
		return storage{}, err
	}
	if cfg.Postgres.AutoMigrate {
		if err := migrations.Up(ctx, pool); err != nil {
			pool.Close()
			return storage{}, fmt.Errorf("migrate: %w", err)
		}
		appLogger.Info().Msg("migrations applied")
	}
	return storage{
		users:  postgres.NewUserRepository(pool),
		roles:  postgres.NewRoleRepository(pool),
		tx:     postgres.NewTxManager(pool),
		pinger: postgres.NewPinger(pool),
		close:  pool.Close,
	}, nil
}
