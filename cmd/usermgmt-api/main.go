// Command usermgmt-api serves the user management HTTP API.
//
// @title                       User Management API
// @version                     1.0
// @description                 Token-based authentication and role-gated user directory.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/cirestech/usermgmt/internal/api"
	"github.com/cirestech/usermgmt/internal/core/ports"
	"github.com/cirestech/usermgmt/internal/core/service"
	"github.com/cirestech/usermgmt/internal/infrastructure/config"
	"github.com/cirestech/usermgmt/internal/infrastructure/db/memory"
	mongodb "github.com/cirestech/usermgmt/internal/infrastructure/db/mongo"
	redisdb "github.com/cirestech/usermgmt/internal/infrastructure/db/redis"
	"github.com/cirestech/usermgmt/internal/infrastructure/http/handlers"
	"github.com/cirestech/usermgmt/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty && !cfg.IsProduction(),
		Service: "usermgmt-api",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		repo      ports.UserRepository
		readiness []handlers.Dependency
		limiter   service.LoginLimiter = service.NopLimiter{}
	)

	switch cfg.Store {
	case config.StoreMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		}()

		mongoRepo := mongodb.NewUserRepository(db)
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			return err
		}
		repo = mongoRepo
		readiness = append(readiness, handlers.Dependency{Name: "mongodb", Check: mongodb.Ping(db)})
		log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")
	default:
		repo = memory.NewUserRepository()
		log.Warn().Msg("using in-memory store, data is lost on restart")
	}

	if cfg.Redis.Addr != "" {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		limiter = redisdb.NewLoginLimiter(rdb, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockoutWindow)
		readiness = append(readiness, handlers.Dependency{Name: "redis", Check: redisdb.Ping(rdb)})
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttling enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, login throttling disabled")
	}

	tokens, err := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		return err
	}
	hasher := service.NewPasswordHasher(cfg.Auth.BcryptCost)
	log.Info().Dur("token_ttl", tokens.TTL()).Msg("token manager ready")

	users := service.NewUserService(repo, hasher, logger.For("users"))
	if err := users.EnsureDefaultAdmin(ctx, ports.DefaultAdmin{
		Username: cfg.DefaultAdmin.Username,
		Email:    cfg.DefaultAdmin.Email,
		Password: cfg.DefaultAdmin.Password,
	}); err != nil {
		return err
	}

	e := api.NewRouter(api.Deps{
		Auth:      service.NewAuthService(repo, hasher, tokens, limiter, logger.For("auth")),
		Users:     users,
		Import:    service.NewImportService(repo, hasher, logger.For("import")),
		Tokens:    tokens,
		Readiness: readiness,
		Log:       logger.For("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.Store).Msg("starting HTTP server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
