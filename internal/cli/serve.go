package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/signin-portal/internal/api"
	"github.com/99minutos/signin-portal/internal/core/ports"
	"github.com/99minutos/signin-portal/internal/core/service"
	"github.com/99minutos/signin-portal/internal/core/validation"
	"github.com/99minutos/signin-portal/internal/infrastructure/appwrite"
	"github.com/99minutos/signin-portal/internal/infrastructure/db/mongo"
	"github.com/99minutos/signin-portal/internal/infrastructure/db/redis"
	"github.com/99minutos/signin-portal/internal/infrastructure/localauth"
	"github.com/99minutos/signin-portal/internal/infrastructure/memory"
	"github.com/99minutos/signin-portal/internal/infrastructure/queue"
	"github.com/99minutos/signin-portal/internal/pkg/config"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.LoadWith(ctx, envconfig.OsLookuper())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(ctx, cfg, initLogger(cfg))
		},
	}
}

// backends are the stores and clients the sign-in service runs on.
type backends struct {
	mongoClient *mongodriver.Client
	mongoDB     *mongodriver.Database
	redis       *goredis.Client

	auth  ports.AuthClient
	store ports.UserStateStore
	vault ports.CredentialVault
	audit *queue.Dispatcher
}

func (b *backends) close(log zerolog.Logger) {
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if err := mongo.Disconnect(context.Background(), b.mongoClient); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect failed")
	}
}

func connectBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	b.mongoClient, b.mongoDB = client, db
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

	attempts := mongo.NewAttemptRepository(db)
	if err := attempts.EnsureIndexes(ctx); err != nil {
		b.close(log)
		return nil, err
	}
	b.audit = queue.NewDispatcher(cfg.AuditWorkers, attempts, log.With().Str("component", "audit").Logger())

	if cfg.NeedsRedis() {
		rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err != nil {
			b.close(log)
			return nil, err
		}
		b.redis = rdb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	switch cfg.StateStore {
	case config.StateStoreRedis:
		b.store = redis.NewUserStateStore(b.redis, cfg.Session.TTL)
		b.vault = redis.NewCredentialVault(b.redis, cfg.Session.TTL)
	default:
		b.store = memory.NewUserStateStore(cfg.Session.TTL)
		b.vault = memory.NewCredentialVault(cfg.Session.TTL)
	}

	switch cfg.AuthBackend {
	case config.AuthBackendLocal:
		accounts := mongo.NewAccountRepository(db)
		if err := accounts.EnsureIndexes(ctx); err != nil {
			b.close(log)
			return nil, err
		}
		b.auth = localauth.New(accounts, redis.NewTokenStore(b.redis, cfg.Local.SessionTTL))
	default:
		aw, err := appwrite.New(appwrite.Config{
			Endpoint:  cfg.Appwrite.Endpoint,
			ProjectID: cfg.Appwrite.ProjectID,
			APIKey:    cfg.Appwrite.APIKey,
			Timeout:   cfg.Appwrite.Timeout,
		})
		if err != nil {
			b.close(log)
			return nil, err
		}
		b.auth = aw
	}

	log.Info().
		Str("auth_backend", cfg.AuthBackend).
		Str("state_store", cfg.StateStore).
		Msg("backends ready")
	return b, nil
}

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = uuid.NewString() + uuid.NewString()
		log.Warn().Msg("SESSION_SECRET not set, using a random secret; sessions will not survive a restart")
	}

	b, err := connectBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	schema, err := validation.New()
	if err != nil {
		return err
	}
	svc := service.NewSignInService(b.auth, b.store, b.vault, b.audit, log)

	e, err := api.NewRouter(api.Deps{
		Config: cfg,
		SignIn: svc,
		Schema: schema,
		Mongo:  b.mongoDB,
		Redis:  b.redis,
		Log:    log,
	})
	if err != nil {
		return err
	}
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	// Audit workers outlive the HTTP server so the last requests are recorded.
	workerCtx, stopWorkers := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorkers()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.audit.Run(workerCtx)
	})
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("http server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := e.Shutdown(shutdownCtx)
		stopWorkers()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}
