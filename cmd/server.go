package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doctors-portal/internal/data/repository"
	"doctors-portal/internal/data/repository/memstore"
	"doctors-portal/internal/data/repository/mongostore"
	"doctors-portal/internal/usecase"
	"doctors-portal/internal/wire"
	"doctors-portal/pkg/cache"
	"doctors-portal/pkg/database"
	"doctors-portal/pkg/mq"
	"doctors-portal/pkg/payment"
	"doctors-portal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := utils.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.InitLogger(config.App.Name, config.App.LogPath, config.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v. Using production defaults.\n", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.String("storage", config.Storage.Driver),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openStorage(ctx, config, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	deps, closeDeps := openDeps(config, logger)
	defer closeDeps()

	app := wire.Wiring(repo, deps, config, logger)

	return APIServer(ctx, app.Router, config.App.Port, config.App.ShutdownTimeout, logger)
}

// openStorage returns the repository set for the configured driver and a func releasing its connections.
func openStorage(ctx context.Context, config *utils.Config, logger *zap.Logger) (*repository.Repository, func(), error) {
	switch config.Storage.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		return memstore.New(repository.DefaultCatalog()...).Repository(), func() {}, nil

	case "mongo":
		client, db, err := database.InitMongo(config.Mongo)
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		store := mongostore.New(client, db, logger)
		if err := store.Migrate(ctx, repository.DefaultCatalog()); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, fmt.Errorf("prepare mongo: %w", err)
		}
		logger.Info("MongoDB connected", zap.String("database", config.Mongo.Database))
		return store.Repository(), func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("Mongo disconnect failed", zap.Error(err))
			}
		}, nil

	case "", "postgres":
		db, err := database.InitDB(config.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		applied, err := database.NewMigrator(db).Up(ctx)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("Database connected successfully", zap.Int("migrations_applied", applied))
		return repository.NewRepository(db, logger), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
}

// openDeps connects the optional cache, broker and payment provider.
// Anything not configured is left nil so the services fall back.
func openDeps(config *utils.Config, logger *zap.Logger) (usecase.Deps, func()) {
	var deps usecase.Deps
	var closers []func()

	if config.Redis.Addr != "" {
		client, err := database.InitRedis(config.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, availability cache disabled", zap.Error(err))
		} else {
			deps.Cache = cache.NewRedisCache(client, config.App.Name)
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	if config.RabbitMQ.URL != "" {
		pub, err := mq.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
			deps.Publisher = mq.NoopPublisher{}
		} else {
			deps.Publisher = pub
			closers = append(closers, func() { _ = pub.Close() })
		}
	} else {
		deps.Publisher = mq.NoopPublisher{}
	}

	gateway, err := payment.NewStripeGateway(config.Payment.StripeSecretKey)
	if err != nil {
		logger.Warn("Payment gateway not configured", zap.Error(err))
	} else {
		deps.Gateway = gateway
	}

	return deps, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// APIServer serves route on port until ctx is cancelled, then drains in-flight requests.
func APIServer(ctx context.Context, route *chi.Mux, port string, shutdownTimeout time.Duration, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           route,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	logger.Info("Shutting down server", zap.Duration("timeout", shutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}
