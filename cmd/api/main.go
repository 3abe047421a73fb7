package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/agromarket/agromarket-backend/api/controllers"
	"github.com/agromarket/agromarket-backend/api/middleware"
	"github.com/agromarket/agromarket-backend/api/routes"
	"github.com/agromarket/agromarket-backend/internal/activity"
	"github.com/agromarket/agromarket-backend/internal/analytics"
	"github.com/agromarket/agromarket-backend/internal/auth"
	"github.com/agromarket/agromarket-backend/internal/cart"
	"github.com/agromarket/agromarket-backend/internal/catalog"
	"github.com/agromarket/agromarket-backend/internal/cron"
	"github.com/agromarket/agromarket-backend/internal/orders"
	"github.com/agromarket/agromarket-backend/internal/users"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/instance"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/metrics"
	"github.com/agromarket/agromarket-backend/pkg/migrate"
	"github.com/agromarket/agromarket-backend/pkg/redis"
	"github.com/agromarket/agromarket-backend/pkg/session"
	"github.com/agromarket/agromarket-backend/pkg/storage/s3"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	var closers []io.Closer
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i].Close())
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	closers = append(closers, dbClient)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("run dev migrations: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	readiness := map[string]controllers.Pinger{"db": dbClient}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		closers = append(closers, redisClient)
		readiness["redis"] = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; session cache and auth rate limiting disabled")
	}

	dbStore, err := session.NewDBStore(dbClient.DB(), session.WithRefreshWindow(cfg.Session.IdleTimeout))
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	var sessionStore session.Store = dbStore
	if redisClient != nil && cfg.Session.CacheEnabled {
		cached, err := session.NewCachedStore(dbStore, redisClient, logg, metrics.NewSessionCacheMetrics(registry))
		if err != nil {
			return fmt.Errorf("session cache: %w", err)
		}
		sessionStore = cached
	}
	sessionManager, err := session.NewManager(sessionStore, cfg.Session.IdleTimeout)
	if err != nil {
		return fmt.Errorf("session manager: %w", err)
	}

	storageClient, err := s3.NewClient(ctx, cfg.Storage, logg)
	if err != nil {
		return fmt.Errorf("bootstrap object storage: %w", err)
	}
	if cfg.Storage.CreateBucket {
		if err := storageClient.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
	}
	readiness["storage"] = storageClient

	activityService, err := activity.NewService(activity.ServiceParams{
		Repo:   activity.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return fmt.Errorf("activity service: %w", err)
	}

	userRepo := users.NewRepository(dbClient.DB())
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Activity:       activityService,
	})
	if err != nil {
		return fmt.Errorf("auth service: %w", err)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		PasswordConfig: cfg.Password,
		Activity:       activityService,
	})
	if err != nil {
		return fmt.Errorf("register service: %w", err)
	}

	if cfg.Admin.SeedEnabled {
		if err := auth.SeedAdmin(ctx, dbClient, cfg.Admin, cfg.Password, logg); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	usersService, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Activity:       activityService,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("users service: %w", err)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:      catalog.NewRepository(dbClient.DB()),
		Images:    storageClient,
		KeyPrefix: cfg.Media.KeyPrefix,
		Logger:    logg,
	})
	if err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		DB:       dbClient,
		Activity: activityService,
	})
	if err != nil {
		return fmt.Errorf("cart service: %w", err)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:       dbClient,
		Repo:     orders.NewRepository(dbClient.DB()),
		Activity: activityService,
		Metrics:  metrics.NewOrderMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		return fmt.Errorf("orders service: %w", err)
	}

	analyticsService, err := analytics.NewService(analytics.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("analytics service: %w", err)
	}

	if cfg.Cron.Embedded {
		jobs, err := newCronService(cfg, logg, registry, dbStore, activityService)
		if err != nil {
			return err
		}
		go func() {
			if err := jobs.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logg.Error(ctx, "background jobs stopped", err)
			}
		}()
	}

	var rateStore middleware.RateLimitStore
	if redisClient != nil {
		rateStore = redisClient
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		readiness,
		rateStore,
		metrics.NewHTTPMetrics(registry),
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		session.NewCookies(cfg.Session),
		authService,
		registerService,
		usersService,
		catalogService,
		cartService,
		ordersService,
		activityService,
		analyticsService,
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newCronService runs housekeeping in-process with a process-local lock.
func newCronService(cfg *config.Config, logg *logger.Logger, reg prometheus.Registerer, store *session.DBStore, activityService activity.Service) (*cron.Service, error) {
	sweep, err := cron.NewSessionSweepJob(logg, store)
	if err != nil {
		return nil, fmt.Errorf("session sweep job: %w", err)
	}
	retention, err := cron.NewActivityRetentionJob(logg, activityService, cfg.Cron.ActivityRetention)
	if err != nil {
		return nil, fmt.Errorf("activity retention job: %w", err)
	}
	svc, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep, retention),
		Lock:     cron.NewLocalLock(),
		Metrics:  metrics.NewCronJobMetrics(reg),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return nil, fmt.Errorf("cron service: %w", err)
	}
	return svc, nil
}
