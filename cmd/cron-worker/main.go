package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agromarket/agromarket-backend/internal/activity"
	"github.com/agromarket/agromarket-backend/internal/cron"
	"github.com/agromarket/agromarket-backend/pkg/config"
	"github.com/agromarket/agromarket-backend/pkg/db"
	"github.com/agromarket/agromarket-backend/pkg/instance"
	"github.com/agromarket/agromarket-backend/pkg/logger"
	"github.com/agromarket/agromarket-backend/pkg/metrics"
	"github.com/agromarket/agromarket-backend/pkg/migrate"
	"github.com/agromarket/agromarket-backend/pkg/redis"
	"github.com/agromarket/agromarket-backend/pkg/session"
)

const lockName = "cron-worker"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var lock cron.Lock = cron.NewLocalLock()
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		lock, err = cron.NewRedisLock(redisClient, redisClient.LockKey(lockKey(cfg.App.Env)), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create cron lock", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; run a single cron-worker replica")
	}

	service, err := buildService(cfg, logg, dbClient, lock)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, lock cron.Lock) (*cron.Service, error) {
	store, err := session.NewDBStore(dbClient.DB())
	if err != nil {
		return nil, err
	}
	activityService, err := activity.NewService(activity.ServiceParams{
		Repo:   activity.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		return nil, err
	}

	sweep, err := cron.NewSessionSweepJob(logg, store)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewActivityRetentionJob(logg, activityService, cfg.Cron.ActivityRetention)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweep, retention),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("%s:%s", lockName, env)
}
