package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/napoleon/internal/bootstrap"
	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/logger"
	"github.com/benvon/napoleon/internal/services/profile"
	"github.com/benvon/napoleon/internal/services/tasks"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/benvon/napoleon/internal/telemetry"
	"github.com/benvon/napoleon/internal/workers"
	"go.uber.org/zap"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging (including LLM request logging)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("worker", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("daily_reschedule_at", cfg.DailyRescheduleAt),
	)

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("worker_requires_rabbitmq", zap.String("note", "without RABBITMQ_URL the server runs jobs in-process"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider := telemetry.Setup(ctx, cfg.OTELEnabled, "worker", cfg.OTELEndpoint, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	// The server owns migrations
	stores, err := storage.Open(ctx, cfg, false, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()

	redisClient, err := bootstrap.OpenRedis(ctx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	if redisClient == nil {
		zapLogger.Warn("redis_not_configured_gate_is_process_local")
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}
	inFlight := bootstrap.NewGate(redisClient)

	jobQueue, err := bootstrap.OpenQueue(ctx, cfg, bootstrap.DefaultRetryPolicy, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_job_queue", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_job_queue", zap.Error(err))
		}
	}()

	assistant := bootstrap.NewAssistant(cfg, zapLogger, debugMode)
	cal := bootstrap.NewCalendar(ctx, cfg, zapLogger)
	profileSvc := profile.NewService(stores.Profiles)

	rescheduler := workers.NewRescheduler(workers.ReschedulerConfig{
		Tasks:     stores.Tasks,
		Calendar:  cal,
		Assistant: assistant,
		Profiles:  profileSvc,
		Gate:      inFlight,
		JobQueue:  jobQueue,
		Location:  cfg.Location,
		Logger:    zapLogger,
	})

	// Planned runs go through the task service so they respect the reschedule gate
	taskSvc := tasks.NewService(tasks.Config{
		Store:         stores.Tasks,
		Gate:          inFlight,
		Queue:         jobQueue,
		Calendar:      cal,
		Location:      cfg.Location,
		RescheduleTTL: cfg.RescheduleGateTTL,
		Logger:        zapLogger,
	})
	planner, err := workers.NewDailyPlanner(taskSvc, cfg.DailyRescheduleAt, cfg.Location, zapLogger)
	if err != nil {
		zapLogger.Fatal("invalid_daily_reschedule_times", zap.Error(err))
	}
	go func() { _ = planner.Start(ctx) }()

	zapLogger.Info("worker_started", zap.Int("prefetch", cfg.RabbitMQPrefetch))
	if err := workers.Consume(ctx, jobQueue, cfg.RabbitMQPrefetch, rescheduler, zapLogger); err != nil {
		zapLogger.Error("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_stopped")
}
