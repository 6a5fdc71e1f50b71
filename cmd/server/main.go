package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benvon/napoleon/internal/bootstrap"
	"github.com/benvon/napoleon/internal/config"
	"github.com/benvon/napoleon/internal/handlers"
	"github.com/benvon/napoleon/internal/logger"
	"github.com/benvon/napoleon/internal/middleware"
	"github.com/benvon/napoleon/internal/queue"
	"github.com/benvon/napoleon/internal/services/guidance"
	"github.com/benvon/napoleon/internal/services/profile"
	"github.com/benvon/napoleon/internal/services/tasks"
	"github.com/benvon/napoleon/internal/services/today"
	"github.com/benvon/napoleon/internal/storage"
	"github.com/benvon/napoleon/internal/telemetry"
	"github.com/benvon/napoleon/internal/tracker"
	"github.com/benvon/napoleon/internal/workers"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging (including LLM request logging)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger("server", debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("starting_server",
		zap.String("version", version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("timezone", cfg.Timezone),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracerProvider := telemetry.Setup(rootCtx, cfg.OTELEnabled, "server", cfg.OTELEndpoint, zapLogger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx, tracerProvider); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	stores, err := storage.Open(rootCtx, cfg, true, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_store", zap.Error(err))
	}
	defer func() {
		if err := stores.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()

	redisClient, err := bootstrap.OpenRedis(rootCtx, cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	if redisClient != nil {
		zapLogger.Info("connected_to_redis")
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
	}
	inFlight := bootstrap.NewGate(redisClient)

	limiterStore, err := middleware.NewLimiterStore(redisClient)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limit_store", zap.Error(err))
	}

	jobQueue, err := bootstrap.OpenQueue(rootCtx, cfg, bootstrap.DefaultRetryPolicy, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_open_job_queue", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_job_queue", zap.Error(err))
		}
	}()

	assistant := bootstrap.NewAssistant(cfg, zapLogger, debugMode)
	cal := bootstrap.NewCalendar(rootCtx, cfg, zapLogger)

	// Services
	profileSvc := profile.NewService(stores.Profiles)
	trackerSvc := tracker.NewService(stores.Metrics, cfg.TrackerAnchorDate, zapLogger)
	taskSvc := tasks.NewService(tasks.Config{
		Store:         stores.Tasks,
		Gate:          inFlight,
		Queue:         jobQueue,
		Calendar:      cal,
		Location:      cfg.Location,
		RescheduleTTL: cfg.RescheduleGateTTL,
		Logger:        zapLogger,
	})
	todaySvc := today.NewService(today.Config{
		Tasks:     stores.Tasks,
		Calendar:  cal,
		Assistant: assistant,
		Profiles:  profileSvc,
		Tracker:   trackerSvc,
		Location:  cfg.Location,
		Logger:    zapLogger,
	})
	guidanceSvc := guidance.NewService(stores.Conversations, assistant, profileSvc, zapLogger)

	// Background loops share bgCtx and are stopped before the stores close
	bgCtx, bgCancel := context.WithCancel(rootCtx)
	defer bgCancel()

	// Without RabbitMQ there is no separate worker, so jobs run in this process
	if memQueue, ok := jobQueue.(*queue.MemoryQueue); ok {
		rescheduler := workers.NewRescheduler(workers.ReschedulerConfig{
			Tasks:     stores.Tasks,
			Calendar:  cal,
			Assistant: assistant,
			Profiles:  profileSvc,
			Gate:      inFlight,
			JobQueue:  memQueue,
			Location:  cfg.Location,
			Logger:    zapLogger,
		})
		go func() {
			if err := workers.Consume(bgCtx, memQueue, 1, rescheduler, zapLogger); err != nil {
				zapLogger.Error("in_process_worker_stopped", zap.Error(err))
			}
		}()
		planner, err := workers.NewDailyPlanner(taskSvc, cfg.DailyRescheduleAt, cfg.Location, zapLogger)
		if err != nil {
			zapLogger.Fatal("invalid_daily_reschedule_times", zap.Error(err))
		}
		go func() { _ = planner.Start(bgCtx) }()
		zapLogger.Info("in_process_worker_started")
	}

	// Router and middleware. gorilla/mux runs middleware in registration order.
	r := mux.NewRouter()
	if tracerProvider != nil {
		r.Use(otelmux.Middleware(telemetry.ServiceName("server")))
	}
	r.Use(middleware.Logging(zapLogger))
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	corsReloader := middleware.NewCORSReloader(stores.Cors, cfg.FrontendURL, zapLogger, time.Minute)
	r.Use(corsReloader.Middleware())
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, zapLogger))
	r.Use(middleware.ContentType(zapLogger))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Audit(zapLogger))

	// Rate limiting applies to the API only, not to probes
	rateLimitReloader := middleware.NewRateLimitReloader(limiterStore, stores.Ratelimit, middleware.DefaultRatelimitRate, zapLogger, time.Minute)
	rateLimitMW := rateLimitReloader.Middleware()

	checks := map[string]handlers.CheckFunc{
		"store": stores.Ping,
		"queue": jobQueue.HealthCheck,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	healthChecker := handlers.NewHealthChecker(checks)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionHandler(version)).Methods("GET")
	handlers.NewOpenAPIHandler(filepath.Join("api", "openapi", "openapi.yaml")).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimitMW)
	handlers.NewTaskHandler(taskSvc, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/todos").Subrouter())
	handlers.NewTodayHandler(todaySvc, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/today").Subrouter())
	handlers.NewTrackerHandler(trackerSvc, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/tracker").Subrouter())
	handlers.NewGuidanceHandler(guidanceSvc, zapLogger).RegisterRoutes(apiRouter.PathPrefix("/guidance").Subrouter())

	profileRouter := r.PathPrefix("/profile").Subrouter()
	profileRouter.Use(rateLimitMW)
	handlers.NewProfileHandler(profileSvc, zapLogger).RegisterRoutes(profileRouter)

	// Preflight requests need a matching route for the CORS middleware to run
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	go corsReloader.Start(bgCtx)
	go rateLimitReloader.Start(bgCtx)

	// Run every hour, retain dead-lettered jobs for 24 hours
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector")
	}

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   middleware.DefaultRequestTimeout + 5*time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-rootCtx.Done():
		zapLogger.Info("server_shutting_down")
	case err := <-serverErr:
		zapLogger.Error("server_failed", zap.Error(err))
	}
	bgCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		os.Exit(1)
	}

	zapLogger.Info("server_exited")
}
