package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/quietgrove/intently/internal/config"
	"github.com/quietgrove/intently/internal/database"
	"github.com/quietgrove/intently/internal/events"
	"github.com/quietgrove/intently/internal/handlers"
	"github.com/quietgrove/intently/internal/logger"
	"github.com/quietgrove/intently/internal/middleware"
	"github.com/quietgrove/intently/internal/notify"
	"github.com/quietgrove/intently/internal/queue"
	"github.com/quietgrove/intently/internal/services/ai"
	"github.com/quietgrove/intently/internal/services/auth"
	"github.com/quietgrove/intently/internal/telemetry"
)

const serviceName = "intently-api"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("ai_model", cfg.AIModel),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	// OpenTelemetry
	var tracerProvider interface{ Shutdown(context.Context) error }
	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				tracerProvider = tp
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	// Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database")

	// Redis: rate limiting and the change event bus share one client
	redisLimiter, err := middleware.NewRedisRateLimiter(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	defer func() {
		if err := redisLimiter.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_redis")
	bus := events.NewBus(redisLimiter.Client())

	// RabbitMQ with startup retry
	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	// Repositories
	userRepo := database.NewUserRepository(db)
	commitmentRepo := database.NewCommitmentRepository(db)
	commitmentRepo.SetLogger(zapLogger)
	moodRepo := database.NewMoodLogRepository(db)
	patternRepo := database.NewBehaviorPatternRepository(db)
	suggestionRepo := database.NewRescheduleSuggestionRepository(db)
	priorityRepo := database.NewPriorityAnnotationRepository(db)
	corsConfigRepo := database.NewCorsConfigRepository(db)
	ratelimitConfigRepo := database.NewRatelimitConfigRepository(db)

	// Every commitment mutation feeds the per-user change stream
	commitmentRepo.SetChangeHandler(func(ctx context.Context, userID uuid.UUID, action database.ChangeAction, id uuid.UUID) {
		if err := bus.Publish(ctx, events.Change{
			Table:      "commitments",
			Action:     string(action),
			RecordID:   id,
			UserID:     userID,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			zapLogger.Warn("change_publish_failed",
				zap.String("user_id", userID.String()),
				zap.Error(err),
			)
		}
	})

	reminders := buildReminderScheduler(cfg, zapLogger)
	seedReminders(commitmentRepo, reminders, zapLogger)

	// Token verifier: JWKS when configured, shared secret otherwise
	var verifier *auth.Verifier
	if cfg.JWKSURL != "" {
		verifier = auth.NewJWKSVerifier(cfg.JWKSURL, cfg.JWTIssuer)
	} else {
		verifier = auth.NewHMACVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer)
	}

	// AI service
	var aiService *ai.Service
	if cfg.OpenAIKey != "" {
		completer := ai.NewOpenAIClientWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		aiService = ai.NewService(completer, commitmentRepo, moodRepo, patternRepo, suggestionRepo, priorityRepo)
	} else {
		zapLogger.Warn("openai_key_not_configured_ai_features_disabled")
	}

	// Handlers
	commitmentHandler := handlers.NewCommitmentHandler(commitmentRepo, suggestionRepo, jobQueue, reminders, zapLogger)
	moodHandler := handlers.NewMoodHandler(moodRepo)
	patternHandler := handlers.NewPatternHandler(commitmentRepo, patternRepo)
	eventHandler := handlers.NewEventHandler(bus, zapLogger)
	healthChecker := handlers.NewHealthChecker(db, redisLimiter, jobQueue)

	var aiHandler *handlers.AIHandler
	if aiService != nil {
		aiHandler = handlers.NewAIHandler(aiService, moodRepo, zapLogger)
	}

	// Router and middleware. gorilla/mux runs middleware in registration
	// order, so outermost concerns are registered first.
	r := mux.NewRouter()

	if cfg.OTELEnabled && tracerProvider != nil {
		r.Use(otelmux.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(corsOrigins(corsConfigRepo, cfg, zapLogger)))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Request timeout for everything except the SSE stream, which must stay
	// open indefinitely
	timeoutMW := middleware.Timeout(30 * time.Second)

	rateLimitMW, err := middleware.RateLimitFromDB(redisLimiter.Client(), ratelimitConfigRepo, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	// Public routes
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIHandler := handlers.NewOpenAPIHandler(filepath.Join("api", "openapi.yaml"))
	openAPIHandler.RegisterRoutes(r)

	// Protected API
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	authMW := middleware.Auth(verifier, userRepo, zapLogger)

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	authRouter.Use(timeoutMW)
	authRouter.Use(authMW)
	authRouter.Use(rateLimitMW)
	authRouter.HandleFunc("/me", handlers.Me).Methods("GET")

	commitmentsRouter := apiRouter.PathPrefix("/commitments").Subrouter()
	commitmentsRouter.Use(timeoutMW)
	commitmentsRouter.Use(authMW)
	commitmentsRouter.Use(rateLimitMW)
	commitmentHandler.RegisterRoutes(commitmentsRouter)

	moodsRouter := apiRouter.PathPrefix("/moods").Subrouter()
	moodsRouter.Use(timeoutMW)
	moodsRouter.Use(authMW)
	moodsRouter.Use(rateLimitMW)
	moodHandler.RegisterRoutes(moodsRouter)

	patternsRouter := apiRouter.PathPrefix("/patterns").Subrouter()
	patternsRouter.Use(timeoutMW)
	patternsRouter.Use(authMW)
	patternsRouter.Use(rateLimitMW)
	patternHandler.RegisterRoutes(patternsRouter)

	if aiHandler != nil {
		aiRouter := apiRouter.PathPrefix("/ai").Subrouter()
		aiRouter.Use(timeoutMW)
		aiRouter.Use(authMW)
		aiRouter.Use(rateLimitMW)
		aiHandler.RegisterRoutes(aiRouter)
	}

	eventsRouter := apiRouter.PathPrefix("/events").Subrouter()
	eventsRouter.Use(authMW)
	eventsRouter.HandleFunc("", eventHandler.Stream).Methods("GET")

	// Preflight requests fall through to here once CORS headers are set
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout: 15 * time.Second,
		// No server-wide write deadline: the SSE stream writes for as long
		// as the client stays connected. Non-streaming routes are bounded
		// by the per-router timeout middleware.
		WriteTimeout:   0,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	// DLQ garbage collection
	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(gcCtx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	gcCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff to ride out broker
// startup delays
func connectQueue(url string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(url)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq")
			return q
		}
		lastErr = err
		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries",
		zap.Int("max_retries", maxRetries),
		zap.Error(lastErr),
	)
	return nil
}

// buildReminderScheduler assembles the reminder ladder from the optional
// YAML offsets file
func buildReminderScheduler(cfg *config.Config, zapLogger *zap.Logger) *notify.Scheduler {
	offsets := config.DefaultReminderOffsets()
	loc := time.Local
	if cfg.RemindersFile != "" {
		rem, err := config.LoadReminders(cfg.RemindersFile)
		if err != nil {
			zapLogger.Warn("failed_to_load_reminders_file",
				zap.String("path", cfg.RemindersFile),
				zap.Error(err),
			)
		} else {
			if len(rem.Offsets) > 0 {
				offsets = rem.Offsets
			}
			if l, err := rem.Location(); err == nil {
				loc = l
			}
		}
	}

	// Server-side delivery has no browser permission prompt; the gate is
	// always granted and clients filter on their own Notification state.
	notifier := &logNotifier{logger: zapLogger}
	return notify.NewScheduler(offsets, notify.StaticGate(notify.PermissionGranted), notifier,
		notify.WithLocation(loc),
		notify.WithLogger(zapLogger),
	)
}

// seedReminders restores reminder ladders for pending commitments after a
// restart
func seedReminders(repo *database.CommitmentRepository, scheduler *notify.Scheduler, zapLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pending, err := repo.GetAllPending(ctx)
	if err != nil {
		zapLogger.Warn("failed_to_seed_reminders", zap.Error(err))
		return
	}

	scheduled := scheduler.ScheduleAllPending(pending)
	zapLogger.Info("reminders_seeded",
		zap.Int("commitments", len(pending)),
		zap.Int("reminders", scheduled),
	)
}

// logNotifier writes fired reminders to the structured log. Browser-facing
// delivery happens client side off the change stream.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) Show(title, body, tag string) {
	n.logger.Info("reminder_fired",
		zap.String("title", title),
		zap.String("body", body),
		zap.String("tag", tag),
	)
}

// corsOrigins merges the stored CORS allowlist with the configured frontend
// URL, read once at startup
func corsOrigins(repo *database.CorsConfigRepository, cfg *config.Config, zapLogger *zap.Logger) []string {
	origins := []string{cfg.FrontendURL}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stored, err := repo.Get(ctx)
	if err != nil {
		zapLogger.Warn("failed_to_load_cors_config", zap.Error(err))
		return origins
	}
	if stored != nil {
		for _, o := range database.AllowedOriginsSlice(stored.AllowedOrigins) {
			if o != cfg.FrontendURL {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
