package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/aldenhq/alden-api/internal/config"
	"github.com/aldenhq/alden-api/internal/database"
	"github.com/aldenhq/alden-api/internal/handlers"
	"github.com/aldenhq/alden-api/internal/logger"
	"github.com/aldenhq/alden-api/internal/middleware"
	"github.com/aldenhq/alden-api/internal/queue"
	"github.com/aldenhq/alden-api/internal/services/ai"
	"github.com/aldenhq/alden-api/internal/services/auth"
	"github.com/aldenhq/alden-api/internal/services/chat"
	"github.com/aldenhq/alden-api/internal/services/mindful"
	"github.com/aldenhq/alden-api/internal/services/progress"
	"github.com/aldenhq/alden-api/internal/services/study"
	"github.com/aldenhq/alden-api/internal/storage"
	"github.com/aldenhq/alden-api/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	debugMode := *debugFlag || cfg.ServerDebugMode

	zapLogger, err := logger.New(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = zapLogger.Sync()
	}()

	if cfg.OTELEnabled {
		tp, err := telemetry.InitTracer(context.Background(), "alden-api", cfg.OTELEndpoint)
		if err != nil {
			zapLogger.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				zapLogger.Error("failed to shut down tracer provider", zap.Error(err))
			}
		}()
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	if err := database.Migrate(context.Background(), db); err != nil {
		zapLogger.Fatal("failed to apply database schema", zap.Error(err))
	}

	jobQueue := connectQueue(cfg.RabbitMQURL, zapLogger)
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Error("failed to close job queue", zap.Error(err))
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid redis url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Error("failed to close redis client", zap.Error(err))
		}
	}()

	blobs, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		zapLogger.Fatal("failed to initialize upload storage", zap.Error(err))
	}

	catalog, err := mindful.LoadCatalog(cfg.PrebuiltCatalog)
	if err != nil {
		zapLogger.Fatal("failed to load prebuilt session catalog", zap.Error(err))
	}

	userRepo := database.NewUserRepository(db)
	studyRepo := database.NewStudySessionRepository(db)
	mindfulRepo := database.NewMindfulSessionRepository(db)
	conversationRepo := database.NewConversationRepository(db)
	documentRepo := database.NewDocumentRepository(db)

	studyManager := study.NewManager(studyRepo)
	mindfulTracker := mindful.NewTracker(mindfulRepo)
	progressAggregator := progress.NewAggregator(userRepo, studyRepo, mindfulRepo)
	chatOrchestrator := chat.NewOrchestrator(conversationRepo, jobQueue, zapLogger)

	var aiProvider ai.Provider
	if cfg.OpenAIKey != "" {
		aiTimeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
		aiProvider = ai.NewOpenAIProviderWithLogger(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, aiTimeout, zapLogger, debugMode)
		zapLogger.Info("ai_provider_configured", zap.String("provider", "openai"), zap.String("model", cfg.AIModel))
	} else {
		aiProvider = ai.NewFallbackProvider()
		zapLogger.Warn("ai_provider_fallback", zap.String("reason", "OPENAI_API_KEY not set"))
	}

	var verifier *auth.Verifier
	if cfg.JWKSURL != "" {
		verifier = auth.NewVerifier(auth.NewJWKSManager(), cfg.JWTIssuer, cfg.JWKSURL)
		zapLogger.Info("jwt_verification_enabled", zap.String("issuer", cfg.JWTIssuer))
	} else {
		zapLogger.Warn("jwt_verification_disabled", zap.String("reason", "JWKS_URL not set"))
	}

	r := mux.NewRouter()

	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("alden-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.MaxUploadSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	healthChecker := handlers.NewHealthChecker(db, redisClient, jobQueue)
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")
	r.HandleFunc("/version", versionInfo).Methods("GET")

	openAPIHandler := handlers.NewOpenAPIHandler("api/openapi/openapi.yaml")
	openAPIHandler.RegisterRoutes(r)

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimitRate)
	if err != nil {
		zapLogger.Fatal("failed to initialize rate limiter", zap.Error(err))
	}

	identityMW := middleware.Identity(userRepo, verifier, cfg.DefaultUserEmail, cfg.DefaultUserName, zapLogger)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(rateLimitMW)
	apiRouter.Use(identityMW)

	studyHandler := handlers.NewStudySessionHandler(studyManager)
	studyHandler.RegisterRoutes(apiRouter.PathPrefix("/study-sessions").Subrouter())

	mindfulHandler := handlers.NewMindfulSessionHandler(mindfulTracker, catalog)
	mindfulHandler.RegisterRoutes(apiRouter.PathPrefix("/mindful-sessions").Subrouter())

	progressHandler := handlers.NewProgressHandler(progressAggregator)
	progressHandler.RegisterRoutes(apiRouter.PathPrefix("/progress").Subrouter())

	aiHandler := handlers.NewAIHandler(chatOrchestrator, aiProvider)
	aiHandler.RegisterRoutes(apiRouter.PathPrefix("/ai").Subrouter())

	documentHandler := handlers.NewDocumentHandler(documentRepo, blobs, zapLogger)
	documentHandler.RegisterRoutes(apiRouter.PathPrefix("/documents").Subrouter())

	// Preflight requests short-circuit before route matching.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()
	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		gc := queue.NewGarbageCollector(dlqPurger, time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := gc.Start(gcCtx); err != nil && gcCtx.Err() == nil {
				zapLogger.Error("dlq_garbage_collector_stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLogger.Info("server_stopped")
}

// connectQueue retries the RabbitMQ connection with exponential backoff.
// The broker often comes up after the API in compose environments.
func connectQueue(amqpURL string, zapLogger *zap.Logger) queue.JobQueue {
	const maxRetries = 10
	initialDelay := 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue
		}

		delay := initialDelay * (1 << attempt)
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("rabbitmq_connect_retry",
			zap.Int("attempt", attempt+1),
			zap.Duration("retry_in", delay),
			zap.Error(err))
		time.Sleep(delay)
	}

	zapLogger.Fatal("failed to connect to RabbitMQ", zap.Int("attempts", maxRetries))
	return nil
}

func versionInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"version":"1.0.0","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}
