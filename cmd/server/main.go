package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mentorlog-backend/internal/config"
	"mentorlog-backend/internal/database"
	"mentorlog-backend/internal/handlers"
	"mentorlog-backend/internal/middleware"
	"mentorlog-backend/internal/repository"
	"mentorlog-backend/internal/router"
	"mentorlog-backend/internal/services"
	"mentorlog-backend/internal/websocket"
	"mentorlog-backend/internal/worker"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Configuration invalid")
	}
	setupLogger(cfg)
	log.Info().Msg("🚀 Starting MentorLog Backend...")
	log.Info().Msg("✓ Environment variables loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("✗ Redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("✗ Database migration failed")
	}
	log.Info().Msg("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewStudySessionRepo(pool)
	reportRepo := repository.NewReportRepo(pool)
	weeklyRepo := repository.NewWeeklyReportRepo(pool)
	pairingRepo := repository.NewPairingRepo(pool)
	boardRepo := repository.NewBoardRepo(pool)

	// ──── Step 5: Initialize Summarizers ────
	var gemini *services.GeminiSummarizer
	if cfg.GeminiAPIKey != "" && (cfg.SummarizerURL == "" || cfg.WeeklySummarizerURL == "") {
		gemini, err = services.NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs, cfg.SummarizerTimeout, cfg.WeeklySummarizerTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("✗ Gemini client initialization failed")
		}
		defer gemini.Close()
		log.Info().Str("model", cfg.GeminiModel).Msg("✓ Gemini client initialized")
	}

	var summarizer services.TextSummarizer = services.NewHTTPSummarizer(cfg.SummarizerURL, cfg.SummarizerAPIKey, cfg.SummarizerTimeout)
	if cfg.SummarizerURL == "" && gemini != nil {
		summarizer = gemini
	}

	var narrative services.NarrativeSummarizer = services.NewNarrativeClient(cfg.WeeklySummarizerURL, cfg.WeeklySummarizerAPIKey, cfg.WeeklySummarizerTimeout)
	if cfg.WeeklySummarizerURL == "" && gemini != nil {
		narrative = gemini
	}

	vision := services.NewVisionClient(cfg.VisionEnabled, cfg.VisionBaseURL, cfg.VisionTimeout)
	if vision.Enabled() {
		log.Info().Str("url", cfg.VisionBaseURL).Msg("✓ Vision analyzer enabled")
	}

	// ──── Initialize Services ────
	reportLoc := cfg.ReportLocation()
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	pipeline := services.NewReportPipeline(reportRepo, boardRepo, summarizer, reportLoc)

	// ──── Step 6: Start Board Entry Retry Workers (optional) ────
	var retryPool *worker.Pool
	if cfg.BoardEntryRetryEnabled {
		retryPool = worker.NewPool(redisClients.Main, boardRepo, cfg.BoardEntryRetryWorkers)
		retryPool.Start()
		pipeline.WithRetryQueue(retryPool)
		log.Info().Int("workers", cfg.BoardEntryRetryWorkers).Msg("✓ Board entry retry workers started")
	}
	sessionService := services.NewSessionService(sessionRepo, pairingRepo, pipeline, services.NewRedisSessionNotifier(redisClients.Main))
	distractionTracker := services.NewDistractionTracker(sessionService, vision)
	reportService := services.NewReportService(reportRepo, pairingRepo)
	weeklyAggregator := services.NewWeeklyAggregator(pairingRepo, sessionRepo, weeklyRepo, narrative, reportLoc, cfg.ReportFocusAverage)

	// ──── Initialize Handlers ────
	sessionHandler := handlers.NewStudySessionHandler(sessionService, distractionTracker, cfg.FrameUploadMaxBytes)
	reportHandler := handlers.NewReportHandler(reportService)
	weeklyHandler := handlers.NewWeeklyReportHandler(weeklyAggregator)

	// ──── Step 7: Start Weekly Report Scheduler ────
	var scheduler *services.WeeklyScheduler
	if cfg.SchedulerEnabled {
		scheduler, err = services.NewWeeklyScheduler(weeklyAggregator, services.NewRedisRunClaimer(redisClients.Main), cfg.SchedulerCron, cfg.SchedulerLocation())
		if err != nil {
			log.Fatal().Err(err).Str("cron", cfg.SchedulerCron).Msg("✗ Weekly scheduler initialization failed")
		}
		scheduler.Start()
		log.Info().Str("cron", cfg.SchedulerCron).Str("zone", cfg.SchedulerZone).Msg("✓ Weekly report scheduler started")
	}

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Info().Msg("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	r := router.New(jwtAuth, sessionHandler, reportHandler, weeklyHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown. main returns only after shutdownDone closes so the
	// deferred pool and Redis closes run after the workers have stopped.
	shutdownDone := gracefulShutdown(ctx, 30*time.Second,
		func(ctx context.Context) {
			if scheduler != nil {
				scheduler.Stop(ctx)
			}
		},
		func(ctx context.Context) {
			if err := server.Shutdown(ctx); err != nil {
				log.Warn().Err(err).Msg("HTTP server shutdown error")
			}
		},
		func(context.Context) {
			if retryPool != nil {
				retryPool.Stop()
			}
		},
	)

	log.Info().Msgf("✓ MentorLog Backend ready on http://localhost:%s", cfg.Port)
	log.Info().Msgf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Info().Msgf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
	<-shutdownDone
	log.Info().Msg("Shutdown complete")
}

// gracefulShutdown runs steps in order once ctx is done, sharing one timeout,
// and closes the returned channel after the last step.
func gracefulShutdown(ctx context.Context, timeout time.Duration, steps ...func(context.Context)) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		for _, step := range steps {
			step(shutdownCtx)
		}
	}()
	return done
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
