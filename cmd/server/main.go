package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizdrill/quizdrill-backend/internal/bank"
	"github.com/quizdrill/quizdrill-backend/internal/config"
	"github.com/quizdrill/quizdrill-backend/internal/database"
	"github.com/quizdrill/quizdrill-backend/internal/handler"
	"github.com/quizdrill/quizdrill-backend/internal/logger"
	"github.com/quizdrill/quizdrill-backend/internal/repository"
	"github.com/quizdrill/quizdrill-backend/internal/router"
	"github.com/quizdrill/quizdrill-backend/internal/service"
	"github.com/quizdrill/quizdrill-backend/internal/store"
	"github.com/quizdrill/quizdrill-backend/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreBackend).
		Msg("Starting QuizDrill Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open KV Store ─────────────────────────────────────────────────
	kv, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open KV store")
	}
	defer closeStore()

	// ─── Load Question Bank ────────────────────────────────────────────
	// Both documents are awaited before the engine activates; a failed
	// load leaves nothing half-initialized and the process exits so the
	// supervisor retries.
	loader := bank.NewLoader(log)
	b, err := loader.Load(ctx, cfg.BankURL, cfg.IndexURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load question bank")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	progressRepo := repository.NewProgressRepository(kv, log)
	recordRepo := repository.NewRecordRepository(kv, log)
	wrongbookRepo := repository.NewWrongbookRepository(kv, log)
	prefRepo := repository.NewPrefRepository(kv, log)

	// ─── Initialize Session Engine ─────────────────────────────────────
	sessionService := service.NewSessionService(b, progressRepo, recordRepo, wrongbookRepo, prefRepo, log)
	if err := sessionService.Restore(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore session state")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Bank:    handler.NewBankHandler(b),
		Session: handler.NewSessionHandler(sessionService),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Every mutation persisted synchronously, so there is no state to
	// flush here.
	log.Info().Msg("Shutdown complete")
}

// openStore selects the KV backend from config. The returned closer is
// a no-op for file and memory backends.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(rdb), func() { _ = rdb.Close() }, nil
	case config.StoreBackendMemory:
		log.Warn().Msg("Memory store selected: progress is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	default:
		fs, err := store.OpenFileStore(cfg.StoreFile, log)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
