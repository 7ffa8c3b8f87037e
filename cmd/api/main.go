package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zeninapp/zenin-ingest/internal/api/handlers"
	"github.com/zeninapp/zenin-ingest/internal/api/middleware"
	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/config"
	"github.com/zeninapp/zenin-ingest/internal/feed"
	feedinmemory "github.com/zeninapp/zenin-ingest/internal/feed/inmemory"
	"github.com/zeninapp/zenin-ingest/internal/logger"
	"github.com/zeninapp/zenin-ingest/internal/pipeline"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

	// Archive: Redis when configured, in-memory otherwise.
	var arc archive.Archive
	if cfg.RedisAddr != "" {
		redisArc, err := archive.NewRedisArchive(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis archive")
		}
		defer redisArc.Close()
		arc = redisArc
	} else {
		log.Warn().Msg("REDIS_ADDR not set, using in-memory archive")
		arc = archive.NewMemoryArchive()
	}

	// Transaction store: Postgres when configured, in-memory otherwise.
	var txs store.TransactionStore
	if cfg.PostgresDSN != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Postgres store")
		}
		defer pg.Close()
		txs = pg
	} else {
		log.Warn().Msg("POSTGRES_DSN not set, using in-memory store")
		txs = store.NewMemoryStore()
	}

	users := session.NewStaticResolver(cfg.UserID)

	dispatcher := pipeline.NewDispatcher(arc, txs, users, pipeline.NopWakeLock{}, log)
	dispatcher.SetBudget(cfg.ExecutionBudget, cfg.CommitTimeout)

	// Feed: single worker mirrors the host's normally-serialized delivery.
	queue := feedinmemory.NewQueue(100, 1)

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	handler := func(ctx context.Context, d *feed.Delivery) error {
		res := dispatcher.DispatchPayload(ctx, d.Payload)
		if res.Outcome == pipeline.OutcomeKilled {
			return errors.New("invocation killed")
		}
		return nil
	}
	if err := queue.Start(consumerCtx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start feed consumer")
	}

	// Routes.
	notifications := handlers.NewNotificationsHandler(queue, arc, log)
	transactions := handlers.NewTransactionsHandler(txs, users, log)
	parse := handlers.NewParseHandler(log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handlers.Health)
	mux.HandleFunc("POST /v1/notifications", notifications.Ingest)
	mux.HandleFunc("GET /v1/notifications/last", notifications.Last)
	mux.HandleFunc("GET /v1/transactions", transactions.List)
	mux.HandleFunc("POST /v1/parse", parse.Parse)

	var root http.Handler = mux
	root = middleware.Logger(log)(root)
	root = middleware.Recovery(log)(root)
	root = middleware.CORS(root)
	root = middleware.RequestID(root)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      root,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down API server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during HTTP shutdown")
	}

	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping feed consumer")
	}
	cancelConsumer()

	log.Info().Msg("API server exited")
}
