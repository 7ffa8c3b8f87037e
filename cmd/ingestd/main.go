package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/config"
	"github.com/zeninapp/zenin-ingest/internal/domain"
	"github.com/zeninapp/zenin-ingest/internal/feed"
	feedinmemory "github.com/zeninapp/zenin-ingest/internal/feed/inmemory"
	"github.com/zeninapp/zenin-ingest/internal/logger"
	"github.com/zeninapp/zenin-ingest/internal/pipeline"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

// ingestd reads captured notifications from stdin, one JSON object per
// line, and feeds them through the ingestion pipeline. It stands in for
// the platform notification bridge during local runs and backfills.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()

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

	log.Info().Msg("Ingest worker started, reading notifications from stdin")

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var payload domain.NotificationPayload
			if err := json.Unmarshal(line, &payload); err != nil {
				log.Error().Err(err).Msg("Skipping malformed notification line")
				continue
			}
			if payload.ReceivedAt.IsZero() {
				payload.ReceivedAt = time.Now().UTC()
			}

			d := &feed.Delivery{
				DeliveryID: uuid.NewString(),
				Payload:    payload,
				Attempt:    1,
				EnqueuedAt: time.Now().UTC(),
			}
			if err := queue.Publish(ctx, d); err != nil {
				log.Error().Err(err).Msg("Failed to enqueue notification")
			}
		}
		if err := scanner.Err(); err != nil {
			log.Error().Err(err).Msg("Error reading stdin")
		}
	}()

	// Wait for interrupt signal or end of input
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("Shutting down ingest worker...")
	case <-done:
		log.Info().Msg("End of input, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := queue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping feed consumer")
	}
	cancelConsumer()

	log.Info().Msg("Ingest worker exited")
}
