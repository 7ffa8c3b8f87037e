package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeninapp/zenin-ingest/internal/archive"
	"github.com/zeninapp/zenin-ingest/internal/classify"
	"github.com/zeninapp/zenin-ingest/internal/config"
	"github.com/zeninapp/zenin-ingest/internal/extract"
	"github.com/zeninapp/zenin-ingest/internal/logger"
	"github.com/zeninapp/zenin-ingest/internal/pipeline"
	"github.com/zeninapp/zenin-ingest/internal/session"
	"github.com/zeninapp/zenin-ingest/internal/store"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "classify":
		runClassify()
	case "parse":
		runParse(log)
	case "dispatch":
		runDispatch(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Zenin Ingest CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  classify  Report whether a notification text looks financial")
	fmt.Println("  parse     Run the classifier and extractor over a notification text")
	fmt.Println("  dispatch  Push a single notification through the full pipeline")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runClassify() {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	text := fs.String("text", "", "Notification text to classify")
	fs.Parse(os.Args[2:])

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text is required")
		os.Exit(1)
	}

	if classify.IsFinancial(*text) {
		fmt.Println("financial")
	} else {
		fmt.Println("not financial")
	}
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	text := fs.String("text", "", "Notification text to parse")
	received := fs.String("received", "", "Receive time in RFC 3339, defaults to now")
	fs.Parse(os.Args[2:])

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text is required")
		os.Exit(1)
	}

	receivedAt := time.Now().UTC()
	if *received != "" {
		t, err := time.Parse(time.RFC3339, *received)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid --received value")
		}
		receivedAt = t
	}

	out := map[string]any{
		"financial": classify.IsFinancial(*text),
	}
	if draft := extract.Parse(*text, receivedAt); draft != nil {
		out["parsed"] = true
		out["draft"] = draft
	} else {
		out["parsed"] = false
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode result")
	}
}

func runDispatch(log zerolog.Logger) {
	fs := flag.NewFlagSet("dispatch", flag.ExitOnError)
	title := fs.String("title", "", "Notification title")
	text := fs.String("text", "", "Notification text")
	pkg := fs.String("package", "", "Source package name")
	fs.Parse(os.Args[2:])

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Error: --text is required")
		os.Exit(1)
	}

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
		log.Warn().Msg("POSTGRES_DSN not set, dispatching against an in-memory store")
		txs = store.NewMemoryStore()
	}

	users := session.NewStaticResolver(cfg.UserID)

	dispatcher := pipeline.NewDispatcher(arc, txs, users, pipeline.NopWakeLock{}, log)
	dispatcher.SetBudget(cfg.ExecutionBudget, cfg.CommitTimeout)

	res := dispatcher.Dispatch(ctx, pipeline.RawNotification{
		Title:       *title,
		Text:        *text,
		PackageName: *pkg,
	})

	fmt.Printf("outcome: %s\n", res.Outcome)
	fmt.Printf("financial: %t\n", res.Financial)
	if res.Draft != nil {
		fmt.Printf("draft: %s %s %q\n", res.Draft.Direction, res.Draft.Amount, res.Draft.MerchantHint)
	}
	if res.Commit != "" {
		fmt.Printf("commit: %s\n", res.Commit)
	}
}
