package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"synth-exchange-stats/internal/app"
	"synth-exchange-stats/internal/config"
	"synth-exchange-stats/internal/logging"
	"synth-exchange-stats/internal/storage"
	"synth-exchange-stats/internal/storage/memory"
	"synth-exchange-stats/internal/verification"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	sourcePath := flag.String("source", "", "JSONL event log (overrides source.path)")
	againstStore := flag.Bool("against-store", false, "Also compare a fresh replay with the configured store")
	maxShown := flag.Int("max-divergences", 20, "Divergences to print")

	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *sourcePath != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = *sourcePath
	}

	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, ServiceName: "verify"})
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}
	if cfg.Source.Kind == config.SourceKafka && cfg.Source.Kafka.EndOffset == 0 {
		logger.Fatal("verify needs a bounded log: set source.kafka.end_offset")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Replay runs log at warn.
	replayLogger := logging.New(logging.Config{Level: "warn", Format: cfg.Log.Format, ServiceName: "verify"})

	verifier := verification.NewReplayVerifier(verification.ReplayVerifierOptions{
		Replay: func(ctx context.Context, store storage.KeyedStore) error {
			_, err := app.Replay(ctx, cfg, store, replayLogger)
			return err
		},
		NewStore: func() storage.KeyedStore { return memory.NewKeyedStore() },
	})

	report, err := verifier.VerifyDeterminism(ctx)
	if err != nil {
		logger.Fatal("verify determinism", zap.Error(err))
	}
	ok := printReport("determinism", report, *maxShown)

	if *againstStore {
		store, err := app.OpenStore(ctx, cfg.Store, logger)
		if err != nil {
			logger.Fatal("open store", zap.Error(err))
		}
		report, err := verifier.VerifyStore(ctx, store)
		store.Close()
		if err != nil {
			logger.Fatal("verify store", zap.Error(err))
		}
		ok = printReport("store", report, *maxShown) && ok
	}

	if !ok {
		os.Exit(1)
	}
}

// printReport writes a report to stdout and reports whether the states matched.
func printReport(name string, r *verification.Report, maxShown int) bool {
	status := "MATCH"
	if !r.Match {
		status = "DIVERGED"
	}
	fmt.Printf("\n=== Verification: %s ===\n", name)
	fmt.Printf("Status:          %s\n", status)
	fmt.Printf("Entries:         %d\n", r.Entries)
	fmt.Printf("Expected Digest: %s\n", r.ExpectedDigest)
	fmt.Printf("Actual Digest:   %s\n", r.ActualDigest)
	if len(r.Divergences) > 0 {
		fmt.Printf("Divergences:     %d\n", len(r.Divergences))
		for i, d := range r.Divergences {
			if i == maxShown {
				fmt.Printf("  ... %d more\n", len(r.Divergences)-maxShown)
				break
			}
			fmt.Printf("  %s/%s\n    expected: %s\n    actual:   %s\n", d.Collection, d.Key, show(d.Expected), show(d.Actual))
		}
	}
	return r.Match
}

func show(v []byte) string {
	if v == nil {
		return "<absent>"
	}
	return string(v)
}
