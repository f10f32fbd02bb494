// Package replay drives an ordered event source through the handlers,
// committing each event together with the checkpoint that covers it.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"synth-exchange-stats/internal/domain"
	"synth-exchange-stats/internal/handler"
	"synth-exchange-stats/internal/observability"
	"synth-exchange-stats/internal/oracle"
	"synth-exchange-stats/internal/rollup"
	"synth-exchange-stats/internal/source"
	"synth-exchange-stats/internal/storage"
)

// Config configures a runner.
type Config struct {
	Policy           rollup.Policy
	StableCurrencies []string
}

// DefaultConfig returns the mainnet configuration.
func DefaultConfig() Config {
	return Config{
		Policy:           rollup.DefaultPolicy(),
		StableCurrencies: oracle.DefaultStableCurrencies,
	}
}

// Result summarizes a run.
type Result struct {
	Applied    int64
	Skipped    int64
	Checkpoint *domain.Checkpoint
}

// Runner applies events to a keyed store one at a time. Each event's writes
// and the advanced checkpoint are committed as one batch, so an interrupted
// run resumes at the first event that was not committed.
type Runner struct {
	unit    *storage.Unit
	repo    *storage.Repository
	handler *handler.Handler
	logger  *zap.Logger
}

// NewRunner creates a runner over base.
func NewRunner(base storage.KeyedStore, cfg Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	unit := storage.NewUnit(base)
	repo := storage.NewRepository(unit)
	prices := oracle.NewRateBook(repo, cfg.StableCurrencies)

	return &Runner{
		unit:    unit,
		repo:    repo,
		handler: handler.New(cfg.Policy, repo, prices, logger),
		logger:  logger.Named("replay"),
	}
}

// Run applies every event from src until it is exhausted.
// Events at or before the stored checkpoint are skipped.
// Returns ErrInvalidOrdering if src is not in strictly increasing chain order,
// and stops on the first handler error. The result reflects committed events.
func (r *Runner) Run(ctx context.Context, src source.Source) (*Result, error) {
	cp, err := r.repo.GetCheckpoint(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if cp != nil {
		r.logger.Info("resuming from checkpoint",
			zap.Int64("block_number", cp.BlockNumber),
			zap.Int64("log_index", cp.LogIndex),
			zap.Int64("events_applied", cp.EventsApplied),
		)
	}

	result := &Result{Checkpoint: cp}
	var pos position

	for {
		ev, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, r.fail("source", err)
		}

		if !pos.advance(ev) {
			return result, r.fail("ordering", fmt.Errorf("%w: block %d log %d in tx %s",
				ErrInvalidOrdering, ev.BlockNumber, ev.LogIndex, ev.TxHash))
		}
		if !cp.After(ev.BlockNumber, ev.LogIndex) {
			result.Skipped++
			observability.RecordEventSkipped()
			continue
		}

		next, err := r.apply(ctx, ev, cp)
		if err != nil {
			reason := "handler"
			if errors.Is(err, domain.ErrMalformedInput) {
				reason = "malformed_input"
			}
			return result, r.fail(reason, err)
		}
		cp = next
		result.Checkpoint = cp
		result.Applied++
	}

	r.logger.Info("replay complete",
		zap.Int64("applied", result.Applied),
		zap.Int64("skipped", result.Skipped),
	)
	return result, nil
}

// apply handles one event and commits its writes with the advanced checkpoint.
func (r *Runner) apply(ctx context.Context, ev *domain.Event, cp *domain.Checkpoint) (*domain.Checkpoint, error) {
	start := time.Now()

	if err := r.handler.Handle(ctx, ev); err != nil {
		r.unit.Discard()
		return nil, err
	}

	next := &domain.Checkpoint{
		BlockNumber:   ev.BlockNumber,
		LogIndex:      ev.LogIndex,
		TxHash:        ev.TxHash,
		EventsApplied: 1,
	}
	if cp != nil {
		next.EventsApplied = cp.EventsApplied + 1
	}
	if err := r.repo.SaveCheckpoint(ctx, next); err != nil {
		r.unit.Discard()
		return nil, err
	}
	if err := r.unit.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit %s-%d: %w", ev.TxHash, ev.LogIndex, err)
	}

	observability.RecordEventApplied(string(ev.Kind), ev.BlockNumber, time.Since(start).Seconds())
	return next, nil
}

func (r *Runner) fail(reason string, err error) error {
	observability.RecordReplayFailure(reason)
	r.logger.Error("replay stopped", zap.String("reason", reason), zap.Error(err))
	return err
}
