// Package gpwatch watches growth profiler exports and, once a plate has
// grown, writes the Momentum worklist (and Mantis dispense list) that
// schedules its next step.
//
// Example usage:
//
//	cfg := gpwatch.DefaultConfig()
//	cfg.Target = "/data/growth-profiler/exports"
//	cfg.OutputDir = "/data/momentum/worklists"
//	if err := gpwatch.Run(ctx, cfg, gpwatch.WithLogger(logger)); err != nil {
//	    log.Fatal(err)
//	}
package gpwatch

import (
	"context"
	"fmt"
	"time"

	fsAdapter "github.com/bft-labs/gpwatch/internal/adapters/fs"
	logAdapter "github.com/bft-labs/gpwatch/internal/adapters/log"
	"github.com/bft-labs/gpwatch/internal/app"
	"github.com/bft-labs/gpwatch/internal/cliconfig"
	"github.com/bft-labs/gpwatch/internal/plate"
	"github.com/bft-labs/gpwatch/internal/ports"
	"github.com/bft-labs/gpwatch/internal/worklist"
)

// Config holds the watcher configuration.
// Use DefaultConfig() to get a Config with the deployed defaults.
type Config = cliconfig.Config

// Outcome is the result of processing one export.
type Outcome = app.Outcome

// Stage is the position of an export in the pipeline.
type Stage = app.Stage

// StageObserver is notified of every stage change.
type StageObserver = app.StageObserver

// Pipeline processes exports one at a time.
type Pipeline = app.Pipeline

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// Option configures optional behavior of Run and NewPipeline.
type Option func(*options)

type options struct {
	logger    ports.Logger
	observer  app.StageObserver
	onOutcome func(Outcome)
	now       func() time.Time
}

func defaultOptions() options {
	return options{logger: logAdapter.NewNoopLogger()}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStageObserver registers an observer for pipeline stage changes.
func WithStageObserver(obs StageObserver) Option {
	return func(o *options) { o.observer = obs }
}

// WithOutcomeHandler registers fn to be called after every run in Run.
func WithOutcomeHandler(fn func(Outcome)) Option {
	return func(o *options) { o.onOutcome = fn }
}

// WithClock overrides the clock used to stamp dispense list names.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// DefaultConfig returns a Config with the deployed defaults. Target must be
// set before calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// NewPipeline validates cfg and builds a pipeline writing to cfg.OutputDir.
func NewPipeline(cfg Config, opts ...Option) (*Pipeline, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newPipeline(cfg, o)
}

func newPipeline(cfg Config, o options) (*Pipeline, error) {
	extractor, err := plate.NewExtractor(plate.DefaultLayout())
	if err != nil {
		return nil, err
	}
	wl := cfg.WorklistConfig()
	if o.now != nil {
		wl.Now = o.now
	}
	return app.NewPipeline(
		app.PipelineConfig{Mode: cfg.GrowthMode(), Variant: cfg.ProtocolVariant()},
		extractor,
		worklist.NewBuilder(wl),
		fsAdapter.NewWorklistWriter(cfg.OutputDir, cfg.DispenseDir),
		o.logger,
		o.observer,
	)
}

// LockOutput takes the single-writer lock on dir without blocking. It fails
// with an error wrapping ErrAlreadyRunning when another instance holds it.
// The returned function releases the lock.
func LockOutput(dir string) (func() error, error) {
	lock := app.NewOutputLock(dir)
	if err := lock.Acquire(); err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// Run watches cfg.Target and processes exports until ctx is cancelled.
// It returns an error only if watching could not start.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	target, err := cliconfig.ResolveTarget(&cfg)
	if err != nil {
		return err
	}

	watcher, err := fsAdapter.NewWatcher(fsAdapter.WatcherConfig{
		Target:     target.Path,
		Extensions: cfg.Extensions,
		Pattern:    cfg.Pattern,
		Debounce:   cfg.Debounce,
	}, o.logger)
	if err != nil {
		return err
	}

	pipeline, err := newPipeline(cfg, o)
	if err != nil {
		return err
	}

	svc, err := app.NewService(app.ServiceConfig{
		OutputDir:       cfg.OutputDir,
		ProcessExisting: cfg.ProcessExisting,
		OnOutcome:       o.onOutcome,
	}, watcher, pipeline, o.logger)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return svc.Run(ctx)
}
