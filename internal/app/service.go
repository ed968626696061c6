package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/ports"
)

// ServiceConfig contains configuration for the watch loop.
type ServiceConfig struct {
	// OutputDir holds the lock file.
	OutputDir string

	// ProcessExisting runs the pipeline over files already at the target
	// before waiting for events.
	ProcessExisting bool

	// OnOutcome is called after every pipeline run. Optional.
	OnOutcome func(Outcome)
}

// Service dispatches file events to the pipeline, one at a time.
type Service struct {
	config   ServiceConfig
	source   ports.EventSource
	pipeline *Pipeline
	logger   ports.Logger
	lock     *OutputLock
	running  atomic.Bool
}

// NewService creates a watch service.
func NewService(config ServiceConfig, source ports.EventSource, pipeline *Pipeline, logger ports.Logger) (*Service, error) {
	if config.OutputDir == "" {
		return nil, fmt.Errorf("%w: output directory is required", domain.ErrInvalidConfig)
	}
	if source == nil || pipeline == nil {
		return nil, fmt.Errorf("%w: event source and pipeline are required", domain.ErrInvalidConfig)
	}
	return &Service{
		config:   config,
		source:   source,
		pipeline: pipeline,
		logger:   logger,
		lock:     NewOutputLock(config.OutputDir),
	}, nil
}

// Run watches until ctx is cancelled or the event source closes. A run
// already in progress when ctx is cancelled is allowed to finish.
// Returns an error only when the service could not start.
func (s *Service) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if err := s.lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := s.lock.Release(); err != nil {
			s.logger.Warn("failed to release lock", ports.Err(err))
		}
	}()

	if err := s.source.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("failed to close watcher", ports.Err(err))
		}
	}()

	s.logger.Info("service started", ports.String("lock", s.lock.Path()))

	if s.config.ProcessExisting {
		s.processExisting(ctx)
	}

	events := s.source.Events()
	errs := s.source.Errors()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("service stopping")
			return nil
		case ev, ok := <-events:
			if !ok {
				s.logger.Info("event source closed")
				return nil
			}
			s.logger.Debug("file event", ports.String("path", ev.Path), ports.String("op", string(ev.Op)))
			s.process(ctx, ev.Path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			s.logger.Warn("watch error", ports.Err(err))
		}
	}
}

// Running reports whether Run is active.
func (s *Service) Running() bool {
	return s.running.Load()
}

func (s *Service) processExisting(ctx context.Context) {
	paths, err := s.source.Existing()
	if err != nil {
		s.logger.Error("failed to list existing files", ports.Err(err))
		return
	}
	s.logger.Info("processing existing files", ports.Int("count", len(paths)))
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		s.process(ctx, path)
	}
}

// process shields the run from ctx cancellation so shutdown never leaves
// a half-written output.
func (s *Service) process(ctx context.Context, path string) {
	out := s.pipeline.Process(context.WithoutCancel(ctx), path)
	if s.config.OnOutcome != nil {
		s.config.OnOutcome(out)
	}
}
