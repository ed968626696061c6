package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/growth"
	"github.com/bft-labs/gpwatch/internal/plate"
	"github.com/bft-labs/gpwatch/internal/ports"
	"github.com/bft-labs/gpwatch/internal/worklist"
)

// PipelineConfig selects the evaluation mode and protocol. Both must be set.
type PipelineConfig struct {
	Mode    growth.Mode
	Variant worklist.Variant
}

// Pipeline runs parse → evaluate → build → write for one export at a time.
type Pipeline struct {
	cfg       PipelineConfig
	extractor *plate.Extractor
	builder   *worklist.Builder
	writer    ports.WorklistWriter
	logger    ports.Logger
	observer  StageObserver
	newID     func() string
}

// NewPipeline wires a pipeline. observer may be nil.
func NewPipeline(
	cfg PipelineConfig,
	extractor *plate.Extractor,
	builder *worklist.Builder,
	writer ports.WorklistWriter,
	logger ports.Logger,
	observer StageObserver,
) (*Pipeline, error) {
	if cfg.Mode != growth.ModeScanEarliest && cfg.Mode != growth.ModeLastOnly {
		return nil, fmt.Errorf("%w: evaluation mode not selected", domain.ErrInvalidConfig)
	}
	if cfg.Variant != worklist.VariantDispenseAndRecord && cfg.Variant != worklist.VariantSingleStepNotify {
		return nil, fmt.Errorf("%w: protocol variant not selected", domain.ErrInvalidConfig)
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		builder:   builder,
		writer:    writer,
		logger:    logger,
		observer:  observer,
		newID:     uuid.NewString,
	}, nil
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	RunID    string
	Path     string
	Stage    Stage
	Plate    domain.PlateInfo
	Samples  int
	Duration time.Duration

	// TriggerTime is set when a sample met the threshold.
	TriggerTime string

	WorklistPath     string
	DispenseListPath string

	// Err is set when Stage is StageFailed.
	Err error
}

// Kind returns the error kind of a failed run.
func (o Outcome) Kind() string {
	return domain.Kind(o.Err)
}

// Process runs the pipeline for path to a terminal stage. Failures are
// logged and reported in the Outcome; Process never panics and never
// returns an error to the caller's loop.
func (p *Pipeline) Process(ctx context.Context, path string) (out Outcome) {
	start := time.Now()
	r := newRun(p.newID(), path, p.logger, p.observer)
	out = Outcome{RunID: r.id, Path: path, Stage: StageReceived}

	fail := func(err error) {
		out.Err = err
		if terr := r.transitionTo(StageFailed); terr != nil {
			p.logger.Error("stage transition", ports.String("run", r.id), ports.Err(terr))
		}
		out.Stage = r.stage
	}

	defer func() {
		if rec := recover(); rec != nil {
			fail(fmt.Errorf("panic: %v", rec))
		}
		out.Duration = time.Since(start)
		p.logOutcome(out)
	}()

	p.logger.Info("processing file", ports.String("run", r.id), ports.String("path", path))

	// Parsing
	if err := r.transitionTo(StageParsing); err != nil {
		fail(err)
		return out
	}
	info, samples, err := p.extractor.ExtractFile(path)
	if err != nil {
		fail(err)
		return out
	}
	out.Plate = info
	out.Samples = len(samples)

	// Evaluating
	if err := r.transitionTo(StageEvaluating); err != nil {
		fail(err)
		return out
	}
	triggerTime, ok, err := growth.FindTriggerTime(info, samples, p.cfg.Mode)
	if err != nil {
		fail(fmt.Errorf("%s: %w", path, err))
		return out
	}
	if !ok {
		if err := r.transitionTo(StageNoTrigger); err != nil {
			fail(err)
			return out
		}
		out.Stage = r.stage
		return out
	}
	out.TriggerTime = triggerTime

	// Building
	if err := r.transitionTo(StageBuilding); err != nil {
		fail(err)
		return out
	}
	res, err := p.builder.Build(info, triggerTime, p.cfg.Variant)
	if err != nil {
		fail(err)
		return out
	}
	xml, err := worklist.Render(res.Document)
	if err != nil {
		fail(err)
		return out
	}

	// Serializing
	if err := r.transitionTo(StageSerializing); err != nil {
		fail(err)
		return out
	}
	if res.DispenseList != nil {
		listPath, err := p.writer.WriteDispenseList(ctx, res.DispenseList.Name, []byte(res.DispenseList.Content))
		if err != nil {
			fail(err)
			return out
		}
		out.DispenseListPath = listPath
	}
	xmlPath, err := p.writer.WriteWorklist(ctx, info.PlateID, xml)
	if err != nil {
		fail(err)
		return out
	}
	out.WorklistPath = xmlPath

	if err := r.transitionTo(StageDone); err != nil {
		fail(err)
		return out
	}
	out.Stage = r.stage
	return out
}

func (p *Pipeline) logOutcome(out Outcome) {
	base := []ports.Field{
		ports.String("run", out.RunID),
		ports.String("path", out.Path),
		ports.String("stage", out.Stage.String()),
		ports.Duration("duration", out.Duration),
	}

	switch out.Stage {
	case StageFailed:
		p.logger.Error("pipeline failed", append(base,
			ports.String("kind", out.Kind()),
			ports.Err(out.Err),
		)...)
	case StageNoTrigger:
		p.logger.Info("growth threshold not reached", append(base,
			ports.String("plate", out.Plate.PlateID),
			ports.Int("samples", out.Samples),
			ports.Float64("threshold", growth.Threshold(out.Plate)),
			ports.String("mode", p.cfg.Mode.String()),
		)...)
	case StageDone:
		p.logger.Info("worklist written", append(base,
			ports.String("plate", out.Plate.PlateID),
			ports.String("trigger_time", out.TriggerTime),
			ports.String("variant", p.cfg.Variant.String()),
			ports.String("worklist", out.WorklistPath),
			ports.String("dispense_list", out.DispenseListPath),
		)...)
	}
}
