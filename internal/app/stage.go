package app

import (
	"fmt"

	"github.com/bft-labs/gpwatch/internal/domain"
	"github.com/bft-labs/gpwatch/internal/ports"
)

// Stage is the position of one file's pipeline run.
type Stage int

const (
	StageReceived Stage = iota
	StageParsing
	StageEvaluating
	StageNoTrigger
	StageBuilding
	StageSerializing
	StageDone
	StageFailed
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "Received"
	case StageParsing:
		return "Parsing"
	case StageEvaluating:
		return "Evaluating"
	case StageNoTrigger:
		return "NoTrigger"
	case StageBuilding:
		return "Building"
	case StageSerializing:
		return "Serializing"
	case StageDone:
		return "Done"
	case StageFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether a run ends in s.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed || s == StageNoTrigger
}

// StageObserver is called on every stage change of a run.
type StageObserver interface {
	OnStageChange(runID, path string, previous, current Stage)
}

// run tracks the stage machine of a single file.
type run struct {
	id       string
	path     string
	stage    Stage
	logger   ports.Logger
	observer StageObserver
}

func newRun(id, path string, logger ports.Logger, observer StageObserver) *run {
	return &run{id: id, path: path, stage: StageReceived, logger: logger, observer: observer}
}

// transitionTo moves the run to next. Failed is reachable from every
// non-terminal stage; terminal stages accept no transition.
func (r *run) transitionTo(next Stage) error {
	prev := r.stage

	valid := false
	switch prev {
	case StageReceived:
		valid = next == StageParsing
	case StageParsing:
		valid = next == StageEvaluating
	case StageEvaluating:
		valid = next == StageNoTrigger || next == StageBuilding
	case StageBuilding:
		valid = next == StageSerializing
	case StageSerializing:
		valid = next == StageDone
	}
	if !prev.Terminal() && next == StageFailed {
		valid = true
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, prev, next)
	}

	r.stage = next

	if r.observer != nil {
		r.observer.OnStageChange(r.id, r.path, prev, next)
	}

	r.logger.Debug("stage transition",
		ports.String("run", r.id),
		ports.String("path", r.path),
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
	)
	return nil
}
