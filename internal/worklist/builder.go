// Package worklist builds and renders Momentum worklist documents that start
// liquid-handling protocols for a grown plate.
package worklist

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// Variant selects the protocol a worklist runs.
type Variant int

const (
	variantUnset Variant = iota

	// VariantDispenseAndRecord writes a dispense list on the scheduler host
	// and then dispenses it with the Mantis.
	VariantDispenseAndRecord

	// VariantSingleStepNotify records the grown plate in a single batch.
	VariantSingleStepNotify
)

// String returns the configuration name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantDispenseAndRecord:
		return "dispense-and-record"
	case VariantSingleStepNotify:
		return "single-step-notify"
	default:
		return "unset"
	}
}

// ParseVariant parses a configuration name into a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dispense-and-record":
		return VariantDispenseAndRecord, nil
	case "single-step-notify":
		return VariantSingleStepNotify, nil
	default:
		return variantUnset, fmt.Errorf("unknown protocol variant %q (want dispense-and-record or single-step-notify)", s)
	}
}

// Config holds the site-specific names and paths a Builder writes into
// documents.
type Config struct {
	DispenseWorkunit string
	NotifyWorkunit   string
	NotifyProcess    string

	Labels PlateLabels

	// MantisRoot is the dispense list directory on the scheduler host.
	MantisRoot string

	DispenseVolume float64
	Reagent        string
	Viscosity      string

	// Now stamps dispense list names. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the configuration of the Momentum/Mantis cell.
func DefaultConfig() Config {
	return Config{
		DispenseWorkunit: "Mantis-Workunit",
		NotifyWorkunit:   "GrowthProfile-Workunit",
		NotifyProcess:    "Growth Profile Notify",
		Labels:           DefaultPlateLabels(),
		MantisRoot:       `C:\Mantis-0740\Mantis-0740\Mantis\Data\User\DispenseList\`,
		DispenseVolume:   2,
		Reagent:          "Water",
		Viscosity:        "1 cP",
		Now:              time.Now,
	}
}

// Builder assembles worklist documents.
type Builder struct {
	cfg Config
}

// NewBuilder creates a builder. A nil Now defaults to time.Now.
func NewBuilder(cfg Config) *Builder {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Builder{cfg: cfg}
}

// Result is a built worklist and the files that go with it.
type Result struct {
	Variant     Variant
	TriggerTime string
	Document    *Document

	// DispenseList is set for VariantDispenseAndRecord.
	DispenseList *DispenseList
}

// Build creates the worklist for a plate that triggered at triggerTime.
func (b *Builder) Build(info domain.PlateInfo, triggerTime string, variant Variant) (*Result, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Variant: variant, TriggerTime: triggerTime}

	var name string
	var args Args
	var protocol []Step

	switch variant {
	case VariantDispenseAndRecord:
		list := b.DispenseList(info)
		res.DispenseList = &list
		name = b.cfg.DispenseWorkunit
		args = Args{
			ArgBarcode:      info.PlateID,
			ArgPlateType:    b.cfg.Labels.For(info.Wells()),
			ArgDispenseList: list.Name,
			ArgFileName:     joinWindows(b.cfg.MantisRoot, list.Name),
			ArgFileContents: list.Content,
		}
		protocol = []Step{WriteFileStep(), MantisDispenseStep()}

	case VariantSingleStepNotify:
		name = b.cfg.NotifyWorkunit
		args = Args{
			ArgBarcode:   info.PlateID,
			ArgPlateSize: strconv.Itoa(info.Wells()),
			ArgPlateType: info.PlateType,
		}
		protocol = []Step{NotifyStep(b.cfg.NotifyProcess)}

	default:
		return nil, fmt.Errorf("%w: protocol variant not selected", domain.ErrValidation)
	}

	doc := &Document{Workunit: Workunit{
		Name:             name,
		Append:           false,
		AutoLoad:         true,
		AutoVerifyLoad:   true,
		AutoUnload:       true,
		AutoVerifyUnload: true,
	}}

	for i, step := range protocol {
		a := args.clone()
		a[ArgStep] = strconv.Itoa(i + 1)
		batch, err := step.Batch(a)
		if err != nil {
			return nil, err
		}
		doc.Workunit.Batches = append(doc.Workunit.Batches, batch)
	}

	res.Document = doc
	return res, nil
}
