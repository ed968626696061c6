package domain

import (
	"fmt"
	"strings"
)

// MaxWells bounds the well count of a plate. The densest standard plate
// format is 1536 wells (32x48).
const MaxWells = 1536

// PlateInfo describes the plate a growth export was recorded from.
// It is immutable once extracted.
type PlateInfo struct {
	// PlateID is the plate barcode. It is used as a filename stem and as the
	// prefix of every batch name, so it never contains a path separator.
	PlateID string

	// PlateType is the reader's plate type label.
	PlateType string

	NumRows    int
	NumColumns int
}

// Wells returns the total well count.
func (p PlateInfo) Wells() int {
	return p.NumRows * p.NumColumns
}

// Validate checks the plate invariants.
func (p PlateInfo) Validate() error {
	if p.PlateID == "" {
		return fmt.Errorf("%w: plate id is empty", ErrFormat)
	}
	if strings.ContainsAny(p.PlateID, `/\`) {
		return fmt.Errorf("%w: plate id %q contains a path separator", ErrFormat, p.PlateID)
	}
	if p.NumRows < 1 || p.NumColumns < 1 {
		return fmt.Errorf("%w: plate dimensions %dx%d must be positive", ErrFormat, p.NumRows, p.NumColumns)
	}
	if p.NumRows > MaxWells || p.NumColumns > MaxWells || p.Wells() > MaxWells {
		return fmt.Errorf("%w: plate dimensions %dx%d exceed %d wells", ErrFormat, p.NumRows, p.NumColumns, MaxWells)
	}
	return nil
}

// GrowthSample holds the readings of every well at one timepoint.
// Samples keep the order they appear in the export, which is chronological.
type GrowthSample struct {
	// Time is the export's time label. It is opaque and never parsed.
	Time string

	// WellValues has exactly PlateInfo.Wells() entries in the export's
	// positional well order.
	WellValues []string
}
