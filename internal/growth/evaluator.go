// Package growth decides when a plate's wells have grown past the trigger
// threshold.
package growth

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bft-labs/gpwatch/internal/domain"
)

// MinGrowth is the reading a well must exceed to count as grown.
const MinGrowth = 1.0

// Mode selects which samples gate the trigger.
type Mode int

const (
	modeUnset Mode = iota

	// ModeScanEarliest reports the first sample, in export order, that
	// meets the threshold.
	ModeScanEarliest

	// ModeLastOnly checks only the most recent sample.
	ModeLastOnly
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeScanEarliest:
		return "scan-earliest"
	case ModeLastOnly:
		return "last-only"
	default:
		return "unset"
	}
}

// ParseMode parses a configuration name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "scan-earliest":
		return ModeScanEarliest, nil
	case "last-only":
		return ModeLastOnly, nil
	default:
		return modeUnset, fmt.Errorf("unknown evaluation mode %q (want scan-earliest or last-only)", s)
	}
}

// Threshold returns the number of grown wells a sample needs: half the
// plate, as a real number.
func Threshold(info domain.PlateInfo) float64 {
	return float64(info.Wells()) / 2
}

// SampleResult is the evaluation of one sample.
type SampleResult struct {
	Time      string
	Grown     int
	Threshold float64
	Qualifies bool
}

// EvaluateSample counts the grown wells in s.
func EvaluateSample(info domain.PlateInfo, s domain.GrowthSample) (SampleResult, error) {
	grown := 0
	for i, v := range s.WellValues {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return SampleResult{}, fmt.Errorf("%w: time %q well %d: %q is not a number", domain.ErrFormat, s.Time, i+1, v)
		}
		if f > MinGrowth {
			grown++
		}
	}
	threshold := Threshold(info)
	return SampleResult{
		Time:      s.Time,
		Grown:     grown,
		Threshold: threshold,
		Qualifies: float64(grown) >= threshold,
	}, nil
}

// Evaluate returns the result for every sample in order.
func Evaluate(info domain.PlateInfo, samples []domain.GrowthSample) ([]SampleResult, error) {
	results := make([]SampleResult, 0, len(samples))
	for _, s := range samples {
		r, err := EvaluateSample(info, s)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// FindTriggerTime returns the time label of the triggering sample under mode.
// ok is false when no sample qualifies.
func FindTriggerTime(info domain.PlateInfo, samples []domain.GrowthSample, mode Mode) (string, bool, error) {
	switch mode {
	case ModeScanEarliest:
		for _, s := range samples {
			r, err := EvaluateSample(info, s)
			if err != nil {
				return "", false, err
			}
			if r.Qualifies {
				return s.Time, true, nil
			}
		}
		return "", false, nil

	case ModeLastOnly:
		if len(samples) == 0 {
			return "", false, nil
		}
		last := samples[len(samples)-1]
		r, err := EvaluateSample(info, last)
		if err != nil {
			return "", false, err
		}
		if r.Qualifies {
			return last.Time, true, nil
		}
		return "", false, nil

	default:
		return "", false, fmt.Errorf("evaluation mode not selected")
	}
}
