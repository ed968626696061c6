package domain

import "errors"

// Error kinds surfaced by the ingest pipeline. Callers wrap them with
// fmt.Errorf("...: %w", ErrX) and check them with errors.Is.
var (
	// ErrIO is returned when a file is missing, unreadable or unwritable.
	ErrIO = errors.New("io error")

	// ErrFormat is returned when an export deviates from the fixed layout or
	// contains a non-numeric value where a number is required.
	ErrFormat = errors.New("format error")

	// ErrValidation is returned when a worklist step is missing a required argument.
	ErrValidation = errors.New("validation error")
)

// Lifecycle errors.
var (
	// ErrAlreadyRunning is returned when Run() is called on a running service.
	ErrAlreadyRunning = errors.New("gpwatch: already running")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("gpwatch: invalid configuration")

	// ErrInvalidTransition is returned when a pipeline run attempts an illegal
	// stage transition.
	ErrInvalidTransition = errors.New("gpwatch: invalid stage transition")
)

// Kind classifies err for log output: "io", "format", "validation" or "unknown".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "unknown"
	}
}
