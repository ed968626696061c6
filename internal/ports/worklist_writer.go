package ports

import "context"

// WorklistWriter persists the files the scheduler consumes.
// Implementations must never leave a partially written document visible.
type WorklistWriter interface {
	// WriteWorklist writes the rendered worklist for plateID and returns its path.
	WriteWorklist(ctx context.Context, plateID string, xml []byte) (string, error)

	// WriteDispenseList writes a dispense list under name and returns its path.
	WriteDispenseList(ctx context.Context, name string, content []byte) (string, error)
}
