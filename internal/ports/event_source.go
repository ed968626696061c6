package ports

import "context"

// FileOp is the kind of change reported for a watched file.
type FileOp string

const (
	FileCreated  FileOp = "created"
	FileModified FileOp = "modified"
)

// FileEvent notifies that a file accepted by the watch filter is ready to
// be (re)processed. The file may still be partially written.
type FileEvent struct {
	Path string
	Op   FileOp
}

// EventSource delivers file events for a watch target.
type EventSource interface {
	// Start begins delivering events. It returns once the watch is set up.
	Start(ctx context.Context) error

	// Events returns the channel events are delivered on, in delivery order.
	// The channel is closed after Close or when ctx passed to Start is done.
	Events() <-chan FileEvent

	// Existing lists the accepted files already present at the target.
	Existing() ([]string, error)

	// Errors returns watch errors that do not stop the source.
	Errors() <-chan error

	// Close stops watching and releases resources.
	Close() error
}
