package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bft-labs/gpwatch/internal/domain"
)

const worklistExt = ".xml"

// WorklistWriter implements ports.WorklistWriter on the local file system.
// Worklists go to outputDir as {plate_id}.xml and dispense lists to
// dispenseDir under their own name.
type WorklistWriter struct {
	outputDir   string
	dispenseDir string
}

// NewWorklistWriter creates a writer. An empty dispenseDir uses outputDir.
func NewWorklistWriter(outputDir, dispenseDir string) *WorklistWriter {
	if dispenseDir == "" {
		dispenseDir = outputDir
	}
	return &WorklistWriter{outputDir: outputDir, dispenseDir: dispenseDir}
}

// WorklistPath returns the path the worklist for plateID is written to.
func (w *WorklistWriter) WorklistPath(plateID string) string {
	return filepath.Join(w.outputDir, plateID+worklistExt)
}

// WriteWorklist writes the rendered worklist for plateID.
func (w *WorklistWriter) WriteWorklist(ctx context.Context, plateID string, xml []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := w.WorklistPath(plateID)
	if err := writeAtomic(path, xml); err != nil {
		return "", fmt.Errorf("%w: write worklist %s: %v", domain.ErrIO, path, err)
	}
	return path, nil
}

// WriteDispenseList writes a dispense list under name.
func (w *WorklistWriter) WriteDispenseList(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(w.dispenseDir, filepath.Base(name))
	if err := writeAtomic(path, content); err != nil {
		return "", fmt.Errorf("%w: write dispense list %s: %v", domain.ErrIO, path, err)
	}
	return path, nil
}

// writeAtomic writes to a temp file in the target directory and renames it
// over path, so a polling scheduler never reads a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}

	// Atomic rename
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
