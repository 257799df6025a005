package gateways

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// AtomicWriter streams content into a temporary file and renames it over
// the destination only once the stream completed
type AtomicWriter struct {
	perm os.FileMode
}

// NewAtomicWriter creates a writer producing files with mode 0644
func NewAtomicWriter() *AtomicWriter {
	return &AtomicWriter{perm: 0o644}
}

// WriteStream calls fill with a pending file for path. The previous content
// of path survives any error returned by fill.
func (w *AtomicWriter) WriteStream(path string, fill func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &entities.IOError{Op: "create directory for", Path: path, Err: err}
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(w.perm))
	if err != nil {
		return &entities.IOError{Op: "create temporary file for", Path: path, Err: err}
	}
	//nolint:errcheck // Cleanup is a no-op after a successful replace
	defer pending.Cleanup()

	if err := fill(pending); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return &entities.IOError{Op: "replace", Path: path, Err: err}
	}
	return nil
}
