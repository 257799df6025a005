package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"

	"github.com/google/renameio/v2"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// RecordRepository reads and writes .sig files
type RecordRepository struct{}

// NewRecordRepository creates a new record repository
func NewRecordRepository() *RecordRepository {
	return &RecordRepository{}
}

// Encode renders record exactly as Save writes it
func (r *RecordRepository) Encode(record *entities.SignatureRecord) ([]byte, error) {
	return EncodeRecord(record)
}

// Save replaces the record at path via write-then-rename, so readers never
// observe a half-written file. Both files are staged before either is
// renamed; a record written without a detached signature drops a stale .asc.
func (r *RecordRepository) Save(_ context.Context, path string, data, detached []byte) error {
	ascPath := path + entities.DetachedSigExtension

	record, err := stage(path, data)
	if err != nil {
		return err
	}
	//nolint:errcheck // Cleanup is a no-op after a successful replace
	defer record.Cleanup()

	var asc *renameio.PendingFile
	if detached != nil {
		if asc, err = stage(ascPath, detached); err != nil {
			return err
		}
		//nolint:errcheck // Cleanup is a no-op after a successful replace
		defer asc.Cleanup()
	}

	if err := record.CloseAtomicallyReplace(); err != nil {
		return &entities.IOError{Op: "replace", Path: path, Err: err}
	}

	if asc == nil {
		if err := os.Remove(ascPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &entities.IOError{Op: "remove stale", Path: ascPath, Err: err}
		}
		return nil
	}
	if err := asc.CloseAtomicallyReplace(); err != nil {
		return &entities.IOError{Op: "replace", Path: ascPath, Err: err}
	}
	return nil
}

func stage(path string, data []byte) (*renameio.PendingFile, error) {
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return nil, &entities.IOError{Op: "create temporary file for", Path: path, Err: err}
	}
	if _, err := pending.Write(data); err != nil {
		//nolint:errcheck // Best-effort removal of the temporary file
		pending.Cleanup()
		return nil, &entities.IOError{Op: "write", Path: path, Err: err}
	}
	return pending, nil
}

// Load reads the record at path and returns it with its raw bytes
func (r *RecordRepository) Load(_ context.Context, path string) (*entities.SignatureRecord, []byte, error) {
	//nolint:gosec // G304: record path is derived from the artifact path
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &entities.NotFoundError{Path: path}
		}
		return nil, nil, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	var record entities.SignatureRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil, &entities.ParseError{Path: path, Err: err}
	}
	return &record, data, nil
}

// EncodeRecord renders a record as compact JSON without HTML escaping, since
// report summary lines routinely contain '<' and '>'
func EncodeRecord(record *entities.SignatureRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
