// Package jsonstore provides JSON file repositories for project, metadata,
// credentials and signature records.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// MetadataRepository implements repositories.MetadataRepository using the
// 3_top<MOD>_STATIC.json files the registry publishes
type MetadataRepository struct{}

// NewMetadataRepository creates a new metadata repository
func NewMetadataRepository() *MetadataRepository {
	return &MetadataRepository{}
}

// LoadCurrentMeta reads cert and the lineage id; pl_id takes precedence over id.
// Empty strings count as missing.
func (r *MetadataRepository) LoadCurrentMeta(_ context.Context, path string) (*entities.ArtifactMetadata, error) {
	fields, err := readObject(path)
	if err != nil {
		return nil, err
	}

	rawCert, ok := fields["cert"]
	if !ok || isNull(rawCert) {
		return nil, &entities.MissingFieldError{Path: path, Field: "cert"}
	}
	var cert entities.Ident
	if err := json.Unmarshal(rawCert, &cert); err != nil {
		return nil, &entities.ParseError{Path: path, Err: err}
	}
	if cert.IsZero() {
		return nil, &entities.MissingFieldError{Path: path, Field: "cert"}
	}

	key, idField := entities.IDKeyCL, "id"
	rawID, ok := fields["pl_id"]
	if ok && !isNull(rawID) {
		key, idField = entities.IDKeyPL, "pl_id"
	} else {
		rawID, ok = fields["id"]
		if !ok || isNull(rawID) {
			return nil, &entities.MissingFieldError{Path: path, Field: "id"}
		}
	}
	var id entities.Ident
	if err := json.Unmarshal(rawID, &id); err != nil {
		return nil, &entities.ParseError{Path: path, Err: err}
	}
	if id.IsZero() {
		return nil, &entities.MissingFieldError{Path: path, Field: idField}
	}

	return &entities.ArtifactMetadata{
		ID:    id,
		IDKey: key,
		Cert:  cert.String(),
		Path:  path,
	}, nil
}

// SaveMeta atomically writes metadata exactly as served by the registry
func (r *MetadataRepository) SaveMeta(_ context.Context, path string, raw []byte) error {
	if !json.Valid(raw) {
		return &entities.ParseError{Path: path, Err: errors.New("metadata is not valid JSON")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return &entities.IOError{Op: "create directory for", Path: path, Err: err}
	}
	if err := renameio.WriteFile(path, raw, 0o644); err != nil {
		return &entities.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// readObject reads a JSON object file into its raw top-level fields
func readObject(path string) (map[string]json.RawMessage, error) {
	//nolint:gosec // G304: path is derived from the project layout
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &entities.NotFoundError{Path: path}
		}
		return nil, &entities.IOError{Op: "read", Path: path, Err: err}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &entities.ParseError{Path: path, Err: err}
	}
	if fields == nil {
		return nil, &entities.ParseError{Path: path, Err: errors.New("expected a JSON object")}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
