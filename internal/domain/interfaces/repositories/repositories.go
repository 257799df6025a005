// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// ProjectRepository reads the per-project cFp.json
type ProjectRepository interface {
	// LoadProject reads cFp.json from root
	LoadProject(ctx context.Context, root string) (*entities.Project, error)
}

// MetadataRepository is the certificate chain store for base designs
type MetadataRepository interface {
	// LoadCurrentMeta reads the trusted base design metadata
	LoadCurrentMeta(ctx context.Context, path string) (*entities.ArtifactMetadata, error)

	// SaveMeta writes metadata exactly as served by the registry
	SaveMeta(ctx context.Context, path string, raw []byte) error
}

// RecordRepository persists signature records
type RecordRepository interface {
	// Encode renders the exact bytes Save writes for record
	Encode(record *entities.SignatureRecord) ([]byte, error)

	// Save atomically replaces the record at path with data. A non-nil
	// detached signature is written to <path>.asc; otherwise an existing
	// <path>.asc is removed.
	Save(ctx context.Context, path string, data, detached []byte) error

	// Load reads a record and returns it together with its raw bytes
	Load(ctx context.Context, path string) (*entities.SignatureRecord, []byte, error)
}

// CredentialsRepository reads registry credentials
type CredentialsRepository interface {
	// LoadCredentials reads user.json from root, writing a template when absent
	LoadCredentials(ctx context.Context, root string) (*entities.Credentials, error)
}
