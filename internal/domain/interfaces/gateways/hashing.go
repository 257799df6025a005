// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// ContentHasher computes hex-encoded SHA-256 digests
type ContentHasher interface {
	// HashFile streams a file through SHA-256
	HashFile(ctx context.Context, path string) (string, error)

	// HashFiles hashes several files, returning digests in argument order
	HashFiles(ctx context.Context, paths ...string) ([]string, error)

	// HashString hashes the UTF-8 bytes of text
	HashString(text string) string
}

// ReportParser condenses a PR verify report
type ReportParser interface {
	// ParseReport reads the report and checks that its summary line
	// references expectedName
	ParseReport(ctx context.Context, path, expectedName string) (*entities.VerificationReport, error)
}

// Locker serializes access to a project's metadata and signature files
type Locker interface {
	// Acquire blocks until the lock at path is held or ctx is done
	Acquire(ctx context.Context, path string) (release func() error, err error)
}

// RecordSigner produces and checks detached signatures over record files
type RecordSigner interface {
	// Sign returns an armored detached signature over data
	Sign(data []byte) ([]byte, error)

	// VerifyFile checks the detached signature at sigPath against path
	VerifyFile(path, sigPath string) error
}

// RecordValidator checks signature record documents against their schema
type RecordValidator interface {
	ValidateRecord(data []byte) error
}
