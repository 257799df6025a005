// Package services defines interfaces for domain service contracts.
package services

import "github.com/cloudfpga/cfbuild/internal/domain/entities"

// RoleSignatureInput is the tuple bound by a role/PR build signature
type RoleSignatureInput struct {
	Scheme       entities.Scheme
	File         string
	Meta         entities.ArtifactMetadata
	DcpHash      string
	SelfHash     string
	ArtifactHash string
	Report       *entities.VerificationReport // required by schemes that use it
}

// AdminSignatureInput is the tuple bound by a new base design signature
type AdminSignatureInput struct {
	DcpHash string
	McsHash string
	BitHash string
	Report  *entities.VerificationReport
}

// SignatureService derives chained signatures and assembles records
type SignatureService interface {
	// RoleSignatureString returns the exact string that is hashed
	RoleSignatureString(in RoleSignatureInput) (string, error)

	// AdminSignatureString returns the exact string that is hashed
	AdminSignatureString(in AdminSignatureInput) (string, error)

	// BuildRoleRecord derives sig and assembles the role record
	BuildRoleRecord(in RoleSignatureInput) (*entities.SignatureRecord, error)

	// BuildAdminRecord derives sig and assembles the admin.sig record
	BuildAdminRecord(in AdminSignatureInput) (*entities.SignatureRecord, error)
}
