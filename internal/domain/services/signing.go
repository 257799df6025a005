// Package services implements domain business logic and use cases.
package services

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/services"
)

// signatureService implements SignatureService with pure business logic.
// All tuple members are canonical hex/text strings; concatenation order is
// part of the on-disk format and must not change within a scheme.
type signatureService struct{}

// NewSignatureService creates a new signature service
func NewSignatureService() services.SignatureService {
	return &signatureService{}
}

// RoleSignatureString concatenates dcp || self || cert || artifact [|| report]
func (s *signatureService) RoleSignatureString(in services.RoleSignatureInput) (string, error) {
	if err := requireParts(map[string]string{
		"dcp hash":      in.DcpHash,
		"signer hash":   in.SelfHash,
		"base cert":     in.Meta.Cert,
		"artifact hash": in.ArtifactHash,
	}); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(in.DcpHash)
	b.WriteString(in.SelfHash)
	b.WriteString(in.Meta.Cert)
	b.WriteString(in.ArtifactHash)

	switch in.Scheme {
	case entities.SchemeHC1V3:
		if in.Report == nil || in.Report.Hash == "" {
			return "", fmt.Errorf("scheme %s requires a report hash", in.Scheme)
		}
		b.WriteString(in.Report.Hash)
	case entities.SchemeHC1V1:
		// legacy tuple ends with the artifact hash
	default:
		return "", fmt.Errorf("unsupported signature scheme %q", in.Scheme)
	}

	return b.String(), nil
}

// AdminSignatureString concatenates "new_pl:" || dcp || mcs || bit || report
func (s *signatureService) AdminSignatureString(in services.AdminSignatureInput) (string, error) {
	var rptHash string
	if in.Report != nil {
		rptHash = in.Report.Hash
	}
	if err := requireParts(map[string]string{
		"dcp hash":    in.DcpHash,
		"mcs hash":    in.McsHash,
		"bit hash":    in.BitHash,
		"report hash": rptHash,
	}); err != nil {
		return "", err
	}

	return entities.AdminSigPrefix + in.DcpHash + in.McsHash + in.BitHash + rptHash, nil
}

// BuildRoleRecord derives sig and assembles the role record
func (s *signatureService) BuildRoleRecord(in services.RoleSignatureInput) (*entities.SignatureRecord, error) {
	input, err := s.RoleSignatureString(in)
	if err != nil {
		return nil, err
	}
	if in.Meta.ID.IsZero() {
		return nil, fmt.Errorf("base design metadata has no id")
	}

	record := &entities.SignatureRecord{
		BuildID:   in.Scheme.BuildID(),
		Algorithm: entities.AlgorithmHC1,
		File:      in.File,
		Sig:       SHA384Hex(input),
		Hash:      in.ArtifactHash,
	}
	record.SetLineageID(in.Meta.ID, in.Meta.IDKey)

	if in.Scheme.UsesReport() {
		record.VerifyRpt = in.Report.SummaryLine
		record.Verify = entities.VerifyStatus(in.Report.Passed)
	}

	return record, nil
}

// BuildAdminRecord derives sig and assembles the admin.sig record
func (s *signatureService) BuildAdminRecord(in services.AdminSignatureInput) (*entities.SignatureRecord, error) {
	input, err := s.AdminSignatureString(in)
	if err != nil {
		return nil, err
	}

	record := entities.NewAdminRecord()
	record.Sig = SHA384Hex(input)
	record.DcpHash = in.DcpHash
	record.McsHash = in.McsHash
	record.BitHash = in.BitHash
	record.RptHash = in.Report.Hash
	record.VerifyRpt = in.Report.SummaryLine
	record.Verify = entities.VerifyStatus(in.Report.Passed)

	return record, nil
}

// SHA384Hex returns the hex-encoded SHA-384 digest of the UTF-8 bytes of s
func SHA384Hex(s string) string {
	sum := sha512.Sum384([]byte(s))
	return hex.EncodeToString(sum[:])
}

func requireParts(parts map[string]string) error {
	var missing []string
	for name, v := range parts {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("signature input incomplete: missing %s", strings.Join(missing, ", "))
	}
	return nil
}
