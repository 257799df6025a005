// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/gateways"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/repositories"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/services"
)

// ProjectLocator checks artifact presence and lists existing records
type ProjectLocator interface {
	RequireFiles(paths ...string) error
	FindSignatures(layout entities.ProjectLayout) ([]string, error)
}

// SigningDependencies are the collaborators of the signing workflow.
// Validator and RecordSigner are optional.
type SigningDependencies struct {
	Locator      ProjectLocator
	Hasher       gateways.ContentHasher
	Reports      gateways.ReportParser
	Locker       gateways.Locker
	Metadata     repositories.MetadataRepository
	Records      repositories.RecordRepository
	Signatures   services.SignatureService
	Validator    gateways.RecordValidator
	RecordSigner gateways.RecordSigner
	Logger       interfaces.Logger
}

// SigningOrchestratorConfig holds configuration for the orchestrator
type SigningOrchestratorConfig struct {
	Scheme        entities.Scheme
	SignerPath    string // file hashed as the signer's own identity
	SignRecords   bool   // write <record>.asc after every signature
	VerifyRecords bool   // check <record>.asc when present
}

// SigningOrchestrator coordinates the create, admin and verify workflows
type SigningOrchestrator struct {
	deps   SigningDependencies
	config SigningOrchestratorConfig
	logger interfaces.Logger
}

// NewSigningOrchestrator creates a new signing orchestrator
func NewSigningOrchestrator(deps SigningDependencies, config SigningOrchestratorConfig) *SigningOrchestrator {
	if config.Scheme == "" {
		config.Scheme = entities.DefaultScheme
	}
	logger := deps.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &SigningOrchestrator{deps: deps, config: config, logger: logger}
}

// RoleRequest names the artifact (and report) of a role build, relative to dcps/
type RoleRequest struct {
	Artifact string
	Report   string          // report file name or "ignore"; hc1-v3 only
	Scheme   entities.Scheme // empty selects the configured scheme
}

// AdminRequest names the outputs of a base design build, relative to dcps/
type AdminRequest struct {
	Mcs    string
	Bit    string
	Report string
}

// SignResult describes a written record
type SignResult struct {
	RecordPath    string
	SignaturePath string // detached OpenPGP signature, if written
	Record        *entities.SignatureRecord
	Report        *entities.VerificationReport
}

// VerifyResult describes a checked record
type VerifyResult struct {
	RecordPath string
	Record     *entities.SignatureRecord
	Checks     []string
	Err        error
}

// SignRole signs a role/PR artifact against the current base design
func (o *SigningOrchestrator) SignRole(ctx context.Context, layout entities.ProjectLayout, req RoleRequest) (*SignResult, error) {
	scheme := o.scheme(req.Scheme)
	if err := checkReportArg(scheme, req.Report); err != nil {
		return nil, err
	}

	artifactPath := layout.InDcps(req.Artifact)
	reportPath := o.reportPath(layout, scheme, req.Report)
	required := []string{artifactPath}
	if reportPath != entities.IgnoreKey && reportPath != "" {
		required = append(required, reportPath)
	}
	required = append(required, layout.StaticDcpPath(), layout.StaticMetaPath(), o.config.SignerPath)

	// nothing is hashed or written unless every input exists
	if err := o.deps.Locator.RequireFiles(required...); err != nil {
		return nil, err
	}

	unlock, err := o.deps.Locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer o.release(unlock)

	meta, err := o.deps.Metadata.LoadCurrentMeta(ctx, layout.StaticMetaPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load base design metadata: %w", err)
	}

	in, err := o.roleInput(ctx, layout, scheme, req.Artifact, artifactPath, reportPath, *meta)
	if err != nil {
		return nil, err
	}

	record, err := o.deps.Signatures.BuildRoleRecord(in)
	if err != nil {
		return nil, err
	}

	result, err := o.persist(ctx, layout.SigPath(req.Artifact), record)
	if err != nil {
		return nil, err
	}
	result.Report = in.Report

	o.reportOutcome(layout, result)
	return result, nil
}

// SignAdmin signs a newly built base design into admin.sig
func (o *SigningOrchestrator) SignAdmin(ctx context.Context, layout entities.ProjectLayout, req AdminRequest) (*SignResult, error) {
	if req.Mcs == "" || req.Bit == "" || req.Report == "" {
		return nil, fmt.Errorf("%w: admin signature needs <mcs-file> <bit-file> <pr-verify-report>", entities.ErrUsage)
	}

	mcsPath, bitPath, reportPath := layout.InDcps(req.Mcs), layout.InDcps(req.Bit), layout.InDcps(req.Report)
	if err := o.deps.Locator.RequireFiles(mcsPath, bitPath, reportPath, layout.StaticDcpPath()); err != nil {
		return nil, err
	}

	unlock, err := o.deps.Locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer o.release(unlock)

	in, err := o.adminInput(ctx, layout, mcsPath, bitPath, reportPath)
	if err != nil {
		return nil, err
	}

	record, err := o.deps.Signatures.BuildAdminRecord(in)
	if err != nil {
		return nil, err
	}

	result, err := o.persist(ctx, layout.AdminSigPath(), record)
	if err != nil {
		return nil, err
	}
	result.Report = in.Report

	o.reportOutcome(layout, result)
	return result, nil
}

// VerifyRole re-derives the signature of <artifact>.sig from current inputs.
// Records written in ignore mode are re-derived with the ignore constant
// unless a report is passed explicitly.
func (o *SigningOrchestrator) VerifyRole(ctx context.Context, layout entities.ProjectLayout, req RoleRequest) (*VerifyResult, error) {
	sigPath := layout.SigPath(req.Artifact)
	artifactPath := layout.InDcps(req.Artifact)
	required := []string{sigPath, artifactPath, layout.StaticDcpPath(), layout.StaticMetaPath(), o.config.SignerPath}
	if req.Report != "" && req.Report != entities.IgnoreKey {
		required = append(required, layout.InDcps(req.Report))
	}
	if err := o.deps.Locator.RequireFiles(required...); err != nil {
		return nil, err
	}

	unlock, err := o.deps.Locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer o.release(unlock)

	result := &VerifyResult{RecordPath: sigPath}
	record, err := o.loadRecord(ctx, result)
	if err != nil {
		return result, err
	}
	if record.IsAdmin() {
		return result, fmt.Errorf("%w: %s is an admin record", entities.ErrInvalidRecord, sigPath)
	}

	scheme, err := entities.SchemeForBuildID(record.BuildID)
	if err != nil {
		return result, fmt.Errorf("%w: %v", entities.ErrInvalidRecord, err)
	}

	if record.File != req.Artifact {
		return result, &entities.MismatchError{Field: "file", Expected: req.Artifact, Actual: record.File}
	}

	reportArg := req.Report
	if scheme.UsesReport() && reportArg == "" {
		if record.VerifyRpt != entities.IgnoreKey {
			return result, fmt.Errorf("%w: %s was signed from a PR verify report; pass the report to verify it", entities.ErrUsage, sigPath)
		}
		reportArg = entities.IgnoreKey
	}

	meta, err := o.deps.Metadata.LoadCurrentMeta(ctx, layout.StaticMetaPath())
	if err != nil {
		return result, fmt.Errorf("failed to load base design metadata: %w", err)
	}
	if id, _, ok := record.LineageID(); !ok || id.String() != meta.ID.String() {
		return result, &entities.MismatchError{Field: string(meta.IDKey), Expected: meta.ID.String(), Actual: id.String()}
	}
	result.Checks = append(result.Checks, "lineage")

	in, err := o.roleInput(ctx, layout, scheme, req.Artifact, artifactPath, o.reportPath(layout, scheme, reportArg), *meta)
	if err != nil {
		return result, err
	}

	if in.ArtifactHash != record.Hash {
		return result, &entities.MismatchError{Field: "hash", Expected: record.Hash, Actual: in.ArtifactHash}
	}
	result.Checks = append(result.Checks, "transport")

	expected, err := o.deps.Signatures.BuildRoleRecord(in)
	if err != nil {
		return result, err
	}
	if expected.Sig != record.Sig {
		return result, &entities.MismatchError{Field: "sig", Expected: record.Sig, Actual: expected.Sig}
	}
	result.Checks = append(result.Checks, "signature")

	if err := o.verifyDetached(result); err != nil {
		return result, err
	}

	o.logger.Info("signature verified", interfaces.F("file", record.File), interfaces.F("checks", result.Checks))
	return result, nil
}

// VerifyAdmin re-derives admin.sig from the base design outputs
func (o *SigningOrchestrator) VerifyAdmin(ctx context.Context, layout entities.ProjectLayout, req AdminRequest) (*VerifyResult, error) {
	if req.Mcs == "" || req.Bit == "" || req.Report == "" {
		return nil, fmt.Errorf("%w: admin verification needs <mcs-file> <bit-file> <pr-verify-report>", entities.ErrUsage)
	}

	sigPath := layout.AdminSigPath()
	mcsPath, bitPath, reportPath := layout.InDcps(req.Mcs), layout.InDcps(req.Bit), layout.InDcps(req.Report)
	if err := o.deps.Locator.RequireFiles(sigPath, mcsPath, bitPath, reportPath, layout.StaticDcpPath()); err != nil {
		return nil, err
	}

	unlock, err := o.deps.Locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer o.release(unlock)

	result := &VerifyResult{RecordPath: sigPath}
	record, err := o.loadRecord(ctx, result)
	if err != nil {
		return result, err
	}
	if !record.IsAdmin() {
		return result, fmt.Errorf("%w: %s is not an admin record", entities.ErrInvalidRecord, sigPath)
	}

	in, err := o.adminInput(ctx, layout, mcsPath, bitPath, reportPath)
	if err != nil {
		return result, err
	}

	for _, c := range []struct{ field, stored, current string }{
		{"dcp_hash", record.DcpHash, in.DcpHash},
		{"mcs_hash", record.McsHash, in.McsHash},
		{"bit_hash", record.BitHash, in.BitHash},
		{"rpt_hash", record.RptHash, in.Report.Hash},
	} {
		if c.stored != c.current {
			return result, &entities.MismatchError{Field: c.field, Expected: c.stored, Actual: c.current}
		}
	}
	result.Checks = append(result.Checks, "transport")

	expected, err := o.deps.Signatures.BuildAdminRecord(in)
	if err != nil {
		return result, err
	}
	if expected.Sig != record.Sig {
		return result, &entities.MismatchError{Field: "sig", Expected: record.Sig, Actual: expected.Sig}
	}
	result.Checks = append(result.Checks, "signature")

	if err := o.verifyDetached(result); err != nil {
		return result, err
	}

	o.logger.Info("admin signature verified", interfaces.F("checks", result.Checks))
	return result, nil
}

// VerifyAll checks schema, transport hash and detached signature of every
// record under dcps/. Signatures are not re-derived since the report inputs
// of historical records are not known.
func (o *SigningOrchestrator) VerifyAll(ctx context.Context, layout entities.ProjectLayout) ([]*VerifyResult, error) {
	paths, err := o.deps.Locator.FindSignatures(layout)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, &entities.NotFoundError{Path: layout.InDcps("*" + entities.SigFileExtension)}
	}

	unlock, err := o.deps.Locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer o.release(unlock)

	results := make([]*VerifyResult, 0, len(paths))
	var errs []error
	for _, path := range paths {
		result := &VerifyResult{RecordPath: path}
		result.Err = o.checkRecord(ctx, layout, result)
		if result.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, result.Err))
			o.logger.Warn("record check failed", interfaces.F("record", path), interfaces.F("error", result.Err))
		} else {
			o.logger.Info("record checked", interfaces.F("record", path), interfaces.F("checks", result.Checks))
		}
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

func (o *SigningOrchestrator) checkRecord(ctx context.Context, layout entities.ProjectLayout, result *VerifyResult) error {
	record, err := o.loadRecord(ctx, result)
	if err != nil {
		return err
	}

	if record.IsAdmin() {
		dcp := layout.StaticDcpPath()
		if o.deps.Locator.RequireFiles(dcp) == nil {
			current, err := o.deps.Hasher.HashFile(ctx, dcp)
			if err != nil {
				return err
			}
			if current != record.DcpHash {
				return &entities.MismatchError{Field: "dcp_hash", Expected: record.DcpHash, Actual: current}
			}
			result.Checks = append(result.Checks, "transport")
		}
	} else {
		artifact := strings.TrimSuffix(result.RecordPath, entities.SigFileExtension)
		if err := o.deps.Locator.RequireFiles(artifact); err != nil {
			return err
		}
		current, err := o.deps.Hasher.HashFile(ctx, artifact)
		if err != nil {
			return err
		}
		if current != record.Hash {
			return &entities.MismatchError{Field: "hash", Expected: record.Hash, Actual: current}
		}
		result.Checks = append(result.Checks, "transport")
	}

	return o.verifyDetached(result)
}

func (o *SigningOrchestrator) roleInput(
	ctx context.Context,
	layout entities.ProjectLayout,
	scheme entities.Scheme,
	name, artifactPath, reportPath string,
	meta entities.ArtifactMetadata,
) (services.RoleSignatureInput, error) {
	hashes, err := o.deps.Hasher.HashFiles(ctx, layout.StaticDcpPath(), o.config.SignerPath, artifactPath)
	if err != nil {
		return services.RoleSignatureInput{}, err
	}

	in := services.RoleSignatureInput{
		Scheme:       scheme,
		File:         name,
		Meta:         meta,
		DcpHash:      hashes[0],
		SelfHash:     hashes[1],
		ArtifactHash: hashes[2],
	}

	if scheme.UsesReport() {
		in.Report, err = o.deps.Reports.ParseReport(ctx, reportPath, layout.StaticDcpName())
		if err != nil {
			return services.RoleSignatureInput{}, err
		}
	}

	o.logger.Debug("role signature inputs",
		interfaces.F("dcp_hash", in.DcpHash),
		interfaces.F("my_hash", in.SelfHash),
		interfaces.F("artifact_hash", in.ArtifactHash),
		interfaces.F("rpt_hash", reportHash(in.Report)),
		interfaces.F("scheme", scheme))
	if s, err := o.deps.Signatures.RoleSignatureString(in); err == nil {
		o.logger.Debug("new cert string", interfaces.F("value", s))
	}

	return in, nil
}

func (o *SigningOrchestrator) adminInput(
	ctx context.Context,
	layout entities.ProjectLayout,
	mcsPath, bitPath, reportPath string,
) (services.AdminSignatureInput, error) {
	hashes, err := o.deps.Hasher.HashFiles(ctx, layout.StaticDcpPath(), mcsPath, bitPath)
	if err != nil {
		return services.AdminSignatureInput{}, err
	}

	report, err := o.deps.Reports.ParseReport(ctx, reportPath, layout.StaticDcpName())
	if err != nil {
		return services.AdminSignatureInput{}, err
	}

	in := services.AdminSignatureInput{
		DcpHash: hashes[0],
		McsHash: hashes[1],
		BitHash: hashes[2],
		Report:  report,
	}

	o.logger.Debug("admin signature inputs",
		interfaces.F("dcp_hash", in.DcpHash),
		interfaces.F("mcs_hash", in.McsHash),
		interfaces.F("bit_hash", in.BitHash),
		interfaces.F("rpt_hash", report.Hash))
	if s, err := o.deps.Signatures.AdminSignatureString(in); err == nil {
		o.logger.Debug("new cert string", interfaces.F("value", s))
	}

	return in, nil
}

// persist signs the encoded record before anything touches disk, so a
// failed run leaves the previous record and its .asc untouched
func (o *SigningOrchestrator) persist(ctx context.Context, path string, record *entities.SignatureRecord) (*SignResult, error) {
	data, err := o.deps.Records.Encode(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record %s: %w", path, err)
	}

	var detached []byte
	if o.config.SignRecords && o.deps.RecordSigner != nil {
		detached, err = o.deps.RecordSigner.Sign(data)
		if err != nil {
			return nil, fmt.Errorf("failed to sign record %s: %w", path, err)
		}
	}

	if err := o.deps.Records.Save(ctx, path, data, detached); err != nil {
		return nil, err
	}

	result := &SignResult{RecordPath: path, Record: record}
	if detached != nil {
		result.SignaturePath = path + entities.DetachedSigExtension
	}
	return result, nil
}

func (o *SigningOrchestrator) loadRecord(ctx context.Context, result *VerifyResult) (*entities.SignatureRecord, error) {
	record, raw, err := o.deps.Records.Load(ctx, result.RecordPath)
	if err != nil {
		return nil, err
	}
	result.Record = record

	if o.deps.Validator != nil {
		if err := o.deps.Validator.ValidateRecord(raw); err != nil {
			return nil, fmt.Errorf("%s: %w", result.RecordPath, err)
		}
		result.Checks = append(result.Checks, "schema")
	}
	return record, nil
}

func (o *SigningOrchestrator) verifyDetached(result *VerifyResult) error {
	if !o.config.VerifyRecords || o.deps.RecordSigner == nil {
		return nil
	}

	ascPath := result.RecordPath + entities.DetachedSigExtension
	if _, err := os.Stat(ascPath); err != nil {
		o.logger.Warn("record has no detached signature", interfaces.F("record", result.RecordPath))
		return nil
	}
	if err := o.deps.RecordSigner.VerifyFile(result.RecordPath, ascPath); err != nil {
		return fmt.Errorf("%w: %v", entities.ErrSignatureMismatch, err)
	}
	result.Checks = append(result.Checks, "openpgp")
	return nil
}

func (o *SigningOrchestrator) reportOutcome(layout entities.ProjectLayout, result *SignResult) {
	if result.Report != nil && !result.Report.Passed {
		o.logger.Warn("PR verify summary does not reference the base design; record marked NOK",
			interfaces.F("expected", layout.StaticDcpName()),
			interfaces.F("summary", result.Report.SummaryLine))
	}
	o.logger.Info("signature written",
		interfaces.F("record", result.RecordPath),
		interfaces.F("file", result.Record.File),
		interfaces.F("verify", result.Record.Verify))
}

func (o *SigningOrchestrator) scheme(requested entities.Scheme) entities.Scheme {
	if requested != "" {
		return requested
	}
	return o.config.Scheme
}

func (o *SigningOrchestrator) reportPath(layout entities.ProjectLayout, scheme entities.Scheme, report string) string {
	if !scheme.UsesReport() || report == "" {
		return ""
	}
	if report == entities.IgnoreKey {
		return entities.IgnoreKey
	}
	return layout.InDcps(report)
}

func (o *SigningOrchestrator) release(unlock func() error) {
	if err := unlock(); err != nil {
		o.logger.Warn("failed to release project lock", interfaces.F("error", err))
	}
}

func checkReportArg(scheme entities.Scheme, report string) error {
	switch {
	case scheme.UsesReport() && report == "":
		return fmt.Errorf("%w: scheme %s needs <new-bin-file> <pr-verify-report|%s>", entities.ErrUsage, scheme, entities.IgnoreKey)
	case !scheme.UsesReport() && report != "":
		return fmt.Errorf("%w: scheme %s takes only <new-bin-file>", entities.ErrUsage, scheme)
	}
	return nil
}

func reportHash(r *entities.VerificationReport) string {
	if r == nil {
		return ""
	}
	return r.Hash
}
