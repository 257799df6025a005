package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/gateways"
	"github.com/cloudfpga/cfbuild/internal/domain/interfaces/repositories"
)

// StreamWriter replaces a file with streamed content atomically
type StreamWriter interface {
	WriteStream(path string, fill func(io.Writer) error) error
}

// ShellOrchestrator keeps the project's base design in sync with the registry
type ShellOrchestrator struct {
	credentials repositories.CredentialsRepository
	metadata    repositories.MetadataRepository
	registry    gateways.ShellRegistry
	locker      gateways.Locker
	locator     ProjectLocator
	writer      StreamWriter
	logger      interfaces.Logger
}

// NewShellOrchestrator creates a new shell orchestrator
func NewShellOrchestrator(
	credentials repositories.CredentialsRepository,
	metadata repositories.MetadataRepository,
	registry gateways.ShellRegistry,
	locker gateways.Locker,
	locator ProjectLocator,
	writer StreamWriter,
	logger interfaces.Logger,
) *ShellOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ShellOrchestrator{
		credentials: credentials,
		metadata:    metadata,
		registry:    registry,
		locker:      locker,
		locator:     locator,
		writer:      writer,
		logger:      logger,
	}
}

// UpdateResult describes the outcome of an update
type UpdateResult struct {
	Release  *entities.ShellRelease
	UpToDate bool
	DcpPath  string
	MetaPath string
}

// UpdateShell downloads the newest base design for the project's shell type
// unless the local metadata already names it. The base design is written
// before its metadata, so a failed download leaves the old pair in place.
func (o *ShellOrchestrator) UpdateShell(ctx context.Context, layout entities.ProjectLayout) (*UpdateResult, error) {
	shellType := layout.Project.ShellType
	if shellType == "" {
		return nil, &entities.MissingFieldError{
			Path:  filepath.Join(layout.Project.Root, "cFp.json"),
			Field: "cFpSRAtype",
		}
	}

	creds, err := o.credentials.LoadCredentials(ctx, layout.Project.Root)
	if err != nil {
		return nil, err
	}

	unlock, err := o.locker.Acquire(ctx, layout.LockFile)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			o.logger.Warn("failed to release project lock", interfaces.F("error", err))
		}
	}()

	release, err := o.registry.LatestShell(ctx, shellType, *creds)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{
		Release:  release,
		DcpPath:  layout.StaticDcpPath(),
		MetaPath: layout.StaticMetaPath(),
	}

	if o.isCurrent(ctx, layout, release) {
		result.UpToDate = true
		o.logger.Info("base design is up to date",
			interfaces.F("shell", shellType),
			interfaces.F("id", release.ID.String()))
		return result, nil
	}

	o.logger.Info("downloading base design",
		interfaces.F("shell", shellType),
		interfaces.F("id", release.ID.String()),
		interfaces.F("path", result.DcpPath))

	err = o.writer.WriteStream(result.DcpPath, func(w io.Writer) error {
		return o.registry.DownloadDcp(ctx, release.ID, *creds, w)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download base design %s: %w", release.ID, err)
	}

	if err := o.metadata.SaveMeta(ctx, result.MetaPath, release.Meta); err != nil {
		return nil, err
	}

	o.logger.Info("base design updated", interfaces.F("id", release.ID.String()))
	return result, nil
}

func (o *ShellOrchestrator) isCurrent(ctx context.Context, layout entities.ProjectLayout, release *entities.ShellRelease) bool {
	if o.locator.RequireFiles(layout.StaticDcpPath()) != nil {
		return false
	}

	local, err := o.metadata.LoadCurrentMeta(ctx, layout.StaticMetaPath())
	if err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			o.logger.Warn("local base design metadata unusable, replacing it", interfaces.F("error", err))
		}
		return false
	}

	return local.ID.String() == release.ID.String() && local.Cert == release.Cert
}
