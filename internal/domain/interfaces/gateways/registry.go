package gateways

import (
	"context"
	"io"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// ShellRegistry defines operations against the cloudFPGA resource manager
type ShellRegistry interface {
	// LatestShell returns the newest base design published for shellType
	LatestShell(ctx context.Context, shellType string, creds entities.Credentials) (*entities.ShellRelease, error)

	// DownloadDcp streams the base design binary of release id into w
	DownloadDcp(ctx context.Context, id entities.Ident, creds entities.Credentials, w io.Writer) error
}
