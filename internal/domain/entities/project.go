package entities

import (
	"fmt"
	"path/filepath"
	"time"
)

// Project is the subset of cFp.json the build tooling relies on
type Project struct {
	Root      string
	Module    string // cFpMOD, e.g. "FMKU60"
	ShellType string // cFpSRAtype
}

// ProjectLayout resolves the fixed file names of a project
type ProjectLayout struct {
	Project  Project
	DcpsDir  string
	Debug    bool // set when CFP_DEBUGGING redirected the root
	LockFile string
}

// NewProjectLayout derives all well-known paths from a project
func NewProjectLayout(p Project) ProjectLayout {
	dcps := filepath.Join(p.Root, "dcps")
	return ProjectLayout{
		Project:  p,
		DcpsDir:  dcps,
		LockFile: filepath.Join(dcps, ".cfbuild.lock"),
	}
}

// StaticDcpName is the base design file name, 3_top<MOD>_STATIC.dcp
func (l ProjectLayout) StaticDcpName() string {
	return fmt.Sprintf("3_top%s_STATIC.dcp", l.Project.Module)
}

// StaticMetaName is the metadata file beside the base design
func (l ProjectLayout) StaticMetaName() string {
	return fmt.Sprintf("3_top%s_STATIC.json", l.Project.Module)
}

// StaticDcpPath returns the absolute base design path
func (l ProjectLayout) StaticDcpPath() string {
	return filepath.Join(l.DcpsDir, l.StaticDcpName())
}

// StaticMetaPath returns the absolute metadata path
func (l ProjectLayout) StaticMetaPath() string {
	return filepath.Join(l.DcpsDir, l.StaticMetaName())
}

// InDcps resolves a file name relative to the dcps folder
func (l ProjectLayout) InDcps(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(l.DcpsDir, name)
}

// SigPath returns <artifact>.sig
func (l ProjectLayout) SigPath(artifactName string) string {
	return l.InDcps(artifactName) + SigFileExtension
}

// AdminSigPath returns the fixed admin.sig location
func (l ProjectLayout) AdminSigPath() string {
	return filepath.Join(l.DcpsDir, AdminSigFileName)
}

// Credentials are the registry (OpenStack) credentials from user.json
type Credentials struct {
	User     string
	Password string
	Project  string
}

// ShellRelease is a base design version published by the registry
type ShellRelease struct {
	ID   Ident
	Meta []byte // raw metadata JSON as served
	Cert string
}

// Config is the resolved tool configuration
type Config struct {
	Log      LogConfig
	Signing  SigningConfig
	Registry RegistryConfig
}

// LogConfig configures the structured logger
type LogConfig struct {
	Level  string
	Format string
}

// SigningConfig configures the signing flows
type SigningConfig struct {
	Scheme       Scheme
	SignerPath   string
	GPGKey       string
	GPGPublicKey string
	LockTimeout  time.Duration
}

// RegistryConfig configures the CFRM client
type RegistryConfig struct {
	URL     string
	Timeout time.Duration
	Retries int
}

// DefaultConfig returns the configuration used when no cfbuild.yaml exists
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Signing: SigningConfig{
			Scheme:      DefaultScheme,
			LockTimeout: 30 * time.Second,
		},
		Registry: RegistryConfig{
			URL:     "10.12.0.132:8080",
			Timeout: 5 * time.Minute,
			Retries: 3,
		},
	}
}
