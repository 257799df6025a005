package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

const (
	// ProjectFileName marks the root of a cloudFPGA project
	ProjectFileName = "cFp.json"

	// DebugEnv redirects the project root to a test fixture directory
	DebugEnv = "CFP_DEBUGGING"
)

// ProjectLocator finds project roots, artifacts and signature records
type ProjectLocator struct {
	getenv func(string) string
	getwd  func() (string, error)
}

// NewProjectLocator creates a locator backed by the process environment
func NewProjectLocator() *ProjectLocator {
	return &ProjectLocator{
		getenv: os.Getenv,
		getwd:  os.Getwd,
	}
}

// ResolveRoot picks the project root: explicit flag, then CFP_DEBUGGING,
// then the nearest ancestor of the working directory holding cFp.json.
// The boolean reports whether the debug override was used.
func (l *ProjectLocator) ResolveRoot(explicit string) (string, bool, error) {
	if explicit != "" {
		root, err := filepath.Abs(explicit)
		return root, false, err
	}

	if debugDir := l.getenv(DebugEnv); debugDir != "" {
		root, err := filepath.Abs(debugDir)
		if err != nil {
			return "", true, err
		}
		return root, true, nil
	}

	wd, err := l.getwd()
	if err != nil {
		return "", false, fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := wd; ; dir = filepath.Dir(dir) {
		if fileExists(filepath.Join(dir, ProjectFileName)) {
			return dir, false, nil
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	return "", false, &entities.NotFoundError{Path: filepath.Join(wd, ProjectFileName)}
}

// RequireFiles fails with a NotFoundError on the first path that is not a
// regular file
func (l *ProjectLocator) RequireFiles(paths ...string) error {
	for _, p := range paths {
		if !fileExists(p) {
			return &entities.NotFoundError{Path: p}
		}
	}
	return nil
}

// FindSignatures lists every *.sig record below the dcps folder, sorted
func (l *ProjectLocator) FindSignatures(layout entities.ProjectLayout) ([]string, error) {
	if _, err := os.Stat(layout.DcpsDir); os.IsNotExist(err) {
		return nil, &entities.NotFoundError{Path: layout.DcpsDir}
	}

	matches, err := doublestar.Glob(os.DirFS(layout.DcpsDir), "**/*"+entities.SigFileExtension)
	if err != nil {
		return nil, fmt.Errorf("failed to glob signature records: %w", err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		p := filepath.Join(layout.DcpsDir, filepath.FromSlash(m))
		if fileExists(p) {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	return paths, nil
}

// SignerPath returns the file hashed as the signer's own identity: the
// configured override, or the running executable
func (l *ProjectLocator) SignerPath(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}

	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate signer executable: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve signer executable: %w", err)
	}
	return resolved, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
