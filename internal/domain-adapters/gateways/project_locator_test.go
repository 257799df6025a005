package gateways

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

func newTestLocator(env map[string]string, wd string) *ProjectLocator {
	return &ProjectLocator{
		getenv: func(k string) string { return env[k] },
		getwd:  func() (string, error) { return wd, nil },
	}
}

func TestProjectLocator_ResolveRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte(`{}`), 0600))
	nested := filepath.Join(root, "ROLE", "role1", "hls")
	require.NoError(t, os.MkdirAll(nested, 0750))

	t.Run("walks up from working directory", func(t *testing.T) {
		got, debug, err := newTestLocator(nil, nested).ResolveRoot("")
		require.NoError(t, err)
		assert.Equal(t, root, got)
		assert.False(t, debug)
	})

	t.Run("explicit root wins", func(t *testing.T) {
		got, debug, err := newTestLocator(map[string]string{DebugEnv: "/elsewhere"}, nested).ResolveRoot(root)
		require.NoError(t, err)
		assert.Equal(t, root, got)
		assert.False(t, debug)
	})

	t.Run("debug override", func(t *testing.T) {
		fixture := t.TempDir()
		got, debug, err := newTestLocator(map[string]string{DebugEnv: fixture}, nested).ResolveRoot("")
		require.NoError(t, err)
		assert.Equal(t, fixture, got)
		assert.True(t, debug)
	})

	t.Run("no project", func(t *testing.T) {
		_, _, err := newTestLocator(nil, t.TempDir()).ResolveRoot("")
		assert.True(t, errors.Is(err, entities.ErrNotFound))
	})
}

func TestProjectLocator_RequireFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.bit")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0600))

	l := NewProjectLocator()
	assert.NoError(t, l.RequireFiles(present))

	err := l.RequireFiles(present, filepath.Join(dir, "missing.bit"))
	var nf *entities.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, filepath.Join(dir, "missing.bit"), nf.Path)

	// directories are not artifacts
	assert.Error(t, l.RequireFiles(dir))
}

func TestProjectLocator_FindSignatures(t *testing.T) {
	root := t.TempDir()
	layout := entities.NewProjectLayout(entities.Project{Root: root, Module: "FMKU60"})
	require.NoError(t, os.MkdirAll(filepath.Join(layout.DcpsDir, "old"), 0750))

	for _, name := range []string{"b.bit.sig", "a.bit.sig", "admin.sig", "a.bit", "old/c.bin.sig", "note.sig.asc"} {
		require.NoError(t, os.WriteFile(filepath.Join(layout.DcpsDir, name), []byte("{}"), 0600))
	}

	got, err := NewProjectLocator().FindSignatures(layout)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(layout.DcpsDir, "a.bit.sig"),
		filepath.Join(layout.DcpsDir, "admin.sig"),
		filepath.Join(layout.DcpsDir, "b.bit.sig"),
		filepath.Join(layout.DcpsDir, "old", "c.bin.sig"),
	}, got)

	empty := entities.NewProjectLayout(entities.Project{Root: t.TempDir()})
	_, err = NewProjectLocator().FindSignatures(empty)
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

func TestProjectLocator_SignerPath(t *testing.T) {
	l := NewProjectLocator()

	got, err := l.SignerPath("relative/signer")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	exe, err := l.SignerPath("")
	require.NoError(t, err)
	assert.FileExists(t, exe)
}
