package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// TestHashFile tests SHA256 content hashing against known digests
func TestHashFile(t *testing.T) {
	tests := []struct {
		name       string
		content    []byte
		wantDigest string
	}{
		{
			name:       "empty file",
			content:    []byte(""),
			wantDigest: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:       "simple content",
			content:    []byte("Hello, World!"),
			wantDigest: "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(t.TempDir(), "test.bin")
			require.NoError(t, os.WriteFile(testFile, tt.content, 0600))

			digest, err := NewContentHasher().HashFile(context.Background(), testFile)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDigest, digest)
		})
	}
}

// TestHashFile_LargeFile spans many read blocks
func TestHashFile_LargeFile(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "large.bin")

	content := make([]byte, 1024*1024)
	for i := range content {
		content[i] = byte(i % 256)
	}
	require.NoError(t, os.WriteFile(testFile, content, 0600))

	digest, err := NewContentHasher().HashFile(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, "fbbab289f7f94b25736c58be46a994c441fd02552cc6022352e3d86d2fab7c83", digest)
}

func TestHashFile_Errors(t *testing.T) {
	h := NewContentHasher()

	_, err := h.HashFile(context.Background(), "/nonexistent/file.bin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	_, err = h.HashFile(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, entities.ErrIO))

	testFile := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, os.WriteFile(testFile, []byte("x"), 0600))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.HashFile(ctx, testFile)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashFiles_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	contents := []string{"", "Hello, World!", "a", "b", "c", "d"}
	paths := make([]string, len(contents))
	for i, c := range contents {
		paths[i] = filepath.Join(dir, string(rune('a'+i))+".bin")
		require.NoError(t, os.WriteFile(paths[i], []byte(c), 0600))
	}

	digests, err := NewContentHasher().HashFiles(context.Background(), paths...)
	require.NoError(t, err)
	require.Len(t, digests, len(paths))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", digests[0])
	assert.Equal(t, "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f", digests[1])
	for i, c := range contents {
		assert.Equal(t, HashString(c), digests[i])
	}

	_, err = NewContentHasher().HashFiles(context.Background(), paths[0], filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

func TestHashString(t *testing.T) {
	assert.Equal(t, entities.IgnoreReportHash, HashString("ignore verify"))
	assert.Equal(t, "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f", NewContentHasher().HashString("Hello, World!"))
}

// TestHashConsistency tests that hashing is stable across runs
func TestHashConsistency(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("Test content for consistency check"), 0600))

	h := NewContentHasher()
	first, err := h.HashFile(context.Background(), testFile)
	require.NoError(t, err)
	second, err := h.HashFile(context.Background(), testFile)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
