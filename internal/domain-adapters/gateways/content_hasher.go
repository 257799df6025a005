package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/cloudfpga/cfbuild/internal/domain/entities"
)

// hashBlockSize matches the block size historical signers read with
const hashBlockSize = 4096

// ContentHasher implements SHA-256 content hashing using pure Go
type ContentHasher struct {
	maxParallel int
}

// NewContentHasher creates a new content hasher
func NewContentHasher() *ContentHasher {
	return &ContentHasher{maxParallel: 4}
}

// HashFile streams a file through SHA-256 in fixed-size blocks
func (h *ContentHasher) HashFile(ctx context.Context, path string) (string, error) {
	//nolint:gosec // G304: path is a build artifact chosen by the caller
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &entities.NotFoundError{Path: path}
		}
		return "", &entities.IOError{Op: "open", Path: path, Err: err}
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	sum := sha256.New()
	buf := make([]byte, hashBlockSize)
	if _, err := io.CopyBuffer(sum, &ctxReader{ctx: ctx, r: f}, buf); err != nil {
		return "", &entities.IOError{Op: "hash", Path: path, Err: err}
	}

	return hex.EncodeToString(sum.Sum(nil)), nil
}

// HashFiles hashes paths concurrently; digests are returned in argument order
func (h *ContentHasher) HashFiles(ctx context.Context, paths ...string) ([]string, error) {
	digests := make([]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.maxParallel)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			d, err := h.HashFile(gctx, p)
			if err != nil {
				return err
			}
			digests[i] = d
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// HashString returns the hex SHA-256 of the UTF-8 bytes of text
func (h *ContentHasher) HashString(text string) string {
	return HashString(text)
}

// HashString returns the hex SHA-256 of the UTF-8 bytes of text
func HashString(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ctxReader stops a long hash when the context is cancelled
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
