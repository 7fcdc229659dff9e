package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// FileBackend stores one file per digest under root, sharded by the first
// two hex characters of the digest to keep any single directory from
// growing unbounded. Writes go to a temp file in the shard directory and
// are renamed into place, so a crash mid-write never leaves a partial
// digest file visible to readers.
type FileBackend struct {
	root string
}

// NewFileBackend returns a FileBackend rooted at dir, creating it if
// necessary.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create file backend root: %w", err)
	}
	return &FileBackend{root: dir}, nil
}

func (b *FileBackend) shardDir(digest string) string {
	if len(digest) < 2 {
		return filepath.Join(b.root, "_short")
	}
	return filepath.Join(b.root, digest[:2])
}

func (b *FileBackend) path(digest string) string {
	return filepath.Join(b.shardDir(digest), digest)
}

func (b *FileBackend) Put(ctx context.Context, digest string, data []byte) error {
	dir := b.shardDir(digest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: create shard dir: %w", err)
	}

	final := b.path(digest)
	if _, err := os.Stat(final); err == nil {
		return nil
	}

	tmp, err := os.CreateTemp(dir, digest+".tmp-*")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("store: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("store: rename into place: %w", err)
	}
	return nil
}

func (b *FileBackend) Has(ctx context.Context, digest string) (bool, error) {
	_, err := os.Stat(b.path(digest))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (b *FileBackend) Get(ctx context.Context, digest string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(digest))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// SweepDryRun lists digest files under root whose shard-relative path
// matches pattern without deleting anything, for the CLI gc subcommand's
// dry-run listing. A backend may implement real eviction separately; this
// is only the FileBackend's own optional helper.
func (b *FileBackend) SweepDryRun(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(b.root), pattern)
	if err != nil {
		return nil, fmt.Errorf("store: sweep glob %q: %w", pattern, err)
	}
	return matches, nil
}
