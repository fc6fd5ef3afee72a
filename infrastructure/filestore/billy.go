// Package filestore keeps downloaded binaries on a go-billy filesystem.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// DefaultExtension is appended to every cache id to form a file name.
const DefaultExtension = ".jpg"

// BillyStore implements imagecache.IFileStore. Handles are paths joined with
// the filesystem root, so for a local store they are usable as file URIs.
type BillyStore struct {
	bfs billy.Filesystem
	ext string
}

// NewLocal roots a store at dir on the local disk, creating it when missing.
func NewLocal(dir string) (*BillyStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	return New(osfs.New(dir)), nil
}

// NewMemory returns a store backed by an in-memory filesystem.
func NewMemory() *BillyStore {
	return New(memfs.New())
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *BillyStore {
	return &BillyStore{bfs: bfs, ext: DefaultExtension}
}

// Unwrap returns the underlying filesystem.
func (s *BillyStore) Unwrap() billy.Filesystem {
	return s.bfs
}

func (s *BillyStore) Handle(id string) string {
	return s.bfs.Join(s.bfs.Root(), id+s.ext)
}

// name converts a handle back into a path relative to the root.
func (s *BillyStore) name(handle string) string {
	rel := strings.TrimPrefix(handle, s.bfs.Root())
	return strings.TrimLeft(rel, `/\`)
}

func (s *BillyStore) Exists(handle string) (bool, error) {
	_, err := s.bfs.Stat(s.name(handle))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Write deletes any previous file at handle and creates it anew.
func (s *BillyStore) Write(handle string, data []byte) error {
	name := s.name(handle)
	if err := s.Delete(handle); err != nil {
		return err
	}
	if err := util.WriteFile(s.bfs, name, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *BillyStore) Delete(handle string) error {
	name := s.name(handle)
	if err := s.bfs.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

func (s *BillyStore) Size(handle string) (int64, error) {
	info, err := s.bfs.Stat(s.name(handle))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
