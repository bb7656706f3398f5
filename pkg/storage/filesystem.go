// Package storage persists attachment blobs on the local filesystem. Blob
// names are random so uploads can never collide or traverse outside the root.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore saves and serves attachment blobs.
type FileStore interface {
	// Save writes the blob and returns the storage path to persist.
	Save(reader io.Reader, ext string) (path string, size int64, err error)
	// Open opens a previously saved blob by its storage path.
	Open(path string) (io.ReadCloser, error)
	// Remove deletes a blob. Missing blobs are not an error.
	Remove(path string) error
}

// FileSystemStore implements FileStore on a local directory.
type FileSystemStore struct {
	rootDir string
}

// NewFileSystemStore creates the root directory if needed.
func NewFileSystemStore(rootDir string) (*FileSystemStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FileSystemStore{rootDir: rootDir}, nil
}

// Save writes the blob under a generated name, sharded by the name's first
// two characters to keep directories small.
func (s *FileSystemStore) Save(reader io.Reader, ext string) (string, int64, error) {
	name := uuid.NewString()
	if ext != "" {
		name += ext
	}
	relative := filepath.Join(name[:2], name)

	fullPath := filepath.Join(s.rootDir, relative)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("failed to create blob directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create blob: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(fullPath)
		return "", 0, fmt.Errorf("failed to write blob: %w", err)
	}
	return relative, size, nil
}

// Open opens a blob by its storage path.
func (s *FileSystemStore) Open(path string) (io.ReadCloser, error) {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) || cleaned == ".." || len(cleaned) >= 3 && cleaned[:3] == ".."+string(filepath.Separator) {
		return nil, fmt.Errorf("invalid blob path: %s", path)
	}
	file, err := os.Open(filepath.Join(s.rootDir, cleaned))
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return file, nil
}

// Remove deletes a blob by its storage path.
func (s *FileSystemStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.rootDir, filepath.Clean(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}
